package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"planillas/backend/internal/domain"
)

func sampleOrder() domain.OrderView {
	return domain.OrderView{
		Order: domain.Order{
			OrderNumber:  "ORD-000042",
			TipoPlanilla: domain.TipoPlanillaA,
			Items: []domain.Item{
				{NombreCliente: "Cliente Final", FacturaNumero: "0001-1234", Importe: 1000, Descuento: 100, Neto: 900, Efectivo: 900},
				{NombreCliente: "Otro Cliente", Importe: 500, Neto: 500, ChequeNumero: "778", Banco: "Nación", ImporteCheque: 500, Fecha: "20/03/2024"},
			},
			Comisiones:    50,
			FechaPlanilla: "15/03/2024",
		},
		Client: &domain.Client{Name: "Lácteos del Valle"},
		Vendedor: &domain.Vendedor{
			Nombre: "Carlos Medina", RazonSocial: "Distribuidora Norte SRL",
			Direccion: "Av. Rivadavia 1250", Localidad: "San Miguel de Tucumán",
		},
	}
}

func TestExcelFilename(t *testing.T) {
	if got := ExcelFilename(sampleOrder()); got != "Planilla - Lácteos del Valle - 15/03/2024.xlsx" {
		t.Fatalf("unexpected filename: %q", got)
	}

	anon := sampleOrder()
	anon.Client = nil
	if got := ExcelFilename(anon); !strings.HasPrefix(got, "Planilla - Cliente - ") {
		t.Fatalf("fallback filename: %q", got)
	}
}

func TestExcelWorkbookContents(t *testing.T) {
	data, err := Excel(sampleOrder())
	if err != nil {
		t.Fatalf("excel: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "H1")
	if err != nil || title != "PLANILLA DE COBRANZAS" {
		t.Fatalf("H1 = %q err=%v", title, err)
	}
	razon, _ := f.GetCellValue(sheetName, "A1")
	if razon != "Distribuidora Norte SRL" {
		t.Fatalf("A1 = %q", razon)
	}
	firstName, _ := f.GetCellValue(sheetName, "A8")
	if firstName != "Cliente Final" {
		t.Fatalf("first item row = %q", firstName)
	}
	totalImporte, _ := f.GetCellValue(sheetName, "C10")
	if totalImporte != "$ 1.500,00" {
		t.Fatalf("total importe cell = %q", totalImporte)
	}
	comisiones, _ := f.GetCellValue(sheetName, "A14")
	if comisiones != "COMISIONES $: $ 50,00" {
		t.Fatalf("comisiones line = %q", comisiones)
	}
}

func TestExcelTipoBHidesComisiones(t *testing.T) {
	order := sampleOrder()
	order.TipoPlanilla = domain.TipoPlanillaB
	data, err := Excel(order)
	if err != nil {
		t.Fatalf("excel: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	got, _ := f.GetCellValue(sheetName, "A14")
	if got != "" {
		t.Fatalf("type B sheet should carry no comisiones line, got %q", got)
	}
}

func TestPrintableHTML(t *testing.T) {
	page := string(PrintableHTML(sampleOrder()))
	for _, want := range []string{
		"PLANILLA DE COBRANZAS",
		"PROVEEDOR:",
		"Lácteos del Valle",
		"Distribuidora Norte SRL",
		"Cliente Final",
		"$ 1.500,00",
		"COMISIONES $:",
		"15/03/2024",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	b := sampleOrder()
	b.TipoPlanilla = domain.TipoPlanillaB
	if strings.Contains(string(PrintableHTML(b)), "COMISIONES") {
		t.Fatal("type B page should not show comisiones")
	}
}

func TestPrintableHTMLEscapesUserInput(t *testing.T) {
	order := sampleOrder()
	order.Observaciones = `<script>alert("x")</script>`
	page := string(PrintableHTML(order))
	if strings.Contains(page, "<script>alert") {
		t.Fatal("observaciones must be escaped")
	}
}
