// Package export renders a submitted planilla into its downloadable
// representations: an xlsx workbook and a printable HTML sheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/format"
)

const sheetName = "Planilla"

var detailHeaders = []string{
	"NOMBRE DEL CLIENTE", "FACTURA Nº", "IMPORTE", "DESCUENTO", "NETO",
	"CHEQUE Nº", "C/BANCO", "PLAZA", "IMPORTE", "FECHA", "EFECTIVO",
}

// ExcelFilename builds the download name, "Planilla - {client} - {fecha}.xlsx".
func ExcelFilename(order domain.OrderView) string {
	clientName := "Cliente"
	if order.Client != nil {
		if order.Client.Name != "" {
			clientName = order.Client.Name
		} else if order.Client.Company != "" {
			clientName = order.Client.Company
		}
	}
	fecha := order.FechaPlanilla
	if fecha == "" {
		fecha = order.CreatedAt.Format("02/01/2006")
	}
	return fmt.Sprintf("Planilla - %s - %s.xlsx", clientName, fecha)
}

// Excel renders the collection sheet: seller header on the left, the sheet
// title and proveedor on the right, then the eleven-column value table with
// a totals row, followed by observations, date, and the commissions line on
// type A sheets.
func Excel(order domain.OrderView) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	var vendedor domain.Vendedor
	if order.Vendedor != nil {
		vendedor = *order.Vendedor
	}
	clientName := "Cliente"
	if order.Client != nil && order.Client.Name != "" {
		clientName = order.Client.Name
	} else if order.Client != nil && order.Client.Company != "" {
		clientName = order.Client.Company
	}

	f.SetCellValue(sheetName, "A1", vendedor.RazonSocial)
	f.SetCellValue(sheetName, "A2", "de "+vendedor.Nombre)
	f.SetCellValue(sheetName, "A3", vendedor.Direccion)
	f.SetCellValue(sheetName, "A4", vendedor.Localidad)
	f.SetCellValue(sheetName, "H1", "PLANILLA DE COBRANZAS")
	f.SetCellValue(sheetName, "H2", "PROVEEDOR: "+clientName)

	f.MergeCell(sheetName, "A6", "K6")
	f.SetCellValue(sheetName, "A6", "DETALLE DE VALORES")

	headerRow := 7
	for i, header := range detailHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, headerRow), header)
		f.SetColWidth(sheetName, col, col, 16)
	}

	var totals struct {
		importe, descuento, neto, cheques, efectivo float64
	}
	rowIndex := headerRow + 1
	for _, item := range order.Items {
		rowData := []any{
			item.NombreCliente,
			item.FacturaNumero,
			format.Currency(item.Importe),
			format.Currency(item.Descuento),
			format.Currency(item.Neto),
			item.ChequeNumero,
			item.Banco,
			item.Plaza,
			format.Currency(item.ImporteCheque),
			item.Fecha,
			format.Currency(item.Efectivo),
		}
		for i, value := range rowData {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, rowIndex), value)
		}
		totals.importe += item.Importe
		totals.descuento += item.Descuento
		totals.neto += item.Neto
		totals.cheques += item.ImporteCheque
		totals.efectivo += item.Efectivo
		rowIndex++
	}

	totalsRow := map[string]any{
		"A": "TOTALES",
		"C": format.Currency(totals.importe),
		"D": format.Currency(totals.descuento),
		"E": format.Currency(totals.neto),
		"I": format.Currency(totals.cheques),
		"K": format.Currency(totals.efectivo),
	}
	for col, value := range totalsRow {
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, rowIndex), value)
	}

	footerRow := rowIndex + 2
	observaciones := order.Observaciones
	if observaciones == "" {
		observaciones = "(ninguna)"
	}
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", footerRow), "OBSERVACIONES: "+observaciones)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", footerRow+1), "FECHA: "+order.FechaPlanilla)
	if order.TipoPlanilla == domain.TipoPlanillaA {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", footerRow+2), "COMISIONES $: "+format.Currency(order.Comisiones))
	}

	if style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	}); err == nil {
		f.SetRowStyle(sheetName, headerRow, headerRow, style)
		f.SetRowStyle(sheetName, rowIndex, rowIndex, style)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
