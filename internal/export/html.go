package export

import (
	"bytes"
	"html/template"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/format"
)

// planillaHTMLTmpl renders the printable sheet. All user-controlled fields
// are auto-escaped by html/template to prevent XSS.
var planillaHTMLTmpl = template.Must(template.New("planilla").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Planilla {{.OrderNumber}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .header { display: flex; justify-content: space-between; }
    .header h2 { margin-bottom: 4px; }
    table { width: 100%; border-collapse: collapse; margin-top: 12px; }
    th, td { border: 1px solid #999; padding: 4px 6px; font-size: 12px; }
    td.num { text-align: right; }
    tr.totales { font-weight: bold; background: #f3f3c8; }
    .footer { margin-top: 12px; font-size: 13px; }
  </style>
</head>
<body>
  <div class="header">
    <div>
      <h2>{{.RazonSocial}}</h2>
      <p><strong>de {{.VendedorNombre}}</strong></p>
      <p>{{.Direccion}}</p>
      <p>{{.Localidad}}</p>
    </div>
    <div style="text-align:right;">
      <h2>PLANILLA DE COBRANZAS</h2>
      <p><strong>PROVEEDOR:</strong> {{.ClientName}}</p>
      <p>{{.OrderNumber}}</p>
    </div>
  </div>

  <p style="text-align:center;"><strong>DETALLE DE VALORES</strong></p>
  <table>
    <thead>
      <tr><th>NOMBRE DEL CLIENTE</th><th>FACTURA Nº</th><th>IMPORTE</th><th>DESCUENTO</th><th>NETO</th><th>CHEQUE Nº</th><th>C/BANCO</th><th>PLAZA</th><th>IMPORTE</th><th>FECHA</th><th>EFECTIVO</th></tr>
    </thead>
    <tbody>
      {{range .Rows}}<tr><td>{{.NombreCliente}}</td><td>{{.FacturaNumero}}</td><td class="num">{{.Importe}}</td><td class="num">{{.Descuento}}</td><td class="num">{{.Neto}}</td><td>{{.ChequeNumero}}</td><td>{{.Banco}}</td><td>{{.Plaza}}</td><td class="num">{{.ImporteCheque}}</td><td>{{.Fecha}}</td><td class="num">{{.Efectivo}}</td></tr>
      {{end}}<tr class="totales"><td>TOTALES</td><td></td><td class="num">{{.TotalImporte}}</td><td class="num">{{.TotalDescuento}}</td><td class="num">{{.TotalNeto}}</td><td></td><td></td><td></td><td class="num">{{.TotalCheques}}</td><td></td><td class="num">{{.TotalEfectivo}}</td></tr>
    </tbody>
  </table>

  <div class="footer">
    <p><strong>OBSERVACIONES:</strong> {{.Observaciones}}</p>
    <p><strong>FECHA:</strong> {{.FechaPlanilla}}</p>
    {{if .ShowComisiones}}<p><strong>COMISIONES $:</strong> {{.Comisiones}}</p>{{end}}
  </div>
</body>
</html>
`))

type planillaRow struct {
	NombreCliente string
	FacturaNumero string
	Importe       string
	Descuento     string
	Neto          string
	ChequeNumero  string
	Banco         string
	Plaza         string
	ImporteCheque string
	Fecha         string
	Efectivo      string
}

type planillaView struct {
	OrderNumber    string
	RazonSocial    string
	VendedorNombre string
	Direccion      string
	Localidad      string
	ClientName     string
	Rows           []planillaRow
	TotalImporte   string
	TotalDescuento string
	TotalNeto      string
	TotalCheques   string
	TotalEfectivo  string
	Observaciones  string
	FechaPlanilla  string
	ShowComisiones bool
	Comisiones     string
}

// PrintableHTML renders the same sheet as Excel but as a self-contained
// page suited for the browser's print-to-PDF flow.
func PrintableHTML(order domain.OrderView) []byte {
	view := planillaView{
		OrderNumber:    order.OrderNumber,
		ClientName:     "Cliente",
		Observaciones:  order.Observaciones,
		FechaPlanilla:  order.FechaPlanilla,
		ShowComisiones: order.TipoPlanilla == domain.TipoPlanillaA,
		Comisiones:     format.Currency(order.Comisiones),
	}
	if order.Vendedor != nil {
		view.RazonSocial = order.Vendedor.RazonSocial
		view.VendedorNombre = order.Vendedor.Nombre
		view.Direccion = order.Vendedor.Direccion
		view.Localidad = order.Vendedor.Localidad
	}
	if order.Client != nil && order.Client.Name != "" {
		view.ClientName = order.Client.Name
	} else if order.Client != nil && order.Client.Company != "" {
		view.ClientName = order.Client.Company
	}
	if view.Observaciones == "" {
		view.Observaciones = "(ninguna)"
	}

	var totals struct {
		importe, descuento, neto, cheques, efectivo float64
	}
	for _, item := range order.Items {
		view.Rows = append(view.Rows, planillaRow{
			NombreCliente: item.NombreCliente,
			FacturaNumero: item.FacturaNumero,
			Importe:       format.Currency(item.Importe),
			Descuento:     format.Currency(item.Descuento),
			Neto:          format.Currency(item.Neto),
			ChequeNumero:  item.ChequeNumero,
			Banco:         item.Banco,
			Plaza:         item.Plaza,
			ImporteCheque: format.Currency(item.ImporteCheque),
			Fecha:         item.Fecha,
			Efectivo:      format.Currency(item.Efectivo),
		})
		totals.importe += item.Importe
		totals.descuento += item.Descuento
		totals.neto += item.Neto
		totals.cheques += item.ImporteCheque
		totals.efectivo += item.Efectivo
	}
	view.TotalImporte = format.Currency(totals.importe)
	view.TotalDescuento = format.Currency(totals.descuento)
	view.TotalNeto = format.Currency(totals.neto)
	view.TotalCheques = format.Currency(totals.cheques)
	view.TotalEfectivo = format.Currency(totals.efectivo)

	var buf bytes.Buffer
	if err := planillaHTMLTmpl.Execute(&buf, view); err != nil {
		return []byte("<!doctype html><html><body><p>Render error.</p></body></html>")
	}
	return buf.Bytes()
}
