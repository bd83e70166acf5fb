// Package draft holds the in-progress state of a planilla before it is
// submitted: the header selections, the committed value rows, and a single
// scratch row being typed or edited.
package draft

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/format"
)

var (
	ErrClientRequired = errors.New("client is required")
	ErrTipoRequired   = errors.New("sheet type is required")
	ErrNoItems        = errors.New("at least one item is required")
)

// ComputeNet derives the net amount of a row. It is the only place the
// relation between gross, discount and net is written down.
func ComputeNet(importe, descuento float64) float64 {
	return importe - descuento
}

// Totals aggregates the committed rows. The scratch row never counts.
type Totals struct {
	Importe   float64
	Descuento float64
	Neto      float64
	Cheques   float64
	Efectivo  float64
}

// Session is one user's planilla under composition. Numeric fields stay as
// typed text until submit; only Neto is recomputed eagerly so the user sees
// it while typing.
type Session struct {
	data    domain.Draft
	scratch domain.DraftItem
	editIdx *int
}

// NewSession starts an empty planilla.
func NewSession() *Session {
	return &Session{}
}

// StartNew begins a planilla with the form defaults: the first available
// seller preselected and the sheet date set to today as DD/MM/YYYY.
func StartNew(vendedores []domain.Vendedor, today time.Time) *Session {
	s := &Session{}
	if len(vendedores) > 0 {
		s.data.Vendedor = vendedores[0].ID
	}
	s.data.FechaPlanilla = today.Format("02/01/2006")
	return s
}

// FromBlob restores a session from a persisted draft. Missing fields in the
// blob simply stay zero.
func FromBlob(d domain.Draft) *Session {
	return &Session{data: d}
}

// FromOrder loads a submitted order back into an editable session. Stored
// numbers are rendered to plain decimal text, with zeros kept as empty
// strings the way a fresh row leaves them.
func FromOrder(o domain.Order) *Session {
	s := &Session{data: domain.Draft{
		SelectedClient: o.ClientID,
		Vendedor:       o.VendedorID,
		TipoPlanilla:   o.TipoPlanilla,
		Observaciones:  o.Observaciones,
		FechaPlanilla:  o.FechaPlanilla,
	}}
	if o.Comisiones != 0 {
		s.data.Comisiones = formatAmount(o.Comisiones)
	}
	for _, it := range o.Items {
		s.data.Items = append(s.data.Items, domain.DraftItem{
			NombreCliente: it.NombreCliente,
			FacturaNumero: it.FacturaNumero,
			Importe:       formatAmount(it.Importe),
			Descuento:     formatAmount(it.Descuento),
			Neto:          formatAmount(it.Neto),
			ChequeNumero:  it.ChequeNumero,
			Banco:         it.Banco,
			Plaza:         it.Plaza,
			ImporteCheque: formatAmount(it.ImporteCheque),
			Fecha:         it.Fecha,
			Efectivo:      formatAmount(it.Efectivo),
		})
	}
	return s
}

func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Blob snapshots the session for persistence. The caller stamps Timestamp
// when it actually writes.
func (s *Session) Blob() domain.Draft {
	d := s.data
	d.Items = append([]domain.DraftItem(nil), s.data.Items...)
	return d
}

func (s *Session) SetClient(id string)        { s.data.SelectedClient = id }
func (s *Session) SetVendedor(id string)      { s.data.Vendedor = id }
func (s *Session) SetTipoPlanilla(t string)   { s.data.TipoPlanilla = t }
func (s *Session) SetObservaciones(v string)  { s.data.Observaciones = v }
func (s *Session) SetComisiones(v string)     { s.data.Comisiones = v }
func (s *Session) SetFechaPlanilla(v string)  { s.data.FechaPlanilla = format.MaskDate(v) }
func (s *Session) Items() []domain.DraftItem  { return s.data.Items }
func (s *Session) Scratch() domain.DraftItem  { return s.scratch }

// Editing reports the index under edit, if any.
func (s *Session) Editing() (int, bool) {
	if s.editIdx == nil {
		return 0, false
	}
	return *s.editIdx, true
}

// SetItemField writes one field of the scratch row. Changing importe or
// descuento recomputes neto; writing neto directly is rejected. Dates are
// masked as they are typed.
func (s *Session) SetItemField(field, value string) error {
	switch field {
	case "nombreCliente":
		s.scratch.NombreCliente = value
	case "facturaNumero":
		s.scratch.FacturaNumero = value
	case "importe":
		s.scratch.Importe = value
	case "descuento":
		s.scratch.Descuento = value
	case "chequeNumero":
		s.scratch.ChequeNumero = value
	case "banco":
		s.scratch.Banco = value
	case "plaza":
		s.scratch.Plaza = value
	case "importeCheque":
		s.scratch.ImporteCheque = value
	case "fecha":
		s.scratch.Fecha = format.MaskDate(value)
	case "efectivo":
		s.scratch.Efectivo = value
	case "neto":
		return errors.New("neto is derived, not editable")
	default:
		return fmt.Errorf("unknown item field %q", field)
	}
	if field == "importe" || field == "descuento" {
		net := ComputeNet(format.ParseAmount(s.scratch.Importe), format.ParseAmount(s.scratch.Descuento))
		s.scratch.Neto = strconv.FormatFloat(net, 'f', -1, 64)
	}
	return nil
}

// CommitItem moves the scratch row into the ledger: appended when composing,
// written back in place when editing. Only the customer name is required; a
// row can carry just a cheque or just cash, and blank amounts parse to zero
// at submit time. The scratch row and edit index reset either way.
func (s *Session) CommitItem() error {
	if s.scratch.NombreCliente == "" {
		return errors.New("item needs a customer name")
	}
	if s.editIdx != nil {
		s.data.Items[*s.editIdx] = s.scratch
	} else {
		s.data.Items = append(s.data.Items, s.scratch)
	}
	s.scratch = domain.DraftItem{}
	s.editIdx = nil
	return nil
}

// BeginEdit copies row i into the scratch slot. Starting an edit while
// another is pending abandons the pending one; the ledger row it pointed at
// is untouched.
func (s *Session) BeginEdit(i int) error {
	if i < 0 || i >= len(s.data.Items) {
		return fmt.Errorf("no item at index %d", i)
	}
	s.scratch = s.data.Items[i]
	idx := i
	s.editIdx = &idx
	return nil
}

// CancelEdit discards the scratch row and leaves the ledger as it was.
func (s *Session) CancelEdit() {
	s.scratch = domain.DraftItem{}
	s.editIdx = nil
}

// RemoveItem deletes a committed row. Removing the row under edit cancels
// the edit; removing an earlier row shifts the edit index down so it keeps
// pointing at the same row.
func (s *Session) RemoveItem(i int) error {
	if i < 0 || i >= len(s.data.Items) {
		return fmt.Errorf("no item at index %d", i)
	}
	s.data.Items = append(s.data.Items[:i], s.data.Items[i+1:]...)
	if s.editIdx != nil {
		switch {
		case *s.editIdx == i:
			s.CancelEdit()
		case *s.editIdx > i:
			*s.editIdx--
		}
	}
	return nil
}

// Totals sums the committed rows.
func (s *Session) Totals() Totals {
	var t Totals
	for _, it := range s.data.Items {
		t.Importe += format.ParseAmount(it.Importe)
		t.Descuento += format.ParseAmount(it.Descuento)
		t.Neto += ComputeNet(format.ParseAmount(it.Importe), format.ParseAmount(it.Descuento))
		t.Cheques += format.ParseAmount(it.ImporteCheque)
		t.Efectivo += format.ParseAmount(it.Efectivo)
	}
	return t
}

// Validate reports the first missing requirement for submission, in the
// order the user fills the form: client, sheet type, then items.
func (s *Session) Validate() error {
	if s.data.SelectedClient == "" {
		return ErrClientRequired
	}
	if s.data.TipoPlanilla != domain.TipoPlanillaA && s.data.TipoPlanilla != domain.TipoPlanillaB {
		return ErrTipoRequired
	}
	if len(s.data.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

// OrderRequest converts the session into a submission payload, parsing the
// typed amounts and recomputing each row's net from its parsed parts.
func (s *Session) OrderRequest() (domain.OrderRequest, error) {
	if err := s.Validate(); err != nil {
		return domain.OrderRequest{}, err
	}
	req := domain.OrderRequest{
		Client:        s.data.SelectedClient,
		Vendedor:      s.data.Vendedor,
		TipoPlanilla:  s.data.TipoPlanilla,
		Observaciones: s.data.Observaciones,
		Comisiones:    format.ParseAmount(s.data.Comisiones),
		FechaPlanilla: s.data.FechaPlanilla,
	}
	for _, it := range s.data.Items {
		importe := format.ParseAmount(it.Importe)
		descuento := format.ParseAmount(it.Descuento)
		req.Items = append(req.Items, domain.Item{
			NombreCliente: it.NombreCliente,
			FacturaNumero: it.FacturaNumero,
			Importe:       importe,
			Descuento:     descuento,
			Neto:          ComputeNet(importe, descuento),
			ChequeNumero:  it.ChequeNumero,
			Banco:         it.Banco,
			Plaza:         it.Plaza,
			ImporteCheque: format.ParseAmount(it.ImporteCheque),
			Fecha:         it.Fecha,
			Efectivo:      format.ParseAmount(it.Efectivo),
		})
	}
	return req, nil
}
