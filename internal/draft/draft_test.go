package draft

import (
	"errors"
	"testing"
	"time"

	"planillas/backend/internal/domain"
)

func addItem(t *testing.T, s *Session, name, importe, descuento string) {
	t.Helper()
	if err := s.SetItemField("nombreCliente", name); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := s.SetItemField("importe", importe); err != nil {
		t.Fatalf("set importe: %v", err)
	}
	if descuento != "" {
		if err := s.SetItemField("descuento", descuento); err != nil {
			t.Fatalf("set descuento: %v", err)
		}
	}
	if err := s.CommitItem(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestStartNewDefaults(t *testing.T) {
	vendedores := []domain.Vendedor{
		{ID: "ven-norte", Nombre: "Carlos Medina"},
		{ID: "ven-sur", Nombre: "Laura Benítez"},
	}
	today := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	s := StartNew(vendedores, today)
	blob := s.Blob()
	if blob.Vendedor != "ven-norte" {
		t.Fatalf("first seller should be preselected, got %q", blob.Vendedor)
	}
	if blob.FechaPlanilla != "05/03/2026" {
		t.Fatalf("fecha = %q, want 05/03/2026", blob.FechaPlanilla)
	}

	empty := StartNew(nil, today)
	if empty.Blob().Vendedor != "" {
		t.Fatalf("no sellers should leave vendedor empty, got %q", empty.Blob().Vendedor)
	}
}

func TestNetFollowsAmountAndDiscount(t *testing.T) {
	s := NewSession()
	s.SetItemField("importe", "100")
	if s.Scratch().Neto != "100" {
		t.Fatalf("neto after importe = %q, want 100", s.Scratch().Neto)
	}
	s.SetItemField("descuento", "12.5")
	if s.Scratch().Neto != "87.5" {
		t.Fatalf("neto after descuento = %q, want 87.5", s.Scratch().Neto)
	}
	if err := s.SetItemField("neto", "999"); err == nil {
		t.Fatal("direct neto write should be rejected")
	}
}

func TestCommitAppendsAndResetsScratch(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "10")
	if len(s.Items()) != 1 {
		t.Fatalf("items = %d, want 1", len(s.Items()))
	}
	if s.Scratch() != (domain.DraftItem{}) {
		t.Fatalf("scratch not reset: %+v", s.Scratch())
	}
	if _, editing := s.Editing(); editing {
		t.Fatal("fresh commit should leave no edit pending")
	}
}

func TestCommitRequiresOnlyCustomerName(t *testing.T) {
	s := NewSession()
	if err := s.CommitItem(); err == nil {
		t.Fatal("empty scratch row should not commit")
	}
	s.SetItemField("nombreCliente", "Acme")
	if err := s.CommitItem(); err != nil {
		t.Fatalf("name-only row should commit, got %v", err)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("items = %d, want 1", len(s.Items()))
	}
}

func TestCommitCheckOnlyRow(t *testing.T) {
	s := NewSession()
	s.SetClient("c1")
	s.SetTipoPlanilla(domain.TipoPlanillaA)
	s.SetItemField("nombreCliente", "Acme")
	s.SetItemField("chequeNumero", "445")
	s.SetItemField("importeCheque", "500")
	if err := s.CommitItem(); err != nil {
		t.Fatalf("check-only row should commit, got %v", err)
	}

	req, err := s.OrderRequest()
	if err != nil {
		t.Fatalf("order request: %v", err)
	}
	it := req.Items[0]
	if it.Importe != 0 || it.Neto != 0 {
		t.Fatalf("blank amounts should parse to zero: %+v", it)
	}
	if it.ImporteCheque != 500 {
		t.Fatalf("importeCheque = %v, want 500", it.ImporteCheque)
	}
}

func TestEditWritesBackInPlace(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "")
	addItem(t, s, "Globex", "200", "")

	if err := s.BeginEdit(0); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	s.SetItemField("importe", "150")
	if err := s.CommitItem(); err != nil {
		t.Fatalf("commit edit: %v", err)
	}
	if len(s.Items()) != 2 {
		t.Fatalf("edit must not grow the ledger, items = %d", len(s.Items()))
	}
	if s.Items()[0].Importe != "150" || s.Items()[1].Importe != "200" {
		t.Fatalf("unexpected rows after edit: %+v", s.Items())
	}
}

func TestBeginEditReplacesPendingEdit(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "")
	addItem(t, s, "Globex", "200", "")

	s.BeginEdit(0)
	s.SetItemField("importe", "999")
	s.BeginEdit(1)
	if s.Items()[0].Importe != "100" {
		t.Fatalf("abandoned edit leaked into row 0: %+v", s.Items()[0])
	}
	if idx, ok := s.Editing(); !ok || idx != 1 {
		t.Fatalf("edit index = %d/%v, want 1", idx, ok)
	}
	if s.Scratch().NombreCliente != "Globex" {
		t.Fatalf("scratch should hold row 1, got %+v", s.Scratch())
	}
}

func TestCancelEditKeepsLedger(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "")
	s.BeginEdit(0)
	s.SetItemField("importe", "1")
	s.CancelEdit()
	if s.Items()[0].Importe != "100" {
		t.Fatalf("cancel changed the ledger: %+v", s.Items()[0])
	}
	if _, editing := s.Editing(); editing {
		t.Fatal("cancel should clear the edit index")
	}
}

func TestRemoveAdjustsEditIndex(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "")
	addItem(t, s, "Globex", "200", "")
	addItem(t, s, "Initech", "300", "")

	s.BeginEdit(2)
	if err := s.RemoveItem(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if idx, ok := s.Editing(); !ok || idx != 1 {
		t.Fatalf("edit index after remove = %d/%v, want 1", idx, ok)
	}

	if err := s.RemoveItem(1); err != nil {
		t.Fatalf("remove edited row: %v", err)
	}
	if _, editing := s.Editing(); editing {
		t.Fatal("removing the edited row should cancel the edit")
	}
	if len(s.Items()) != 1 || s.Items()[0].NombreCliente != "Globex" {
		t.Fatalf("unexpected ledger: %+v", s.Items())
	}
}

func TestTotalsIgnoreScratch(t *testing.T) {
	s := NewSession()
	addItem(t, s, "Acme", "100", "10")
	addItem(t, s, "Globex", "200.5", "")
	s.SetItemField("nombreCliente", "pending")
	s.SetItemField("importe", "9999")

	tot := s.Totals()
	if tot.Importe != 300.5 {
		t.Fatalf("importe total = %v, want 300.5", tot.Importe)
	}
	if tot.Descuento != 10 {
		t.Fatalf("descuento total = %v, want 10", tot.Descuento)
	}
	if tot.Neto != 290.5 {
		t.Fatalf("neto total = %v, want 290.5", tot.Neto)
	}
}

func TestValidateNamesFirstGap(t *testing.T) {
	s := NewSession()
	if err := s.Validate(); !errors.Is(err, ErrClientRequired) {
		t.Fatalf("want client error, got %v", err)
	}
	s.SetClient("c1")
	if err := s.Validate(); !errors.Is(err, ErrTipoRequired) {
		t.Fatalf("want tipo error, got %v", err)
	}
	s.SetTipoPlanilla("X")
	if err := s.Validate(); !errors.Is(err, ErrTipoRequired) {
		t.Fatalf("invalid tipo should still fail, got %v", err)
	}
	s.SetTipoPlanilla(domain.TipoPlanillaA)
	if err := s.Validate(); !errors.Is(err, ErrNoItems) {
		t.Fatalf("want items error, got %v", err)
	}
	addItem(t, s, "Acme", "100", "")
	if err := s.Validate(); err != nil {
		t.Fatalf("complete draft should validate, got %v", err)
	}
}

func TestOrderRequestParsesAmounts(t *testing.T) {
	s := NewSession()
	s.SetClient("c1")
	s.SetVendedor("v1")
	s.SetTipoPlanilla(domain.TipoPlanillaA)
	s.SetComisiones("12.5")
	addItem(t, s, "Acme", "100.75", "0.75")

	req, err := s.OrderRequest()
	if err != nil {
		t.Fatalf("order request: %v", err)
	}
	if req.Comisiones != 12.5 {
		t.Fatalf("comisiones = %v", req.Comisiones)
	}
	it := req.Items[0]
	if it.Importe != 100.75 || it.Descuento != 0.75 || it.Neto != 100 {
		t.Fatalf("unexpected item conversion: %+v", it)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	s := NewSession()
	s.SetClient("c1")
	s.SetTipoPlanilla(domain.TipoPlanillaB)
	s.SetFechaPlanilla("15032024")
	addItem(t, s, "Acme", "100", "")

	restored := FromBlob(s.Blob())
	if err := restored.Validate(); err != nil {
		t.Fatalf("restored draft should validate, got %v", err)
	}
	if restored.Blob().FechaPlanilla != "15/03/2024" {
		t.Fatalf("fecha = %q", restored.Blob().FechaPlanilla)
	}
	if len(restored.Items()) != 1 {
		t.Fatalf("items = %d", len(restored.Items()))
	}
}

func TestFromOrderRendersNumbers(t *testing.T) {
	s := FromOrder(domain.Order{
		ClientID:     "c1",
		VendedorID:   "v1",
		TipoPlanilla: domain.TipoPlanillaA,
		Items: []domain.Item{{
			NombreCliente: "Acme",
			Importe:       100.5,
			Descuento:     0,
			Neto:          100.5,
		}},
	})
	it := s.Items()[0]
	if it.Importe != "100.5" {
		t.Fatalf("importe = %q", it.Importe)
	}
	if it.Descuento != "" {
		t.Fatalf("zero descuento should stay empty, got %q", it.Descuento)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("loaded order should validate, got %v", err)
	}
}
