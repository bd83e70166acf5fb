package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/draftstore"
	"planillas/backend/internal/mailer"
	"planillas/backend/internal/store"
	"planillas/backend/internal/store/memory"
)

type captureSender struct {
	sent []mailer.Message
	fail error
}

func (c *captureSender) Send(msg mailer.Message) error {
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *captureSender) {
	t.Helper()
	sender := &captureSender{}
	svc := New(memory.NewSeeded(), draftstore.NewMemoryStore(7*24*time.Hour), sender, 7*24*time.Hour)
	return svc, sender
}

func actorCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Email: "admin@planillas.local", Name: "Administrador", Role: "admin"})
}

func validOrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Client:       "cli-lacteos",
		Vendedor:     "ven-norte",
		TipoPlanilla: domain.TipoPlanillaA,
		Items: []domain.Item{
			{NombreCliente: "Cliente Final", Importe: 100, Descuento: 10},
		},
		FechaPlanilla: "15/03/2024",
	}
}

func TestCreateOrderAssignsNumberAndNet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.OrderNumber != "ORD-000001" {
		t.Fatalf("order number = %q", created.OrderNumber)
	}
	if created.Items[0].Neto != 90 {
		t.Fatalf("neto should be recomputed server-side, got %v", created.Items[0].Neto)
	}
	if created.Client == nil || created.Client.Name != "Lácteos del Valle" {
		t.Fatalf("client reference not resolved: %+v", created.Client)
	}

	second, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if second.OrderNumber != "ORD-000002" {
		t.Fatalf("second order number = %q", second.OrderNumber)
	}
}

func TestCreateOrderValidationOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	req := validOrderRequest()
	req.Client = ""
	req.TipoPlanilla = ""
	req.Items = nil
	_, err := svc.CreateOrder(ctx, req)
	if err == nil || !strings.Contains(err.Error(), "client") {
		t.Fatalf("expected the client gap first, got %v", err)
	}

	req.Client = "cli-lacteos"
	_, err = svc.CreateOrder(ctx, req)
	if err == nil || !strings.Contains(err.Error(), "tipoPlanilla") {
		t.Fatalf("expected the tipo gap next, got %v", err)
	}

	req.TipoPlanilla = domain.TipoPlanillaB
	_, err = svc.CreateOrder(ctx, req)
	if err == nil || !strings.Contains(err.Error(), "item") {
		t.Fatalf("expected the items gap last, got %v", err)
	}
	if !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("validation failures must map to ErrInvalid, got %v", err)
	}
}

func TestCreateOrderAcceptsCheckOnlyItem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	req := validOrderRequest()
	req.Items = []domain.Item{
		{NombreCliente: "Acme", ChequeNumero: "445", Banco: "Nación", ImporteCheque: 500},
	}
	created, err := svc.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("check-only item should be accepted, got %v", err)
	}
	it := created.Items[0]
	if it.Importe != 0 || it.Neto != 0 {
		t.Fatalf("absent amounts should stay zero: %+v", it)
	}
	if it.ImporteCheque != 500 {
		t.Fatalf("importeCheque = %v, want 500", it.ImporteCheque)
	}
}

func TestCreateOrderClearsDraftSlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.SaveDraft(ctx, domain.Draft{SelectedClient: "cli-lacteos"}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, found, _ := svc.GetDraft(ctx); !found {
		t.Fatal("draft should be saved")
	}

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, found, _ := svc.GetDraft(ctx); found {
		t.Fatal("submission should consume the draft slot")
	}
}

func TestUpdateOrderKeepsNumber(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	req := validOrderRequest()
	req.TipoPlanilla = domain.TipoPlanillaB
	updated, err := svc.UpdateOrder(ctx, created.ID, req)
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if updated.OrderNumber != created.OrderNumber {
		t.Fatalf("order number must survive updates: %q vs %q", updated.OrderNumber, created.OrderNumber)
	}
	if updated.TipoPlanilla != domain.TipoPlanillaB {
		t.Fatalf("tipo not updated: %q", updated.TipoPlanilla)
	}
}

func TestDraftExpiresAfterTTL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	base := time.Now()
	svc.now = func() time.Time { return base }
	if _, err := svc.SaveDraft(ctx, domain.Draft{SelectedClient: "cli-lacteos"}); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	svc.now = func() time.Time { return base.Add(6 * 24 * time.Hour) }
	if _, found, err := svc.GetDraft(ctx); err != nil || !found {
		t.Fatalf("day-six draft should load: found=%v err=%v", found, err)
	}

	svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	if _, found, _ := svc.GetDraft(ctx); found {
		t.Fatal("day-eight draft should be discarded")
	}
	if _, found, _ := svc.GetDraft(ctx); found {
		t.Fatal("discarded draft must stay gone")
	}
}

func TestDraftRequiresActor(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SaveDraft(context.Background(), domain.Draft{}); err == nil {
		t.Fatal("draft access without an actor should fail")
	}
}

func TestListOrdersPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	for i := 0; i < 25; i++ {
		if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
	}

	resp, err := svc.ListOrders(ctx, domain.OrderFilter{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Pagination.Total != 25 || resp.Pagination.Pages != 3 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
	if len(resp.Orders) != 10 {
		t.Fatalf("page size = %d", len(resp.Orders))
	}

	last, err := svc.ListOrders(ctx, domain.OrderFilter{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(last.Orders) != 5 {
		t.Fatalf("last page size = %d", len(last.Orders))
	}
}

func TestListOrdersFilterByVendedor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := validOrderRequest()
	other.Client = "cli-ferreteria"
	other.Vendedor = "ven-sur"
	if _, err := svc.CreateOrder(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	resp, err := svc.ListOrders(ctx, domain.OrderFilter{Vendedor: "ven-sur", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Pagination.Total != 1 || resp.Orders[0].VendedorID != "ven-sur" {
		t.Fatalf("filter leak: %+v", resp.Pagination)
	}
}

func TestSalesBySellerZeroSubstitution(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.SalesBySeller(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("sales by seller: %v", err)
	}
	if len(resp.Sellers) != 3 {
		t.Fatalf("all sellers must appear, got %d", len(resp.Sellers))
	}
	var idle int
	for _, seller := range resp.Sellers {
		if seller.OrderCount == 0 {
			idle++
			if seller.TotalNeto != 0 || seller.TotalImporte != 0 {
				t.Fatalf("idle seller should report zeros: %+v", seller)
			}
		}
	}
	if idle != 2 {
		t.Fatalf("expected two idle sellers, got %d", idle)
	}
	if resp.Summary.TotalOrders != 1 || resp.Summary.TotalNeto != 90 {
		t.Fatalf("summary = %+v", resp.Summary)
	}
}

func TestSalesBySellerDateRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	resp, err := svc.SalesBySeller(ctx, tomorrow, time.Time{})
	if err != nil {
		t.Fatalf("sales by seller: %v", err)
	}
	if resp.Summary.TotalOrders != 0 {
		t.Fatalf("future range should match nothing, got %d", resp.Summary.TotalOrders)
	}

	resp, err = svc.SalesBySeller(ctx, time.Now().UTC().Add(-time.Hour), tomorrow)
	if err != nil {
		t.Fatalf("sales by seller: %v", err)
	}
	if resp.Summary.TotalOrders != 1 {
		t.Fatalf("range covering now should match the order, got %d", resp.Summary.TotalOrders)
	}
}

func TestTimeAnalysisCoversAllMonths(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	year := time.Now().UTC().Year()
	resp, err := svc.TimeAnalysis(ctx, 0)
	if err != nil {
		t.Fatalf("time analysis: %v", err)
	}
	if resp.Year != year {
		t.Fatalf("year default = %d, want %d", resp.Year, year)
	}
	if len(resp.Months) != 12 {
		t.Fatalf("months = %d", len(resp.Months))
	}
	if resp.Months[0].MonthName != "Enero" || resp.Months[11].MonthName != "Diciembre" {
		t.Fatalf("month names wrong: %+v", resp.Months)
	}
	var withOrders int
	for _, month := range resp.Months {
		if month.Orders > 0 {
			withOrders++
			if month.Neto != 90 {
				t.Fatalf("neto = %v", month.Neto)
			}
		}
	}
	if withOrders != 1 {
		t.Fatalf("expected a single active month, got %d", withOrders)
	}
}

func TestTrendingRanksByCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	other := validOrderRequest()
	other.Client = "cli-ferreteria"
	other.Items = []domain.Item{{NombreCliente: "Un Nombre De Cliente Extremadamente Largo Para El Grafico", Importe: 50}}
	if _, err := svc.CreateOrder(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	resp, err := svc.Trending(ctx, 5)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if resp.TopClients[0].Name != "Lácteos del Valle" || resp.TopClients[0].OrderCount != 3 {
		t.Fatalf("top client = %+v", resp.TopClients[0])
	}
	for _, p := range resp.TopProducts {
		if len([]rune(p.ProductName)) > 30 && !strings.HasSuffix(p.ChartLabel, "...") {
			t.Fatalf("product label not truncated: %+v", p)
		}
	}
}

func TestOverviewCounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	if _, err := svc.CreateOrder(ctx, validOrderRequest()); err != nil {
		t.Fatalf("create A: %v", err)
	}
	b := validOrderRequest()
	b.TipoPlanilla = domain.TipoPlanillaB
	if _, err := svc.CreateOrder(ctx, b); err != nil {
		t.Fatalf("create B: %v", err)
	}

	resp, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if resp.TotalOrders != 2 || resp.PlanillasA != 1 || resp.TotalClients != 3 {
		t.Fatalf("overview = %+v", resp)
	}
	if resp.TotalNeto != 180 {
		t.Fatalf("total neto = %v", resp.TotalNeto)
	}
	if len(resp.RecentOrders) != 2 {
		t.Fatalf("recent orders = %d", len(resp.RecentOrders))
	}
}

func TestEmailOrderRequiresAttachment(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.EmailOrder(ctx, created.ID, domain.EmailOrderRequest{To: "dest@example.com"})
	if !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("no-attachment mail should be invalid, got %v", err)
	}
	err = svc.EmailOrder(ctx, created.ID, domain.EmailOrderRequest{AttachExcel: true})
	if !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("missing recipient should be invalid, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should have been sent, got %d", len(sender.sent))
	}
}

func TestEmailOrderSendsAttachments(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.EmailOrder(ctx, created.ID, domain.EmailOrderRequest{
		To:          "dest@example.com",
		AttachExcel: true,
		AttachPDF:   true,
	})
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if len(msg.Attachments) != 2 {
		t.Fatalf("attachments = %d", len(msg.Attachments))
	}
	if msg.Subject != "Planilla "+created.OrderNumber {
		t.Fatalf("default subject = %q", msg.Subject)
	}
}

func TestClientCRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateClient(ctx, domain.ClientRequest{
		Name:     "Nuevo Cliente",
		Vendedor: "ven-norte",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	if _, err := svc.CreateClient(ctx, domain.ClientRequest{}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("nameless client should be invalid, got %v", err)
	}

	updated, err := svc.UpdateClient(ctx, created.ID, domain.ClientRequest{Name: "Cliente Renombrado"})
	if err != nil {
		t.Fatalf("update client: %v", err)
	}
	if updated.Name != "Cliente Renombrado" {
		t.Fatalf("name = %q", updated.Name)
	}

	if err := svc.DeleteClient(ctx, created.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if _, err := svc.GetClient(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted client should be gone, got %v", err)
	}
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorCtx()

	created, err := svc.CreateOrder(ctx, validOrderRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteOrder(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	logs, err := svc.ListAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	actions := make(map[string]bool, len(logs))
	for _, entry := range logs {
		actions[entry.Action] = true
		if entry.Actor != "admin@planillas.local" {
			t.Fatalf("actor = %q", entry.Actor)
		}
	}
	if !actions["order_create"] || !actions["order_delete"] {
		t.Fatalf("missing audit actions: %v", actions)
	}
}

func TestListAuditLogsRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := WithActor(context.Background(), domain.Actor{Email: "user@planillas.local", Role: "user"})
	if _, err := svc.ListAuditLogs(ctx, 10); err == nil {
		t.Fatal("non-admin audit access should fail")
	}
}
