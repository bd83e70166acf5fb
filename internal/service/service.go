package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/draftstore"
	"planillas/backend/internal/export"
	"planillas/backend/internal/format"
	"planillas/backend/internal/mailer"
	"planillas/backend/internal/store"
	"planillas/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	sellerLabelMax  = 15
	clientLabelMax  = 20
	productLabelMax = 30

	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	repo     store.Repository
	drafts   draftstore.Store
	mail     mailer.Sender
	draftTTL time.Duration

	now func() time.Time
}

func New(repo store.Repository, drafts draftstore.Store, mail mailer.Sender, draftTTL time.Duration) *Service {
	if draftTTL <= 0 {
		draftTTL = 7 * 24 * time.Hour
	}
	if mail == nil {
		mail = mailer.Noop{}
	}

	return &Service{
		repo:     repo,
		drafts:   drafts,
		mail:     mail,
		draftTTL: draftTTL,
		now:      time.Now,
	}
}

func (s *Service) ListClients(ctx context.Context, search string) ([]domain.Client, error) {
	return s.repo.ListClients(ctx, search)
}

func (s *Service) GetClient(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.repo.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) CreateClient(ctx context.Context, req domain.ClientRequest) (domain.Client, error) {
	client, err := clientFromRequest(req)
	if err != nil {
		return domain.Client{}, err
	}
	client.ID = xid.New("cli")

	created, err := s.repo.CreateClient(ctx, client)
	if err != nil {
		return domain.Client{}, err
	}

	s.logAudit(ctx, "client_create", "client", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, req domain.ClientRequest) (domain.Client, error) {
	client, err := clientFromRequest(req)
	if err != nil {
		return domain.Client{}, err
	}
	client.ID = id

	updated, err := s.repo.UpdateClient(ctx, client)
	if err != nil {
		return domain.Client{}, err
	}

	s.logAudit(ctx, "client_update", "client", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "client_delete", "client", id, "")
	return nil
}

func clientFromRequest(req domain.ClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, fmt.Errorf("%w: client name is required", store.ErrInvalid)
	}
	return domain.Client{
		Name:       name,
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Company:    strings.TrimSpace(req.Company),
		VendedorID: strings.TrimSpace(req.Vendedor),
		Address:    req.Address,
		TaxID:      strings.TrimSpace(req.TaxID),
		Notes:      req.Notes,
	}, nil
}

func (s *Service) ListVendedores(ctx context.Context) ([]domain.Vendedor, error) {
	return s.repo.ListVendedores(ctx)
}

// validateOrderRequest checks a submission in the order the form is filled:
// the client comes first, then the sheet type, then the items. Each item
// needs only a customer name; amounts may be absent (a row can be cheque-only
// or cash-only) and the net of every row is recomputed server-side so a
// tampered payload cannot skew totals.
func (s *Service) validateOrderRequest(ctx context.Context, req *domain.OrderRequest) error {
	req.Client = strings.TrimSpace(req.Client)
	if req.Client == "" {
		return fmt.Errorf("%w: client is required", store.ErrInvalid)
	}
	if _, err := s.repo.GetClientByID(ctx, req.Client); err != nil {
		return fmt.Errorf("%w: unknown client", store.ErrInvalid)
	}
	if req.TipoPlanilla != domain.TipoPlanillaA && req.TipoPlanilla != domain.TipoPlanillaB {
		return fmt.Errorf("%w: tipoPlanilla must be A or B", store.ErrInvalid)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", store.ErrInvalid)
	}
	req.Vendedor = strings.TrimSpace(req.Vendedor)
	if req.Vendedor != "" {
		if _, err := s.repo.GetVendedorByID(ctx, req.Vendedor); err != nil {
			return fmt.Errorf("%w: unknown vendedor", store.ErrInvalid)
		}
	}
	for i := range req.Items {
		item := &req.Items[i]
		item.NombreCliente = strings.TrimSpace(item.NombreCliente)
		if item.NombreCliente == "" {
			return fmt.Errorf("%w: item %d needs a customer name", store.ErrInvalid, i+1)
		}
		item.Neto = item.Importe - item.Descuento
		item.Fecha = format.MaskDate(item.Fecha)
	}
	req.FechaPlanilla = format.MaskDate(req.FechaPlanilla)
	return nil
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderView, error) {
	if err := s.validateOrderRequest(ctx, &req); err != nil {
		return domain.OrderView{}, err
	}

	number, err := s.repo.NextOrderNumber(ctx)
	if err != nil {
		return domain.OrderView{}, err
	}

	order := domain.Order{
		ID:            xid.New("ord"),
		OrderNumber:   number,
		ClientID:      req.Client,
		VendedorID:    req.Vendedor,
		TipoPlanilla:  req.TipoPlanilla,
		Items:         req.Items,
		Observaciones: req.Observaciones,
		Comisiones:    req.Comisiones,
		FechaPlanilla: req.FechaPlanilla,
		CreatedAt:     s.now().UTC(),
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderView{}, err
	}

	// A successful submission consumes the actor's draft slot.
	if actor, ok := ActorFromContext(ctx); ok {
		if err := s.drafts.Delete(ctx, actor.Email); err != nil {
			log.Printf("[service] WARN: failed to clear draft for %s: %v", actor.Email, err)
		}
	}

	s.logAudit(ctx, "order_create", "order", created.ID, "number="+created.OrderNumber)
	return s.resolveOrder(ctx, *created), nil
}

func (s *Service) UpdateOrder(ctx context.Context, id string, req domain.OrderRequest) (domain.OrderView, error) {
	if err := s.validateOrderRequest(ctx, &req); err != nil {
		return domain.OrderView{}, err
	}

	existing, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderView{}, err
	}

	order := *existing
	order.ClientID = req.Client
	order.VendedorID = req.Vendedor
	order.TipoPlanilla = req.TipoPlanilla
	order.Items = req.Items
	order.Observaciones = req.Observaciones
	order.Comisiones = req.Comisiones
	order.FechaPlanilla = req.FechaPlanilla

	updated, err := s.repo.UpdateOrder(ctx, order)
	if err != nil {
		return domain.OrderView{}, err
	}

	s.logAudit(ctx, "order_update", "order", updated.ID, "number="+updated.OrderNumber)
	return s.resolveOrder(ctx, *updated), nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "order_delete", "order", id, "")
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.OrderView, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderView{}, err
	}
	return s.resolveOrder(ctx, *order), nil
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	orders, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return domain.OrderListResponse{}, err
	}

	views := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, s.resolveOrder(ctx, o))
	}

	pages := total / filter.Limit
	if total%filter.Limit != 0 {
		pages++
	}
	return domain.OrderListResponse{
		Orders: views,
		Pagination: domain.Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// resolveOrder attaches the client and seller records. A dangling reference
// leaves the field nil rather than failing the whole response.
func (s *Service) resolveOrder(ctx context.Context, order domain.Order) domain.OrderView {
	view := domain.OrderView{Order: order}
	if order.ClientID != "" {
		if client, err := s.repo.GetClientByID(ctx, order.ClientID); err == nil {
			view.Client = client
		}
	}
	if order.VendedorID != "" {
		if vendedor, err := s.repo.GetVendedorByID(ctx, order.VendedorID); err == nil {
			view.Vendedor = vendedor
		}
	}
	return view
}

func (s *Service) draftScope(ctx context.Context) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Email == "" {
		return "", fmt.Errorf("no authenticated actor")
	}
	return actor.Email, nil
}

// GetDraft returns the caller's saved draft, if still fresh. A blob older
// than the TTL is discarded on read, so the reply is found=false and the
// slot comes back empty.
func (s *Service) GetDraft(ctx context.Context) (*domain.Draft, bool, error) {
	scope, err := s.draftScope(ctx)
	if err != nil {
		return nil, false, err
	}

	d, found, err := s.drafts.Get(ctx, scope)
	if err != nil || !found {
		return nil, false, err
	}

	if d.Timestamp > 0 {
		age := s.now().Sub(time.UnixMilli(d.Timestamp))
		if age > s.draftTTL {
			if err := s.drafts.Delete(ctx, scope); err != nil {
				log.Printf("[service] WARN: failed to delete stale draft for %s: %v", scope, err)
			}
			return nil, false, nil
		}
	}
	return d, true, nil
}

// SaveDraft overwrites the caller's single draft slot and stamps it with
// the write time.
func (s *Service) SaveDraft(ctx context.Context, d domain.Draft) (domain.Draft, error) {
	scope, err := s.draftScope(ctx)
	if err != nil {
		return domain.Draft{}, err
	}

	d.Timestamp = s.now().UnixMilli()
	if err := s.drafts.Set(ctx, scope, &d); err != nil {
		return domain.Draft{}, err
	}
	return d, nil
}

func (s *Service) DeleteDraft(ctx context.Context) error {
	scope, err := s.draftScope(ctx)
	if err != nil {
		return err
	}
	return s.drafts.Delete(ctx, scope)
}

func (s *Service) allOrders(ctx context.Context) ([]domain.Order, error) {
	orders, _, err := s.repo.ListOrders(ctx, domain.OrderFilter{SortBy: "createdAt"})
	return orders, err
}

// SalesBySeller aggregates per-seller totals, optionally restricted to
// orders created within [from, to]. Zero bounds mean unbounded.
func (s *Service) SalesBySeller(ctx context.Context, from, to time.Time) (domain.SalesBySellerResponse, error) {
	orders, err := s.allOrders(ctx)
	if err != nil {
		return domain.SalesBySellerResponse{}, err
	}
	orders = filterByCreated(orders, from, to)
	vendedores, err := s.repo.ListVendedores(ctx)
	if err != nil {
		return domain.SalesBySellerResponse{}, err
	}

	byID := make(map[string]*domain.SellerStats, len(vendedores))
	resp := domain.SalesBySellerResponse{Sellers: make([]domain.SellerStats, 0, len(vendedores))}
	for _, v := range vendedores {
		resp.Sellers = append(resp.Sellers, domain.SellerStats{
			Name:       v.Nombre,
			ChartLabel: format.TruncateLabel(v.Nombre, sellerLabelMax),
		})
		byID[v.ID] = &resp.Sellers[len(resp.Sellers)-1]
	}

	for _, o := range orders {
		stats, ok := byID[o.VendedorID]
		if !ok {
			continue
		}
		stats.OrderCount++
		stats.TotalComisiones += o.Comisiones
		for _, item := range o.Items {
			stats.TotalImporte += item.Importe
			stats.TotalDescuento += item.Descuento
			stats.TotalNeto += item.Neto
			stats.TotalCheques += item.ImporteCheque
			stats.TotalEfectivo += item.Efectivo
		}
	}

	resp.Summary.TotalOrders = len(orders)
	for _, o := range orders {
		resp.Summary.TotalComisiones += o.Comisiones
		for _, item := range o.Items {
			resp.Summary.TotalImporte += item.Importe
			resp.Summary.TotalDescuento += item.Descuento
			resp.Summary.TotalNeto += item.Neto
			resp.Summary.TotalCheques += item.ImporteCheque
			resp.Summary.TotalEfectivo += item.Efectivo
		}
	}

	sort.SliceStable(resp.Sellers, func(i, j int) bool {
		return resp.Sellers[i].TotalNeto > resp.Sellers[j].TotalNeto
	})
	return resp, nil
}

func filterByCreated(orders []domain.Order, from, to time.Time) []domain.Order {
	if from.IsZero() && to.IsZero() {
		return orders
	}
	kept := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CreatedAt.After(to) {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

var monthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// TimeAnalysis reports order volume and net per calendar month of one year.
// Every month is present even when empty, so chart axes stay stable.
func (s *Service) TimeAnalysis(ctx context.Context, year int) (domain.TimeAnalysisResponse, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}

	orders, err := s.allOrders(ctx)
	if err != nil {
		return domain.TimeAnalysisResponse{}, err
	}

	resp := domain.TimeAnalysisResponse{Year: year, Months: make([]domain.MonthStats, 12)}
	for i := range resp.Months {
		resp.Months[i] = domain.MonthStats{Month: i + 1, MonthName: monthNames[i]}
	}

	for _, o := range orders {
		created := o.CreatedAt.UTC()
		if created.Year() != year {
			continue
		}
		stats := &resp.Months[int(created.Month())-1]
		stats.Orders++
		for _, item := range o.Items {
			stats.Neto += item.Neto
		}
	}
	return resp, nil
}

// Trending ranks the most frequent clients and the most frequent item-level
// customer names across all orders, limit entries each (default five).
func (s *Service) Trending(ctx context.Context, limit int) (domain.TrendingResponse, error) {
	if limit < 1 {
		limit = 5
	}
	orders, err := s.allOrders(ctx)
	if err != nil {
		return domain.TrendingResponse{}, err
	}

	clientCounts := make(map[string]int)
	productCounts := make(map[string]int)
	for _, o := range orders {
		if o.ClientID != "" {
			clientCounts[o.ClientID]++
		}
		for _, item := range o.Items {
			if item.NombreCliente != "" {
				productCounts[item.NombreCliente]++
			}
		}
	}

	resp := domain.TrendingResponse{
		TopClients:  []domain.TrendingClient{},
		TopProducts: []domain.TrendingProduct{},
	}
	for id, count := range clientCounts {
		name := id
		if client, err := s.repo.GetClientByID(ctx, id); err == nil {
			name = client.Name
		}
		resp.TopClients = append(resp.TopClients, domain.TrendingClient{
			Name:       name,
			ChartLabel: format.TruncateLabel(name, clientLabelMax),
			OrderCount: count,
		})
	}
	for name, count := range productCounts {
		resp.TopProducts = append(resp.TopProducts, domain.TrendingProduct{
			ProductName: name,
			ChartLabel:  format.TruncateLabel(name, productLabelMax),
			OrderCount:  count,
		})
	}

	sort.Slice(resp.TopClients, func(i, j int) bool {
		if resp.TopClients[i].OrderCount != resp.TopClients[j].OrderCount {
			return resp.TopClients[i].OrderCount > resp.TopClients[j].OrderCount
		}
		return resp.TopClients[i].Name < resp.TopClients[j].Name
	})
	sort.Slice(resp.TopProducts, func(i, j int) bool {
		if resp.TopProducts[i].OrderCount != resp.TopProducts[j].OrderCount {
			return resp.TopProducts[i].OrderCount > resp.TopProducts[j].OrderCount
		}
		return resp.TopProducts[i].ProductName < resp.TopProducts[j].ProductName
	})
	if len(resp.TopClients) > limit {
		resp.TopClients = resp.TopClients[:limit]
	}
	if len(resp.TopProducts) > limit {
		resp.TopProducts = resp.TopProducts[:limit]
	}
	return resp, nil
}

func (s *Service) Overview(ctx context.Context) (domain.OverviewResponse, error) {
	orders, err := s.allOrders(ctx)
	if err != nil {
		return domain.OverviewResponse{}, err
	}
	totalClients, err := s.repo.CountClients(ctx)
	if err != nil {
		return domain.OverviewResponse{}, err
	}

	resp := domain.OverviewResponse{
		TotalClients: totalClients,
		TotalOrders:  len(orders),
		RecentOrders: []domain.OrderView{},
	}
	for _, o := range orders {
		if o.TipoPlanilla == domain.TipoPlanillaA {
			resp.PlanillasA++
		}
		for _, item := range o.Items {
			resp.TotalNeto += item.Neto
		}
	}
	for i := 0; i < len(orders) && i < 5; i++ {
		resp.RecentOrders = append(resp.RecentOrders, s.resolveOrder(ctx, orders[i]))
	}
	return resp, nil
}

func (s *Service) OrderExcel(ctx context.Context, id string) (string, []byte, error) {
	view, err := s.GetOrder(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, err := export.Excel(view)
	if err != nil {
		return "", nil, err
	}
	return export.ExcelFilename(view), data, nil
}

func (s *Service) OrderPDF(ctx context.Context, id string) ([]byte, error) {
	view, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.PrintableHTML(view), nil
}

// EmailOrder sends a planilla to a recipient with the requested exports
// attached. At least one attachment must be selected; a mail with neither
// would carry nothing the recipient can use.
func (s *Service) EmailOrder(ctx context.Context, id string, req domain.EmailOrderRequest) error {
	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		return fmt.Errorf("%w: recipient is required", store.ErrInvalid)
	}
	if !req.AttachExcel && !req.AttachPDF {
		return fmt.Errorf("%w: select at least one attachment", store.ErrInvalid)
	}

	view, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Planilla " + view.OrderNumber
	}
	msg := mailer.Message{
		To:      req.To,
		Subject: subject,
		Body:    req.Body,
	}
	if req.AttachExcel {
		data, err := export.Excel(view)
		if err != nil {
			return err
		}
		msg.Attachments = append(msg.Attachments, mailer.Attachment{
			Filename:    export.ExcelFilename(view),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		})
	}
	if req.AttachPDF {
		msg.Attachments = append(msg.Attachments, mailer.Attachment{
			Filename:    "Planilla - " + view.OrderNumber + ".html",
			ContentType: "text/html",
			Data:        export.PrintableHTML(view),
		})
	}

	if err := s.mail.Send(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logAudit(ctx, "order_email", "order", view.ID, "to="+req.To)
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserInfo, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.UserInfo, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, domain.UserInfo{
			Email:     account.Email,
			Name:      account.Name,
			Role:      account.Role,
			Active:    account.Active,
			CreatedAt: account.CreatedAt,
		})
	}
	return users, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Email: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		Actor:      actor.Email,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
