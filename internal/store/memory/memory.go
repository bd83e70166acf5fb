package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/store"
	"planillas/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	clientsByID  map[string]domain.Client
	vendedores   map[string]domain.Vendedor
	ordersByID   map[string]domain.Order
	orderSeq     int
	usersByEmail map[string]domain.UserAccount
	auditLogs    []domain.AuditLog
}

// seedUsers builds the initial in-memory accounts for dev/demo mode. The
// admin password is read from SEED_ADMIN_PASSWORD; if unset a hardcoded dev
// default is used with a warning printed to stdout. These credentials are
// never used in production (the backend uses PostgreSQL when DATABASE_URL
// is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD to override.")
	}

	now := time.Now().UTC()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	return map[string]domain.UserAccount{
		"admin@planillas.local": {
			Email:     "admin@planillas.local",
			Password:  string(hash),
			Name:      "Administrador",
			Role:      "admin",
			Active:    true,
			CreatedAt: now,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	vendedores := []domain.Vendedor{
		{ID: "ven-norte", Nombre: "Carlos Medina", RazonSocial: "Distribuidora Norte SRL", Direccion: "Av. Rivadavia 1250", Localidad: "San Miguel de Tucumán"},
		{ID: "ven-sur", Nombre: "Laura Benítez", RazonSocial: "Comercial Sur SA", Direccion: "Calle San Martín 480", Localidad: "Bahía Blanca"},
		{ID: "ven-litoral", Nombre: "Jorge Acosta", RazonSocial: "Acosta y Cía", Direccion: "Bv. Oroño 2210", Localidad: "Rosario"},
	}

	now := time.Now().UTC()
	clients := []domain.Client{
		{
			ID: "cli-lacteos", Name: "Lácteos del Valle", Email: "compras@lacteosdelvalle.com.ar",
			Phone: "381-455-0198", Company: "Lácteos del Valle SA", VendedorID: "ven-norte",
			Address:   domain.Address{Street: "Ruta 9 Km 1294", City: "Tucumán", State: "Tucumán", ZipCode: "4000", Country: "Argentina"},
			TaxID:     "30-68521479-3", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "cli-ferreteria", Name: "Ferretería Mitre", Email: "admin@ferreteriamitre.com",
			Phone: "291-483-2210", Company: "Ferretería Mitre SRL", VendedorID: "ven-sur",
			Address:   domain.Address{Street: "Mitre 735", City: "Bahía Blanca", State: "Buenos Aires", ZipCode: "8000", Country: "Argentina"},
			TaxID:     "30-71204856-9", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "cli-almacen", Name: "Almacén Central", Email: "pedidos@almacencentral.com.ar",
			Phone: "341-420-7765", Company: "Almacén Central", VendedorID: "ven-litoral",
			Address:   domain.Address{Street: "Córdoba 1510", City: "Rosario", State: "Santa Fe", ZipCode: "2000", Country: "Argentina"},
			TaxID:     "27-30958214-1", CreatedAt: now, UpdatedAt: now,
		},
	}

	vendedorMap := make(map[string]domain.Vendedor, len(vendedores))
	for _, v := range vendedores {
		vendedorMap[v.ID] = v
	}
	clientMap := make(map[string]domain.Client, len(clients))
	for _, c := range clients {
		clientMap[c.ID] = c
	}

	return &Store{
		clientsByID:  clientMap,
		vendedores:   vendedorMap,
		ordersByID:   make(map[string]domain.Order),
		usersByEmail: seedUsers(),
		auditLogs:    make([]domain.AuditLog, 0, 128),
	}
}

func (s *Store) ListClients(_ context.Context, search string) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	clients := make([]domain.Client, 0, len(s.clientsByID))
	for _, c := range s.clientsByID {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Company), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			continue
		}
		clients = append(clients, c)
	}

	slices.SortFunc(clients, func(a, b domain.Client) int {
		return cmpString(a.Name, b.Name)
	})
	return clients, nil
}

func (s *Store) GetClientByID(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, exists := s.clientsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyClient := client
	return &copyClient, nil
}

func (s *Store) CreateClient(_ context.Context, client domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	if client.VendedorID != "" {
		if _, ok := s.vendedores[client.VendedorID]; !ok {
			return nil, store.ErrInvalid
		}
	}
	if client.ID == "" {
		client.ID = xid.New("cli")
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	s.clientsByID[client.ID] = client
	created := client
	return &created, nil
}

func (s *Store) UpdateClient(_ context.Context, client domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.clientsByID[client.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	if client.VendedorID != "" {
		if _, ok := s.vendedores[client.VendedorID]; !ok {
			return nil, store.ErrInvalid
		}
	}
	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = time.Now().UTC()
	s.clientsByID[client.ID] = client
	updated := client
	return &updated, nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clientsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.clientsByID, id)
	return nil
}

func (s *Store) ListVendedores(_ context.Context) ([]domain.Vendedor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vendedores := make([]domain.Vendedor, 0, len(s.vendedores))
	for _, v := range s.vendedores {
		vendedores = append(vendedores, v)
	}
	slices.SortFunc(vendedores, func(a, b domain.Vendedor) int {
		return cmpString(a.Nombre, b.Nombre)
	})
	return vendedores, nil
}

func (s *Store) GetVendedorByID(_ context.Context, id string) (*domain.Vendedor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.vendedores[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyVendedor := v
	return &copyVendedor, nil
}

func (s *Store) NextOrderNumber(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderSeq++
	return fmt.Sprintf("ORD-%06d", s.orderSeq), nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" || order.OrderNumber == "" {
		return nil, store.ErrInvalid
	}
	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrDuplicate
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	s.ordersByID[order.ID] = order
	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOrder := order
	copyOrder.Items = append([]domain.Item(nil), order.Items...)
	return &copyOrder, nil
}

func (s *Store) UpdateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.ordersByID[order.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	order.OrderNumber = existing.OrderNumber
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now().UTC()
	s.ordersByID[order.ID] = order
	updated := order
	return &updated, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.ordersByID, id)
	return nil
}

// ListOrders applies the reference filters and order-number search, sorts by
// a whitelisted field, and returns one page plus the total match count.
// Limit < 1 returns all matches.
func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]domain.Order, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if filter.Client != "" && o.ClientID != filter.Client {
			continue
		}
		if filter.Vendedor != "" && o.VendedorID != filter.Vendedor {
			continue
		}
		if filter.TipoPlanilla != "" && o.TipoPlanilla != filter.TipoPlanilla {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(o.OrderNumber), needle) {
			continue
		}
		matched = append(matched, o)
	}

	sortOrders(matched, filter.SortBy, filter.SortOrder)
	total := len(matched)

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= total {
			return []domain.Order{}, total, nil
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	out := make([]domain.Order, len(matched))
	for i, o := range matched {
		out[i] = o
		out[i].Items = append([]domain.Item(nil), o.Items...)
	}
	return out, total, nil
}

func sortOrders(orders []domain.Order, sortBy, sortOrder string) {
	desc := sortOrder != "asc"
	slices.SortFunc(orders, func(a, b domain.Order) int {
		var c int
		switch sortBy {
		case "orderNumber":
			c = cmpString(a.OrderNumber, b.OrderNumber)
		case "fechaPlanilla":
			c = cmpString(a.FechaPlanilla, b.FechaPlanilla)
		case "tipoPlanilla":
			c = cmpString(a.TipoPlanilla, b.TipoPlanilla)
		case "updatedAt":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmpString(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}

func (s *Store) CountClients(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.clientsByID), nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Email == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if _, exists := s.usersByEmail[user.Email]; exists {
		return store.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByEmail[user.Email] = user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByEmail[email]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByEmail))
	for _, u := range s.usersByEmail {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, email string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByEmail[email]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByEmail[email] = user
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := append([]domain.AuditLog(nil), s.auditLogs...)
	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		return -a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}
