package domain

import "time"

const (
	TipoPlanillaA = "A"
	TipoPlanillaB = "B"
)

// Item is one row of a planilla's value ledger. Neto is derived from
// Importe and Descuento and is never edited independently.
type Item struct {
	NombreCliente string  `json:"nombreCliente"`
	FacturaNumero string  `json:"facturaNumero"`
	Importe       float64 `json:"importe"`
	Descuento     float64 `json:"descuento"`
	Neto          float64 `json:"neto"`
	ChequeNumero  string  `json:"chequeNumero"`
	Banco         string  `json:"banco"`
	Plaza         string  `json:"plaza"`
	ImporteCheque float64 `json:"importeCheque"`
	Fecha         string  `json:"fecha"`
	Efectivo      float64 `json:"efectivo"`
}

// Order is a submitted collection sheet. ID and OrderNumber are assigned
// server-side at creation, never by the caller.
type Order struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	ClientID      string    `json:"clientId"`
	VendedorID    string    `json:"vendedorId"`
	TipoPlanilla  string    `json:"tipoPlanilla"`
	Items         []Item    `json:"items"`
	Observaciones string    `json:"observaciones"`
	Comisiones    float64   `json:"comisiones"`
	FechaPlanilla string    `json:"fechaPlanilla"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OrderView is an Order with its client and seller references resolved
// for display.
type OrderView struct {
	Order
	Client   *Client   `json:"client,omitempty"`
	Vendedor *Vendedor `json:"vendedor,omitempty"`
}

type OrderRequest struct {
	Client        string  `json:"client"`
	Vendedor      string  `json:"vendedor"`
	TipoPlanilla  string  `json:"tipoPlanilla"`
	Items         []Item  `json:"items"`
	Observaciones string  `json:"observaciones"`
	Comisiones    float64 `json:"comisiones"`
	FechaPlanilla string  `json:"fechaPlanilla"`
}

// OrderFilter carries the list-view query: reference filters, free-text
// search over the order number, a whitelisted sort field and a page window.
type OrderFilter struct {
	Client       string
	Vendedor     string
	TipoPlanilla string
	Search       string
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type OrderListResponse struct {
	Orders     []OrderView `json:"orders"`
	Pagination Pagination  `json:"pagination"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Company    string    `json:"company"`
	VendedorID string    `json:"vendedor"`
	Address    Address   `json:"address"`
	TaxID      string    `json:"taxId"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ClientRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Company  string  `json:"company"`
	Vendedor string  `json:"vendedor"`
	Address  Address `json:"address"`
	TaxID    string  `json:"taxId"`
	Notes    string  `json:"notes"`
}

// Vendedor is a seller. The header fields (razón social, dirección,
// localidad) are what the exported sheet prints above the value table.
type Vendedor struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	RazonSocial string `json:"razonSocial"`
	Direccion   string `json:"direccion"`
	Localidad   string `json:"localidad"`
}

// DraftItem mirrors Item but keeps every numeric field as entered text;
// conversion to numbers happens only at submit time.
type DraftItem struct {
	NombreCliente string `json:"nombreCliente"`
	FacturaNumero string `json:"facturaNumero"`
	Importe       string `json:"importe"`
	Descuento     string `json:"descuento"`
	Neto          string `json:"neto"`
	ChequeNumero  string `json:"chequeNumero"`
	Banco         string `json:"banco"`
	Plaza         string `json:"plaza"`
	ImporteCheque string `json:"importeCheque"`
	Fecha         string `json:"fecha"`
	Efectivo      string `json:"efectivo"`
}

// Draft is the persisted composition blob. Readers must tolerate any field
// being absent. Timestamp is unix milliseconds at the moment of the write.
type Draft struct {
	SelectedClient string      `json:"selectedClient"`
	Vendedor       string      `json:"vendedor"`
	TipoPlanilla   string      `json:"tipoPlanilla"`
	Items          []DraftItem `json:"items"`
	Observaciones  string      `json:"observaciones"`
	Comisiones     string      `json:"comisiones"`
	FechaPlanilla  string      `json:"fechaPlanilla"`
	Timestamp      int64       `json:"timestamp"`
}

type DraftLookupResponse struct {
	Found bool   `json:"found"`
	Draft *Draft `json:"draft,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Email string
	Name  string
	Role  string
}

// UserAccount is the persistence model for auth credentials. Password holds
// a bcrypt hash, never plaintext.
type UserAccount struct {
	Email     string
	Password  string
	Name      string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type UserCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type UserInfo struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type EmailOrderRequest struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	AttachExcel bool   `json:"attachExcel"`
	AttachPDF   bool   `json:"attachPdf"`
}

type SellerStats struct {
	Name            string  `json:"name"`
	ChartLabel      string  `json:"chartLabel"`
	OrderCount      int     `json:"orderCount"`
	TotalNeto       float64 `json:"totalNeto"`
	TotalImporte    float64 `json:"totalImporte"`
	TotalDescuento  float64 `json:"totalDescuento"`
	TotalEfectivo   float64 `json:"totalEfectivo"`
	TotalCheques    float64 `json:"totalCheques"`
	TotalComisiones float64 `json:"totalComisiones"`
}

type SellerStatsSummary struct {
	TotalOrders     int     `json:"totalOrders"`
	TotalNeto       float64 `json:"totalNeto"`
	TotalImporte    float64 `json:"totalImporte"`
	TotalDescuento  float64 `json:"totalDescuento"`
	TotalEfectivo   float64 `json:"totalEfectivo"`
	TotalCheques    float64 `json:"totalCheques"`
	TotalComisiones float64 `json:"totalComisiones"`
}

type SalesBySellerResponse struct {
	Sellers []SellerStats      `json:"sellers"`
	Summary SellerStatsSummary `json:"summary"`
}

type MonthStats struct {
	Month     int     `json:"month"`
	MonthName string  `json:"monthName"`
	Orders    int     `json:"orders"`
	Neto      float64 `json:"neto"`
}

type TimeAnalysisResponse struct {
	Year   int          `json:"year"`
	Months []MonthStats `json:"months"`
}

type TrendingClient struct {
	Name       string `json:"name"`
	ChartLabel string `json:"chartLabel"`
	OrderCount int    `json:"orderCount"`
}

// TrendingProduct keeps the productName wire key the chart consumers read;
// the value aggregated is the item-level customer name, the closest thing
// this system has to a product.
type TrendingProduct struct {
	ProductName string `json:"productName"`
	ChartLabel  string `json:"chartLabel"`
	OrderCount  int    `json:"orderCount"`
}

type TrendingResponse struct {
	TopClients  []TrendingClient  `json:"topClients"`
	TopProducts []TrendingProduct `json:"topProducts"`
}

type OverviewResponse struct {
	TotalClients int         `json:"totalClients"`
	TotalOrders  int         `json:"totalOrders"`
	PlanillasA   int         `json:"planillasA"`
	TotalNeto    float64     `json:"totalNeto"`
	RecentOrders []OrderView `json:"recentOrders"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
