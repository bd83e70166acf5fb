package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"planillas/backend/internal/domain"
	"planillas/backend/internal/store"
	"planillas/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListClients(ctx context.Context, search string) ([]domain.Client, error) {
	query := `
		SELECT id, name, email, phone, company, COALESCE(vendedor_id, ''),
		       street, city, state, zip_code, country, tax_id, notes,
		       created_at, updated_at
		FROM clients
	`
	args := []any{}
	if needle := strings.TrimSpace(search); needle != "" {
		query += ` WHERE name ILIKE $1 OR company ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+needle+"%")
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]domain.Client, 0, 64)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.VendedorID,
			&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.ZipCode, &c.Address.Country,
			&c.TaxID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) GetClientByID(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, company, COALESCE(vendedor_id, ''),
		       street, city, state, zip_code, country, tax_id, notes,
		       created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.VendedorID,
		&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.ZipCode, &c.Address.Country,
		&c.TaxID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, client domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	if client.ID == "" {
		client.ID = xid.New("cli")
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (
			id, name, email, phone, company, vendedor_id,
			street, city, state, zip_code, country, tax_id, notes,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, client.ID, client.Name, client.Email, client.Phone, client.Company, client.VendedorID,
		client.Address.Street, client.Address.City, client.Address.State, client.Address.ZipCode, client.Address.Country,
		client.TaxID, client.Notes, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	created := client
	return &created, nil
}

func (s *Store) UpdateClient(ctx context.Context, client domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	client.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $2, email = $3, phone = $4, company = $5, vendedor_id = NULLIF($6,''),
		    street = $7, city = $8, state = $9, zip_code = $10, country = $11,
		    tax_id = $12, notes = $13, updated_at = $14
		WHERE id = $1
	`, client.ID, client.Name, client.Email, client.Phone, client.Company, client.VendedorID,
		client.Address.Street, client.Address.City, client.Address.State, client.Address.ZipCode, client.Address.Country,
		client.TaxID, client.Notes, client.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetClientByID(ctx, client.ID)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListVendedores(ctx context.Context) ([]domain.Vendedor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, razon_social, direccion, localidad
		FROM vendedores
		ORDER BY nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendedores := make([]domain.Vendedor, 0, 16)
	for rows.Next() {
		var v domain.Vendedor
		if err := rows.Scan(&v.ID, &v.Nombre, &v.RazonSocial, &v.Direccion, &v.Localidad); err != nil {
			return nil, err
		}
		vendedores = append(vendedores, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vendedores, nil
}

func (s *Store) GetVendedorByID(ctx context.Context, id string) (*domain.Vendedor, error) {
	var v domain.Vendedor
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, razon_social, direccion, localidad
		FROM vendedores
		WHERE id = $1
	`, id).Scan(&v.ID, &v.Nombre, &v.RazonSocial, &v.Direccion, &v.Localidad)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", seq), nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.OrderNumber == "" {
		return nil, store.ErrInvalid
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, client_id, vendedor_id, tipo_planilla,
			items, observaciones, comisiones, fecha_planilla,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, order.ID, order.OrderNumber, order.ClientID, nullable(order.VendedorID), order.TipoPlanilla,
		items, order.Observaciones, order.Comisiones, order.FechaPlanilla,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, client_id, COALESCE(vendedor_id, ''), tipo_planilla,
		       items, observaciones, comisiones, fecha_planilla, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET client_id = $2, vendedor_id = $3, tipo_planilla = $4,
		    items = $5, observaciones = $6, comisiones = $7, fecha_planilla = $8,
		    updated_at = now()
		WHERE id = $1
	`, order.ID, order.ClientID, nullable(order.VendedorID), order.TipoPlanilla,
		items, order.Observaciones, order.Comisiones, order.FechaPlanilla)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOrderByID(ctx, order.ID)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

var orderSortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"orderNumber":   "order_number",
	"fechaPlanilla": "fecha_planilla",
	"tipoPlanilla":  "tipo_planilla",
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Client != "" {
		conditions = append(conditions, "client_id = "+arg(filter.Client))
	}
	if filter.Vendedor != "" {
		conditions = append(conditions, "vendedor_id = "+arg(filter.Vendedor))
	}
	if filter.TipoPlanilla != "" {
		conditions = append(conditions, "tipo_planilla = "+arg(filter.TipoPlanilla))
	}
	if needle := strings.TrimSpace(filter.Search); needle != "" {
		conditions = append(conditions, "order_number ILIKE "+arg("%"+needle+"%"))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := orderSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	query := `
		SELECT id, order_number, client_id, COALESCE(vendedor_id, ''), tipo_planilla,
		       items, observaciones, comisiones, fecha_planilla, created_at, updated_at
		FROM orders
	` + where + fmt.Sprintf(" ORDER BY %s %s, id", column, direction)

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT " + arg(filter.Limit) + " OFFSET " + arg((page-1)*filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 32)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var items []byte
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ClientID, &o.VendedorID, &o.TipoPlanilla,
		&items, &o.Observaciones, &o.Comisiones, &o.FechaPlanilla, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (s *Store) CountClients(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM clients`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Email == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password, name, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.Email, user.Password, user.Name, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT email, password, name, role, active, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&user.Email, &user.Password, &user.Name, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, password, name, role, active, created_at
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Email, &u.Password, &u.Name, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, email string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE email = $1
	`, email, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
