package store

import (
	"context"
	"errors"

	"planillas/backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrDuplicate = errors.New("duplicate")
)

type Repository interface {
	ListClients(ctx context.Context, search string) ([]domain.Client, error)
	GetClientByID(ctx context.Context, id string) (*domain.Client, error)
	CreateClient(ctx context.Context, client domain.Client) (*domain.Client, error)
	UpdateClient(ctx context.Context, client domain.Client) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error

	ListVendedores(ctx context.Context) ([]domain.Vendedor, error)
	GetVendedorByID(ctx context.Context, id string) (*domain.Vendedor, error)

	NextOrderNumber(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)

	CountClients(ctx context.Context) (int, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, email string, password string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
