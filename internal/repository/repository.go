package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

// Store is the persistence surface the order placement path depends on.
// The core consumes these queries and nothing else from the database.
type Store interface {
	Close() error
	RunMigrations(*Credentials) error

	CartSnapshot(ctx context.Context, userID string) (*d.CartSnapshot, error)
	GetCartItems(ctx context.Context, userID string) ([]*d.CartItem, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int32) (*d.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, userID, itemID string, quantity int32) (*d.CartItem, error)
	DeleteCartItem(ctx context.Context, userID, itemID string) error

	GetAddress(ctx context.Context, userID, addressID string) (*d.Address, error)

	CommitOrder(ctx context.Context, params *CommitOrderParams) (*d.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*d.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*d.Order, error)
	FindOrderByPaymentTxn(ctx context.Context, txnID string) (*d.Order, error)

	CreatePaymentTransaction(ctx context.Context, txn *d.PaymentTransaction) error
	GetPaymentTransaction(ctx context.Context, txnID string) (*d.PaymentTransaction, error)
	SetPaymentTransactionStatus(ctx context.Context, txnID string, status d.TxnStatus) error
	ListStalePendingTransactions(ctx context.Context, olderThanSeconds int, limit int) ([]*d.PaymentTransaction, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
