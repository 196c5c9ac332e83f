package service

import (
	"context"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	"github.com/jyotishankar04/watch-store-server/internal/gateway"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
)

// MockStore implements r.Store for testing
type MockStore struct {
	Snapshot    *d.CartSnapshot
	SnapshotErr error

	Address    *d.Address
	AddressErr error

	CartItems    []*d.CartItem
	CartItemsErr error
	AddedItem    *d.CartItem
	AddItemErr   error

	CommittedParams *r.CommitOrderParams // captures what CommitOrder received
	CommitErr       error
	CommitCalls     int

	OrderByTxn      *d.Order
	OrderByTxnErr   error
	OrderByTxnLater *d.Order // returned after the first FindOrderByPaymentTxn call
	FindByTxnCalls  int

	Txn    *d.PaymentTransaction
	TxnErr error

	CreatedTxn   *d.PaymentTransaction
	CreateTxnErr error

	StatusUpdates map[string]d.TxnStatus

	Orders    []*d.Order
	OrdersErr error

	StaleTxns    []*d.PaymentTransaction
	StaleTxnsErr error

	OutboxEvents []*r.OutboxEvent
	OutboxErr    error
	ProcessedIDs []int64
}

func (m *MockStore) Close() error                         { return nil }
func (m *MockStore) RunMigrations(_ *r.Credentials) error { return nil }

func (m *MockStore) CartSnapshot(_ context.Context, _ string) (*d.CartSnapshot, error) {
	return m.Snapshot, m.SnapshotErr
}

func (m *MockStore) GetCartItems(_ context.Context, _ string) ([]*d.CartItem, error) {
	return m.CartItems, m.CartItemsErr
}

func (m *MockStore) AddCartItem(_ context.Context, _, _ string, _ int32) (*d.CartItem, error) {
	return m.AddedItem, m.AddItemErr
}

func (m *MockStore) UpdateCartItemQuantity(_ context.Context, _, _ string, _ int32) (*d.CartItem, error) {
	return m.AddedItem, m.AddItemErr
}

func (m *MockStore) DeleteCartItem(_ context.Context, _, _ string) error {
	return m.AddItemErr
}

func (m *MockStore) GetAddress(_ context.Context, _, _ string) (*d.Address, error) {
	return m.Address, m.AddressErr
}

func (m *MockStore) CommitOrder(_ context.Context, params *r.CommitOrderParams) (*d.Order, error) {
	m.CommitCalls++
	m.CommittedParams = params
	if m.CommitErr != nil {
		return nil, m.CommitErr
	}
	order := &d.Order{
		ID:           "order-1",
		UserID:       params.UserID,
		AddressID:    params.AddressID,
		TotalPrice:   params.TotalPrice,
		Status:       d.StatusCommitted,
		PaymentType:  params.PaymentType,
		PaymentTxnID: params.PaymentTxnID,
	}
	for _, line := range params.Snapshot.Lines {
		order.Lines = append(order.Lines, d.OrderedProduct{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return order, nil
}

func (m *MockStore) GetOrder(_ context.Context, _, _ string) (*d.Order, error) {
	if len(m.Orders) > 0 {
		return m.Orders[0], m.OrdersErr
	}
	return nil, d.ErrNotFound
}

func (m *MockStore) ListOrders(_ context.Context, _ string) ([]*d.Order, error) {
	return m.Orders, m.OrdersErr
}

func (m *MockStore) FindOrderByPaymentTxn(_ context.Context, _ string) (*d.Order, error) {
	m.FindByTxnCalls++
	if m.FindByTxnCalls > 1 && m.OrderByTxnLater != nil {
		return m.OrderByTxnLater, nil
	}
	if m.OrderByTxn != nil {
		return m.OrderByTxn, nil
	}
	if m.OrderByTxnErr != nil {
		return nil, m.OrderByTxnErr
	}
	return nil, d.ErrNotFound
}

func (m *MockStore) CreatePaymentTransaction(_ context.Context, txn *d.PaymentTransaction) error {
	m.CreatedTxn = txn
	return m.CreateTxnErr
}

func (m *MockStore) GetPaymentTransaction(_ context.Context, _ string) (*d.PaymentTransaction, error) {
	if m.Txn == nil && m.TxnErr == nil {
		return nil, d.ErrNotFound
	}
	return m.Txn, m.TxnErr
}

func (m *MockStore) SetPaymentTransactionStatus(_ context.Context, txnID string, status d.TxnStatus) error {
	if m.StatusUpdates == nil {
		m.StatusUpdates = make(map[string]d.TxnStatus)
	}
	m.StatusUpdates[txnID] = status
	return nil
}

func (m *MockStore) ListStalePendingTransactions(_ context.Context, _ int, _ int) ([]*d.PaymentTransaction, error) {
	return m.StaleTxns, m.StaleTxnsErr
}

func (m *MockStore) GetUnprocessedEvents(_ context.Context, _ int) ([]*r.OutboxEvent, error) {
	return m.OutboxEvents, m.OutboxErr
}

func (m *MockStore) MarkEventAsProcessed(_ context.Context, eventID int64) error {
	m.ProcessedIDs = append(m.ProcessedIDs, eventID)
	return nil
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	InitiateResult *gateway.InitiateResult
	InitiateErr    error
	InitiateReq    *gateway.InitiateRequest

	Status      gateway.Status
	VerifyErr   error
	VerifyCalls int
}

func (m *MockGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	m.InitiateReq = &req
	return m.InitiateResult, m.InitiateErr
}

func (m *MockGateway) VerifyStatus(_ context.Context, _ string) (gateway.Status, error) {
	m.VerifyCalls++
	return m.Status, m.VerifyErr
}
