package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
	"github.com/jyotishankar04/watch-store-server/internal/service"
)

type MockStore struct {
	Events    []*r.OutboxEvent
	EventsErr error
	Processed []int64

	StaleTxns    []*d.PaymentTransaction
	StaleTxnsErr error
}

func (m *MockStore) GetUnprocessedEvents(_ context.Context, _ int) ([]*r.OutboxEvent, error) {
	return m.Events, m.EventsErr
}

func (m *MockStore) MarkEventAsProcessed(_ context.Context, eventID int64) error {
	m.Processed = append(m.Processed, eventID)
	return nil
}

func (m *MockStore) ListStalePendingTransactions(_ context.Context, _ int, _ int) ([]*d.PaymentTransaction, error) {
	return m.StaleTxns, m.StaleTxnsErr
}

type MockPublisher struct {
	Published []*r.OutboxEvent
	FailIDs   map[int64]error
}

func (m *MockPublisher) Publish(_ context.Context, event *r.OutboxEvent) error {
	if err, ok := m.FailIDs[event.ID]; ok {
		return err
	}
	m.Published = append(m.Published, event)
	return nil
}

type MockPlacement struct {
	Confirmed []string
	Owners    []string
	// Errs maps txn ID to the error ConfirmPayment returns for it.
	Errs map[string]error
}

func (m *MockPlacement) PlaceOrder(_ context.Context, _, _ string) (*d.Order, error) {
	return nil, d.ErrInternal
}

func (m *MockPlacement) InitiatePayment(_ context.Context, _, _ string) (*service.PaymentInitiation, error) {
	return nil, d.ErrInternal
}

func (m *MockPlacement) ConfirmPayment(_ context.Context, userID, txnID string) (*d.Order, error) {
	m.Confirmed = append(m.Confirmed, txnID)
	m.Owners = append(m.Owners, userID)
	if err, ok := m.Errs[txnID]; ok {
		return nil, err
	}
	return &d.Order{ID: "order-" + txnID}, nil
}

func (m *MockPlacement) ListOrders(_ context.Context, _ string) ([]*d.Order, error) {
	return nil, d.ErrInternal
}

func (m *MockPlacement) GetOrder(_ context.Context, _, _ string) (*d.Order, error) {
	return nil, d.ErrInternal
}

func newTestPoller(store *MockStore, placement *MockPlacement, publisher *MockPublisher) *Poller {
	return NewPoller(store, placement, publisher, zap.NewNop())
}

func TestPublishOutboxEvents_MarksProcessed(t *testing.T) {
	store := &MockStore{
		Events: []*r.OutboxEvent{
			{ID: 1, AggregateId: "order-1", EventType: "order_committed"},
			{ID: 2, AggregateId: "order-2", EventType: "order_committed"},
		},
	}
	publisher := &MockPublisher{}
	poller := newTestPoller(store, &MockPlacement{}, publisher)

	poller.publishOutboxEvents(context.Background())

	require.Len(t, publisher.Published, 2)
	assert.Equal(t, []int64{1, 2}, store.Processed)
}

func TestPublishOutboxEvents_FailedPublishStaysUnprocessed(t *testing.T) {
	store := &MockStore{
		Events: []*r.OutboxEvent{
			{ID: 1, AggregateId: "order-1", EventType: "order_committed"},
			{ID: 2, AggregateId: "order-2", EventType: "order_committed"},
		},
	}
	publisher := &MockPublisher{FailIDs: map[int64]error{1: assert.AnError}}
	poller := newTestPoller(store, &MockPlacement{}, publisher)

	poller.publishOutboxEvents(context.Background())

	// Event 1 failed to publish so it must not be marked, event 2 still goes
	// through.
	require.Len(t, publisher.Published, 1)
	assert.Equal(t, int64(2), publisher.Published[0].ID)
	assert.Equal(t, []int64{2}, store.Processed)
}

func TestReconcilePendingPayments_RunsConfirmation(t *testing.T) {
	store := &MockStore{
		StaleTxns: []*d.PaymentTransaction{
			{ID: "txn-1", UserID: "user-1", Status: d.TxnPending},
			{ID: "txn-2", UserID: "user-2", Status: d.TxnPending},
		},
	}
	placement := &MockPlacement{}
	poller := newTestPoller(store, placement, &MockPublisher{})

	poller.reconcilePendingPayments(context.Background())

	assert.Equal(t, []string{"txn-1", "txn-2"}, placement.Confirmed)
	// The sweep confirms on behalf of each transaction's owner.
	assert.Equal(t, []string{"user-1", "user-2"}, placement.Owners)
}

func TestReconcilePendingPayments_DeclinedIsResolved(t *testing.T) {
	store := &MockStore{
		StaleTxns: []*d.PaymentTransaction{
			{ID: "txn-1", Status: d.TxnPending},
			{ID: "txn-2", Status: d.TxnPending},
		},
	}
	placement := &MockPlacement{
		Errs: map[string]error{"txn-1": d.ErrGatewayDeclined},
	}
	poller := newTestPoller(store, placement, &MockPublisher{})

	poller.reconcilePendingPayments(context.Background())

	// A decline resolves that transaction; the sweep moves on to the rest.
	assert.Equal(t, []string{"txn-1", "txn-2"}, placement.Confirmed)
}

func TestReconcilePendingPayments_StopsWhenGatewayDown(t *testing.T) {
	store := &MockStore{
		StaleTxns: []*d.PaymentTransaction{
			{ID: "txn-1", Status: d.TxnPending},
			{ID: "txn-2", Status: d.TxnPending},
		},
	}
	placement := &MockPlacement{
		Errs: map[string]error{"txn-1": d.ErrGatewayUnavailable},
	}
	poller := newTestPoller(store, placement, &MockPublisher{})

	poller.reconcilePendingPayments(context.Background())

	// No point hammering a dead gateway for the remaining transactions.
	assert.Equal(t, []string{"txn-1"}, placement.Confirmed)
}
