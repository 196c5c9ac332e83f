// Package reconcile chases the loose ends the synchronous path can leave
// behind: committed-order events waiting in the outbox, and gateway payments
// whose confirmation never arrived.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
	"github.com/jyotishankar04/watch-store-server/internal/service"
)

// Publisher delivers outbox events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, event *r.OutboxEvent) error
}

// Store is the slice of the repository the poller needs.
type Store interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*r.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
	ListStalePendingTransactions(ctx context.Context, olderThanSeconds int, limit int) ([]*d.PaymentTransaction, error)
}

type Poller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	// pendingCutoff is how old a PENDING payment transaction must be
	// before the poller starts verifying it with the gateway.
	pendingCutoff time.Duration
	batchSize     int

	repo      Store
	placement service.PlacementService
	publisher Publisher
	log       *zap.Logger
}

func NewPoller(repo Store, placement service.PlacementService, publisher Publisher, log *zap.Logger) *Poller {
	return &Poller{
		eventTick:     time.Second,
		recoveryTick:  30 * time.Second,
		pendingCutoff: 5 * time.Minute,
		batchSize:     100,
		repo:          repo,
		placement:     placement,
		publisher:     publisher,
		log:           log,
	}
}

func (p *Poller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.publishOutboxEvents(ctx)
		case <-recoveryTicker.C:
			p.reconcilePendingPayments(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) publishOutboxEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publisher.Publish(ctx, event); err != nil {
			p.log.Error("failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark event as processed",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

// reconcilePendingPayments runs the regular confirmation flow for payments
// stuck in PENDING, so a confirmation lost between gateway and caller still
// resolves. ConfirmPayment owns all the safety here: idempotency, the final
// availability recheck and conflict flagging.
func (p *Poller) reconcilePendingPayments(ctx context.Context) {
	txns, err := p.repo.ListStalePendingTransactions(ctx, int(p.pendingCutoff.Seconds()), p.batchSize)
	if err != nil {
		p.log.Error("failed to list stale pending transactions", zap.Error(err))
		return
	}

	for _, txn := range txns {
		order, err := p.placement.ConfirmPayment(ctx, txn.UserID, txn.ID)
		switch {
		case err == nil:
			p.log.Info("recovered pending payment",
				zap.String("txn_id", txn.ID),
				zap.String("order_id", order.ID),
			)
		case errors.Is(err, d.ErrGatewayDeclined):
			p.log.Info("pending payment resolved as declined",
				zap.String("txn_id", txn.ID),
			)
		case errors.Is(err, d.ErrGatewayUnavailable):
			// Gateway is down, try again on the next tick.
			return
		default:
			p.log.Warn("pending payment needs attention",
				zap.String("txn_id", txn.ID),
				zap.Error(err),
			)
		}
	}
}
