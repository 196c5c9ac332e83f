package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	"github.com/jyotishankar04/watch-store-server/internal/gateway"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
)

// PlaceOrder is the cash-on-delivery path: snapshot, validate, commit, one
// synchronous pass.
func (s *PlacementServiceImpl) PlaceOrder(ctx context.Context, userID, addressID string) (*d.Order, error) {
	if _, err := s.repo.GetAddress(ctx, userID, addressID); err != nil {
		return nil, fmt.Errorf("address %s: %w", addressID, err)
	}

	snapshot, err := s.repo.CartSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}

	total, err := validateSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	order, err := s.repo.CommitOrder(ctx, &r.CommitOrderParams{
		UserID:      userID,
		AddressID:   addressID,
		PaymentType: d.PaymentCashOnDelivery,
		Snapshot:    snapshot,
		TotalPrice:  total,
	})
	s.metrics.ObserveCommit(start)
	if err != nil {
		s.metrics.OrderPlaced(d.PaymentCashOnDelivery, "error")
		if errors.Is(err, d.ErrOutOfStock) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: commit failed: %v", d.ErrInternal, err)
	}

	s.metrics.OrderPlaced(d.PaymentCashOnDelivery, "success")
	s.log.Info("order committed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int64("total_price", order.TotalPrice),
		zap.String("payment_type", string(d.PaymentCashOnDelivery)),
	)
	return order, nil
}

// InitiatePayment starts the gateway-mediated path. The payment transaction
// row is persisted as PENDING before the gateway is contacted so a
// confirmation can be correlated even after a restart. The gateway call
// itself runs outside any database transaction.
func (s *PlacementServiceImpl) InitiatePayment(ctx context.Context, userID, addressID string) (*PaymentInitiation, error) {
	if _, err := s.repo.GetAddress(ctx, userID, addressID); err != nil {
		return nil, fmt.Errorf("address %s: %w", addressID, err)
	}

	snapshot, err := s.repo.CartSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}

	total, err := validateSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	txn := &d.PaymentTransaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		AddressID: addressID,
		Amount:    total,
		Status:    d.TxnPending,
	}
	if err := s.repo.CreatePaymentTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("%w: create payment transaction: %v", d.ErrInternal, err)
	}

	result, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		TransactionID: txn.ID,
		BuyerID:       userID,
		Amount:        total,
	})
	if err != nil {
		if markErr := s.repo.SetPaymentTransactionStatus(ctx, txn.ID, d.TxnFailed); markErr != nil {
			s.log.Error("failed to mark transaction failed",
				zap.String("txn_id", txn.ID),
				zap.Error(markErr),
			)
		}
		s.metrics.GatewayCall("initiate", "error")
		return nil, err
	}

	s.metrics.GatewayCall("initiate", "success")
	s.log.Info("payment initiated",
		zap.String("txn_id", txn.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", total),
	)
	return &PaymentInitiation{
		TransactionID: txn.ID,
		RedirectURL:   result.RedirectURL,
		Amount:        total,
	}, nil
}

// ConfirmPayment handles the later confirmation call for a gateway payment.
// Confirmation delivery can arrive more than once; the transaction id is the
// idempotency token and a duplicate returns the already-committed order.
// The caller must be the transaction's owner; foreign transaction ids read
// as not found.
func (s *PlacementServiceImpl) ConfirmPayment(ctx context.Context, userID, txnID string) (*d.Order, error) {
	// Idempotency first: a transaction that already resolved to an order is
	// a no-op, not a duplicate order.
	if existing, err := s.repo.FindOrderByPaymentTxn(ctx, txnID); err == nil {
		if existing.UserID != userID {
			return nil, d.ErrNotFound
		}
		s.log.Info("duplicate confirmation, returning existing order",
			zap.String("txn_id", txnID),
			zap.String("order_id", existing.ID),
		)
		return existing, nil
	} else if !errors.Is(err, d.ErrNotFound) {
		return nil, fmt.Errorf("%w: idempotency lookup: %v", d.ErrInternal, err)
	}

	txn, err := s.repo.GetPaymentTransaction(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("payment transaction %s: %w", txnID, err)
	}
	if txn.UserID != userID {
		return nil, d.ErrNotFound
	}

	if txn.Status.IsTerminal() {
		if txn.Status == d.TxnDeclined {
			return nil, d.ErrGatewayDeclined
		}
		// CONFIRMED with no order row, FAILED and CONFLICT all need an
		// operator, not a replay.
		return nil, fmt.Errorf("%w: transaction %s is %s", d.ErrInternal, txnID, txn.Status)
	}

	status, err := s.gateway.VerifyStatus(ctx, txnID)
	if err != nil {
		// Transport failure is not a payment outcome; the transaction stays
		// PENDING and the poller or the caller may try again.
		s.metrics.GatewayCall("verify", "error")
		return nil, err
	}
	s.metrics.GatewayCall("verify", "success")

	if status == gateway.StatusDeclined {
		if err := s.repo.SetPaymentTransactionStatus(ctx, txnID, d.TxnDeclined); err != nil {
			return nil, fmt.Errorf("%w: mark declined: %v", d.ErrInternal, err)
		}
		s.log.Info("payment declined", zap.String("txn_id", txnID))
		return nil, d.ErrGatewayDeclined
	}

	// Payment confirmed. Stock may have changed since initiation, so the
	// availability check runs once more against a fresh snapshot.
	snapshot, err := s.repo.CartSnapshot(ctx, txn.UserID)
	if err != nil {
		if errors.Is(err, d.ErrNotFound) {
			return nil, s.flagConflict(ctx, txnID, "confirmed payment but cart is empty")
		}
		return nil, fmt.Errorf("%w: cart snapshot: %v", d.ErrInternal, err)
	}

	total, err := validateSnapshot(snapshot)
	if err != nil {
		if errors.Is(err, d.ErrOutOfStock) {
			// Confirmed payment against vanished stock is a surfaced
			// conflict for manual reconciliation, never silently resolved.
			if flagErr := s.flagConflict(ctx, txnID, "confirmed payment but stock ran out"); flagErr != nil {
				s.log.Error("failed to flag conflict", zap.String("txn_id", txnID), zap.Error(flagErr))
			}
		}
		return nil, err
	}

	if total != txn.Amount {
		return nil, s.flagConflict(ctx, txnID,
			fmt.Sprintf("recomputed total %d differs from authorized amount %d", total, txn.Amount))
	}

	start := time.Now()
	order, err := s.repo.CommitOrder(ctx, &r.CommitOrderParams{
		UserID:       txn.UserID,
		AddressID:    txn.AddressID,
		PaymentType:  d.PaymentOnline,
		PaymentTxnID: &txn.ID,
		Snapshot:     snapshot,
		TotalPrice:   total,
	})
	s.metrics.ObserveCommit(start)
	if err != nil {
		if errors.Is(err, r.ErrTxnAlreadyResolved) {
			// Lost the race against a concurrent confirmation; return the
			// order that won.
			return s.repo.FindOrderByPaymentTxn(ctx, txnID)
		}
		s.metrics.OrderPlaced(d.PaymentOnline, "error")
		if errors.Is(err, d.ErrOutOfStock) {
			if flagErr := s.flagConflict(ctx, txnID, "confirmed payment but commit lost stock race"); flagErr != nil {
				s.log.Error("failed to flag conflict", zap.String("txn_id", txnID), zap.Error(flagErr))
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: commit failed: %v", d.ErrInternal, err)
	}

	s.metrics.OrderPlaced(d.PaymentOnline, "success")
	s.log.Info("order committed",
		zap.String("order_id", order.ID),
		zap.String("txn_id", txnID),
		zap.Int64("total_price", order.TotalPrice),
		zap.String("payment_type", string(d.PaymentOnline)),
	)
	return order, nil
}

func (s *PlacementServiceImpl) ListOrders(ctx context.Context, userID string) ([]*d.Order, error) {
	return s.repo.ListOrders(ctx, userID)
}

func (s *PlacementServiceImpl) GetOrder(ctx context.Context, userID, orderID string) (*d.Order, error) {
	return s.repo.GetOrder(ctx, userID, orderID)
}

// flagConflict parks the transaction for manual reconciliation and reports
// the condition to the caller as an internal conflict.
func (s *PlacementServiceImpl) flagConflict(ctx context.Context, txnID, reason string) error {
	s.log.Error("payment reconciliation conflict",
		zap.String("txn_id", txnID),
		zap.String("reason", reason),
	)
	if err := s.repo.SetPaymentTransactionStatus(ctx, txnID, d.TxnConflict); err != nil {
		return fmt.Errorf("%w: flag conflict: %v", d.ErrInternal, err)
	}
	return fmt.Errorf("%w: %s", d.ErrInternal, reason)
}
