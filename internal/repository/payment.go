package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

func (r *Repository) CreatePaymentTransaction(ctx context.Context, txn *d.PaymentTransaction) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payment_transactions (id, user_id, address_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		txn.ID, txn.UserID, txn.AddressID, txn.Amount, txn.Status,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetPaymentTransaction(ctx context.Context, txnID string) (*d.PaymentTransaction, error) {
	var txn d.PaymentTransaction
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, address_id, amount, status, order_id, created_at, updated_at
		FROM payment_transactions WHERE id = $1`,
		txnID,
	).Scan(&txn.ID, &txn.UserID, &txn.AddressID, &txn.Amount, &txn.Status,
		&txn.OrderID, &txn.CreatedAt, &txn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, d.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment transaction: %w", err)
	}
	return &txn, nil
}

// SetPaymentTransactionStatus applies a transition out of PENDING. The
// update is conditional on the current status so a late decline can never
// overwrite an already resolved row; resolved rows are immutable per
// TxnStatus.CanTransitionTo.
func (r *Repository) SetPaymentTransactionStatus(ctx context.Context, txnID string, status d.TxnStatus) error {
	if !d.TxnPending.CanTransitionTo(status) {
		return fmt.Errorf("illegal transition to %s: %w", status, d.ErrValidation)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		status, txnID, d.TxnPending)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return d.ErrNotFound
	}
	return nil
}

// ListStalePendingTransactions returns PENDING transactions older than the
// cutoff, used by the reconcile poller to chase confirmations that never
// arrived.
func (r *Repository) ListStalePendingTransactions(ctx context.Context, olderThanSeconds int, limit int) ([]*d.PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, address_id, amount, status, order_id, created_at, updated_at
		FROM payment_transactions
		WHERE status = $1 AND created_at < now() - ($2 || ' seconds')::interval
		ORDER BY created_at
		LIMIT $3`,
		d.TxnPending, olderThanSeconds, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale transactions: %w", err)
	}
	defer rows.Close()

	var txns []*d.PaymentTransaction
	for rows.Next() {
		var txn d.PaymentTransaction
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.AddressID, &txn.Amount, &txn.Status,
			&txn.OrderID, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}
	return txns, rows.Err()
}
