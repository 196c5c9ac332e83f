package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

// commitTimeout bounds the whole commit transaction so a stalled statement
// aborts and rolls back instead of holding row locks indefinitely.
const commitTimeout = 5 * time.Second

// ErrTxnAlreadyResolved signals that the payment transaction row was
// consumed by a concurrent commit; the caller should return the order that
// won instead of creating another one.
var ErrTxnAlreadyResolved = errors.New("payment transaction already resolved to an order")

type CommitOrderParams struct {
	UserID       string
	AddressID    string
	PaymentType  d.PaymentType
	PaymentTxnID *string
	Snapshot     *d.CartSnapshot
	TotalPrice   int64
}

// CommitOrder is the single atomic boundary of order placement. Within one
// transaction it creates the order and its lines from the re-validated
// snapshot, conditionally decrements stock per line, empties the cart and,
// on the gateway path, consumes the payment transaction exactly once. Any
// failure rolls everything back; the caller observes no partial state.
func (r *Repository) CommitOrder(ctx context.Context, params *CommitOrderParams) (*d.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := &d.Order{
		ID:           uuid.NewString(),
		UserID:       params.UserID,
		AddressID:    params.AddressID,
		TotalPrice:   params.TotalPrice,
		Status:       d.StatusCommitted,
		PaymentType:  params.PaymentType,
		PaymentTxnID: params.PaymentTxnID,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, address_id, total_price, status, payment_type, payment_txn_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		order.ID, order.UserID, order.AddressID, order.TotalPrice,
		order.Status, order.PaymentType, order.PaymentTxnID,
	).Scan(&order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range params.Snapshot.Lines {
		lineID := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ordered_products (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			lineID, order.ID, line.ProductID, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}

		// Conditional decrement: zero affected rows means another checkout
		// took the stock first. Abort the whole transaction, no partial lines.
		result, err := tx.ExecContext(ctx, `
			UPDATE stocks SET quantity = quantity - $1
			WHERE product_id = $2 AND quantity >= $1`,
			line.Quantity, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, d.ErrOutOfStock)
		}

		order.Lines = append(order.Lines, d.OrderedProduct{
			ID:        lineID,
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	// Empty the cart, keep the cart row.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)`,
		params.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if params.PaymentTxnID != nil {
		// Consume the idempotency token at most once. A concurrent commit or
		// decline that already resolved the row leaves zero rows here.
		result, err := tx.ExecContext(ctx, `
			UPDATE payment_transactions
			SET order_id = $1, status = $2, updated_at = now()
			WHERE id = $3 AND order_id IS NULL AND status = $4`,
			order.ID, d.TxnConfirmed, *params.PaymentTxnID, d.TxnPending)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve payment transaction: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return nil, ErrTxnAlreadyResolved
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"total_price":  order.TotalPrice,
		"payment_type": order.PaymentType,
		"lines":        order.Lines,
		"committed_at": order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)`,
		order.ID, "order.committed", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func (r *Repository) GetOrder(ctx context.Context, userID, orderID string) (*d.Order, error) {
	var order d.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, address_id, total_price, status, payment_type, payment_txn_id, created_at
		FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.AddressID, &order.TotalPrice,
		&order.Status, &order.PaymentType, &order.PaymentTxnID, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, d.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.loadOrderLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrders(ctx context.Context, userID string) ([]*d.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, address_id, total_price, status, payment_type, payment_txn_id, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*d.Order
	for rows.Next() {
		var order d.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.AddressID, &order.TotalPrice,
			&order.Status, &order.PaymentType, &order.PaymentTxnID, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}

	for _, order := range orders {
		if err := r.loadOrderLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// FindOrderByPaymentTxn is the idempotency lookup: a duplicate confirmation
// for an already-resolved transaction returns the existing order.
func (r *Repository) FindOrderByPaymentTxn(ctx context.Context, txnID string) (*d.Order, error) {
	var order d.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, address_id, total_price, status, payment_type, payment_txn_id, created_at
		FROM orders WHERE payment_txn_id = $1`,
		txnID,
	).Scan(&order.ID, &order.UserID, &order.AddressID, &order.TotalPrice,
		&order.Status, &order.PaymentType, &order.PaymentTxnID, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, d.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order by payment txn: %w", err)
	}

	if err := r.loadOrderLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) loadOrderLines(ctx context.Context, order *d.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM ordered_products WHERE order_id = $1`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line d.OrderedProduct
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}
