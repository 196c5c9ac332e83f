package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

// CartSnapshot materializes the user's cart into an immutable list of
// (product, quantity, unit price, available quantity) at a point in time.
// Read-only; returns domain.ErrNotFound when the user has no cart or the
// cart holds zero items.
func (r *Repository) CartSnapshot(ctx context.Context, userID string) (*d.CartSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price, s.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		JOIN stocks s ON s.product_id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := &d.CartSnapshot{CapturedAt: time.Now().UTC()}
	for rows.Next() {
		var line d.CartSnapshotLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.Available); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot line: %w", err)
		}
		snapshot.Lines = append(snapshot.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	if len(snapshot.Lines) == 0 {
		return nil, d.ErrNotFound
	}
	return snapshot, nil
}

func (r *Repository) GetCartItems(ctx context.Context, userID string) ([]*d.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []*d.CartItem
	for rows.Next() {
		var item d.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// AddCartItem creates the cart lazily on first use. A product may appear in
// a cart at most once; re-adding surfaces domain.ErrValidation.
func (r *Repository) AddCartItem(ctx context.Context, userID, productID string, quantity int32) (*d.CartItem, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return nil, d.ErrNotFound
	}

	var cartID string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`, uuid.NewString(), userID).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	item := &d.CartItem{
		ID:        uuid.NewString(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		item.ID, cartID, productID, quantity,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// unique(cart_id, product_id): quantity changes go through update
			return nil, fmt.Errorf("product already in cart: %w", d.ErrValidation)
		}
		return nil, fmt.Errorf("failed to insert cart item: %w", err)
	}
	return item, nil
}

func (r *Repository) UpdateCartItemQuantity(ctx context.Context, userID, itemID string, quantity int32) (*d.CartItem, error) {
	item := &d.CartItem{ID: itemID, Quantity: quantity}
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items ci SET quantity = $1, updated_at = now()
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3
		RETURNING ci.cart_id, ci.product_id, ci.created_at, ci.updated_at`,
		quantity, itemID, userID,
	).Scan(&item.CartID, &item.ProductID, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, d.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

func (r *Repository) DeleteCartItem(ctx context.Context, userID, itemID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
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

func (r *Repository) GetAddress(ctx context.Context, userID, addressID string) (*d.Address, error) {
	var addr d.Address
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, line1, city, postal_code
		FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID,
	).Scan(&addr.ID, &addr.UserID, &addr.Line1, &addr.City, &addr.PostalCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, d.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &addr, nil
}
