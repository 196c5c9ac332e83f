package domain

import "time"

const (
	MinCartItemQuantity int32 = 1
	MaxCartItemQuantity int32 = 5
)

type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Address struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type Order struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	AddressID    string           `json:"address_id"`
	TotalPrice   int64            `json:"total_price"`
	Status       OrderStatus      `json:"status"`
	PaymentType  PaymentType      `json:"payment_type"`
	PaymentTxnID *string          `json:"payment_txn_id,omitempty"`
	Lines        []OrderedProduct `json:"lines,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// OrderedProduct is immutable once written; UnitPrice is frozen from the
// validated snapshot, never re-read from the product later.
type OrderedProduct struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// PaymentTransaction correlates a pending gateway payment to at most one
// order. OrderID is set exactly once, by the commit transaction.
type PaymentTransaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AddressID string    `json:"address_id"`
	Amount    int64     `json:"amount"`
	Status    TxnStatus `json:"status"`
	OrderID   *string   `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
