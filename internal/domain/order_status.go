package domain

// OrderStatus is the persisted state of an order. An order row is only
// ever created by a successful commit transaction, so COMMITTED is the
// only status written; the pre-commit lifecycle lives on TxnStatus.
type OrderStatus string

const StatusCommitted OrderStatus = "COMMITTED"

type PaymentType string

const (
	PaymentCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
	PaymentOnline         PaymentType = "PAY_ONLINE"
)

// TxnStatus is the lifecycle of a payment transaction reference.
type TxnStatus string

const (
	TxnPending   TxnStatus = "PENDING"
	TxnConfirmed TxnStatus = "CONFIRMED"
	TxnDeclined  TxnStatus = "DECLINED"
	TxnFailed    TxnStatus = "FAILED"
	// TxnConflict marks transactions that need manual reconciliation:
	// payment confirmed but stock ran out, or the recomputed total no
	// longer matches the amount the gateway authorized.
	TxnConflict TxnStatus = "CONFLICT"
)

// IsTerminal reports whether the transaction has been resolved. PENDING
// is the only state that can still move.
func (s TxnStatus) IsTerminal() bool {
	return s != TxnPending
}

// CanTransitionTo reports whether moving to the given status is legal.
// Every legal transition starts from PENDING; resolved transactions are
// immutable.
func (s TxnStatus) CanTransitionTo(to TxnStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch to {
	case TxnConfirmed, TxnDeclined, TxnFailed, TxnConflict:
		return true
	}
	return false
}
