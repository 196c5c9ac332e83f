package service

import (
	"fmt"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

// validateSnapshot re-checks every snapshot line against the stock level it
// carries and recomputes the authoritative total. Any shortfall fails the
// whole cart; partial fulfillment is never allowed. It runs before the
// gateway is contacted and once more right before commit, to close the race
// window the external round trip opens.
func validateSnapshot(snapshot *d.CartSnapshot) (int64, error) {
	for _, line := range snapshot.Lines {
		if line.Quantity <= 0 || line.Quantity > line.Available {
			return 0, fmt.Errorf("product %s requested %d available %d: %w",
				line.ProductID, line.Quantity, line.Available, d.ErrOutOfStock)
		}
	}

	total := snapshot.Total()
	if total <= 0 {
		return 0, d.ErrEmptyCart
	}
	return total, nil
}
