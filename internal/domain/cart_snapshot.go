package domain

import "time"

type CartSnapshotLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"` // minor currency units
	Available   int32  `json:"available"`
}

// CartSnapshot is an immutable read of the cart taken at one instant.
// Validation and the commit transaction both work from a snapshot, never
// from live cart rows.
type CartSnapshot struct {
	Lines      []CartSnapshotLine `json:"lines"`
	CapturedAt time.Time          `json:"captured_at"`
}

// Total recomputes the authoritative total from the snapshot lines.
func (s *CartSnapshot) Total() int64 {
	var total int64
	for _, line := range s.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}
