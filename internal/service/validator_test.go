package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

func TestValidateSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		lines     []d.CartSnapshotLine
		wantTotal int64
		wantErr   error
	}{
		{
			name: "valid cart",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 2, UnitPrice: 10, Available: 5},
				{ProductID: "b", Quantity: 1, UnitPrice: 5, Available: 3},
			},
			wantTotal: 25,
		},
		{
			name: "exactly at stock limit",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 3, UnitPrice: 10, Available: 3},
			},
			wantTotal: 30,
		},
		{
			name: "requested exceeds available",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 3, UnitPrice: 10, Available: 1},
			},
			wantErr: d.ErrOutOfStock,
		},
		{
			name: "one bad line fails the whole cart",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 1, UnitPrice: 10, Available: 5},
				{ProductID: "b", Quantity: 2, UnitPrice: 5, Available: 1},
			},
			wantErr: d.ErrOutOfStock,
		},
		{
			name: "zero quantity line",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 0, UnitPrice: 10, Available: 5},
			},
			wantErr: d.ErrOutOfStock,
		},
		{
			name: "zero total",
			lines: []d.CartSnapshotLine{
				{ProductID: "a", Quantity: 1, UnitPrice: 0, Available: 5},
			},
			wantErr: d.ErrEmptyCart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := validateSnapshot(&d.CartSnapshot{Lines: tt.lines})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}
