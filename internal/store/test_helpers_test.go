package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/model"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testItem(id string, volume, qty int, price string) model.CartItem {
	return model.CartItem{
		PerfumeID: id,
		Volume:    volume,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
	}
}
