package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. Two items with the same perfume but a
// different volume are different lines.
type LineKey struct {
	PerfumeID string
	Volume    int
}

func (k LineKey) String() string {
	return fmt.Sprintf("%s/%dml", k.PerfumeID, k.Volume)
}

// CartItem is one line of a basket.
type CartItem struct {
	PerfumeID       string          `json:"perfumeId"`
	PerfumeName     string          `json:"perfumeName"`
	Brand           string          `json:"brand"`
	Volume          int             `json:"volume"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

// Key returns the line identity of the item.
func (i CartItem) Key() LineKey {
	return LineKey{PerfumeID: i.PerfumeID, Volume: i.Volume}
}

// SyncItem returns the wire form of the line used by add, remove and sync bodies.
func (i CartItem) SyncItem() SyncItem {
	return SyncItem{Perfume: i.PerfumeID, Volume: i.Volume, Quantity: i.Quantity}
}

// LineTotal is Price * Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineDiscountedTotal is DiscountedPrice * Quantity, falling back to Price
// when the line carries no discounted price.
func (i CartItem) LineDiscountedTotal() decimal.Decimal {
	p := i.DiscountedPrice
	if p.IsZero() {
		p = i.Price
	}
	return p.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the server's authoritative cart.
type Cart struct {
	ID                   string          `json:"id,omitempty"`
	Items                []CartItem      `json:"items"`
	TotalPrice           decimal.Decimal `json:"totalPrice"`
	TotalDiscountedPrice decimal.Decimal `json:"totalDiscountedPrice"`
}

// NewCart builds a cart from items with the derived totals filled in.
func NewCart(items []CartItem) Cart {
	c := Cart{Items: items}
	c.TotalPrice, c.TotalDiscountedPrice = Totals(items)
	return c
}

// Totals derives totalPrice and totalDiscountedPrice for a list of lines.
func Totals(items []CartItem) (total, discounted decimal.Decimal) {
	total, discounted = decimal.Zero, decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
		discounted = discounted.Add(it.LineDiscountedTotal())
	}
	return total, discounted
}

// SyncItem is the wire form of a cart line.
type SyncItem struct {
	Perfume  string `json:"perfume"`
	Volume   int    `json:"volume"`
	Quantity int    `json:"quantity"`
}

// Key returns the line identity of the sync item.
func (s SyncItem) Key() LineKey {
	return LineKey{PerfumeID: s.Perfume, Volume: s.Volume}
}

// SyncCartRequest is the body of POST /cart/sync.
type SyncCartRequest struct {
	Items []SyncItem `json:"items"`
}

// CartEvent is one entry of the local cart journal.
type CartEvent struct {
	Seq       int64  `json:"seq"`
	Action    string `json:"action"`
	PerfumeID string `json:"perfumeId,omitempty"`
	Volume    int    `json:"volume,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Key       string `json:"key,omitempty"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

// Cart journal outcomes.
const (
	OutcomeLocal  = "local"  // anonymous session, nothing sent
	OutcomeSynced = "synced" // remote call succeeded
	OutcomeFailed = "failed" // remote call failed, local state kept
)
