package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Discount struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DiscountRate float64           `json:"discountRate"`
	StartDate    string            `json:"startDate"`
	EndDate      string            `json:"endDate"`
	Active       bool              `json:"active"`
	Perfumes     []DiscountPerfume `json:"perfumes"`
	CreatedBy    string            `json:"createdBy"`
}

type DiscountPerfume struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

// NewDiscount is the body of POST /discounts. Dates are epoch milliseconds.
type NewDiscount struct {
	Name         string   `json:"name"`
	DiscountRate float64  `json:"discountRate"`
	StartDate    int64    `json:"startDate"`
	EndDate      int64    `json:"endDate"`
	PerfumeIDs   []string `json:"perfumeIds"`
}

// NewDiscountFor builds a discount body for the given time window.
func NewDiscountFor(name string, rate float64, start, end time.Time, perfumeIDs []string) NewDiscount {
	return NewDiscount{
		Name:         name,
		DiscountRate: rate,
		StartDate:    start.UnixMilli(),
		EndDate:      end.UnixMilli(),
		PerfumeIDs:   perfumeIDs,
	}
}
