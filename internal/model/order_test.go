package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize_ExcludesCancelled(t *testing.T) {
	orders := []Order{
		{OrderID: "o1", Status: OrderDelivered, TotalAmount: decimal.NewFromInt(120), Items: []OrderItem{
			{PerfumeName: "Sauvage", Quantity: 2, TotalAmount: decimal.NewFromInt(120)},
		}},
		{OrderID: "o2", Status: OrderCancelled, TotalAmount: decimal.NewFromInt(999), Items: []OrderItem{
			{PerfumeName: "Sauvage", Quantity: 9, TotalAmount: decimal.NewFromInt(999)},
		}},
		{OrderID: "o3", Status: OrderProcessing, TotalAmount: decimal.RequireFromString("80.5"), Items: []OrderItem{
			{PerfumeName: "Chance", Quantity: 1, TotalAmount: decimal.RequireFromString("80.5")},
		}},
	}

	r := Summarize(orders)

	assert.Equal(t, 2, r.Orders)
	assert.Equal(t, "200.5", r.Revenue.String())
	assert.Equal(t, 3, r.UnitsSold)
	assert.Equal(t, 1, r.ByStatus[OrderCancelled])
	assert.Equal(t, 1, r.ByStatus[OrderDelivered])
	assert.Equal(t, "120", r.ByPerfume["Sauvage"].String())
	assert.Equal(t, "80.5", r.ByPerfume["Chance"].String())
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderShipped.Valid())
	assert.False(t, OrderStatus("LOST").Valid())
}

func TestFilterRefunds(t *testing.T) {
	refunds := []Refund{
		{RefundRequestID: "r1", Status: RefundPending},
		{RefundRequestID: "r2", Status: RefundApproved},
		{RefundRequestID: "r3", Status: RefundPending},
	}

	assert.Len(t, FilterRefunds(refunds, ""), 3)
	pending := FilterRefunds(refunds, RefundPending)
	assert.Len(t, pending, 2)
	assert.Equal(t, "r3", pending[1].RefundRequestID)
	assert.Empty(t, FilterRefunds(refunds, RefundRejected))
}

func TestNewDiscountFor(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDiscountFor("New Year", 15, start, start.Add(24*time.Hour), []string{"p1"})

	assert.Equal(t, start.UnixMilli(), d.StartDate)
	assert.Equal(t, int64(86_400_000), d.EndDate-d.StartDate)
}
