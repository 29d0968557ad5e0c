package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	PerfumeID   string          `json:"perfumeId"`
	PerfumeName string          `json:"perfumeName"`
	Volume      int             `json:"volume"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Order is a placed order. Admin listings additionally fill the customer fields.
type Order struct {
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId"`
	UserName         string          `json:"userName,omitempty"`
	UserEmail        string          `json:"userEmail,omitempty"`
	Items            []OrderItem     `json:"items"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	AppliedCampaigns []string        `json:"appliedCampaigns,omitempty"`
	Status           OrderStatus     `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	InvoiceNumber    string          `json:"invoiceNumber,omitempty"`
}

// MakeOrderRequest is the body of POST /orders.
type MakeOrderRequest struct {
	ShippingAddress string   `json:"shippingAddress"`
	TaxID           string   `json:"taxId"`
	CampaignIDs     []string `json:"campaignIds"`
	PaymentID       string   `json:"paymentId,omitempty"`
	CardNumber      string   `json:"cardNumber"`
	CardHolder      string   `json:"cardHolder"`
	ExpiryDateMM    string   `json:"expiryDateMM"`
	ExpiryDateYY    string   `json:"expiryDateYY"`
	CVV             string   `json:"cvv"`
}

// SalesReport summarizes a set of orders. Cancelled orders are excluded from
// every figure.
type SalesReport struct {
	Orders    int                        `json:"orders"`
	Revenue   decimal.Decimal            `json:"revenue"`
	UnitsSold int                        `json:"unitsSold"`
	ByStatus  map[OrderStatus]int        `json:"byStatus"`
	ByPerfume map[string]decimal.Decimal `json:"byPerfume"`
}

// Summarize builds a SalesReport over orders.
func Summarize(orders []Order) SalesReport {
	r := SalesReport{
		Revenue:   decimal.Zero,
		ByStatus:  make(map[OrderStatus]int),
		ByPerfume: make(map[string]decimal.Decimal),
	}
	for _, o := range orders {
		r.ByStatus[o.Status]++
		if o.Status == OrderCancelled {
			continue
		}
		r.Orders++
		r.Revenue = r.Revenue.Add(o.TotalAmount)
		for _, it := range o.Items {
			r.UnitsSold += it.Quantity
			r.ByPerfume[it.PerfumeName] = r.ByPerfume[it.PerfumeName].Add(it.TotalAmount)
		}
	}
	return r
}

type RefundStatus string

const (
	RefundPending  RefundStatus = "PENDING"
	RefundApproved RefundStatus = "APPROVED"
	RefundRejected RefundStatus = "REJECTED"
)

type RefundPerfume struct {
	Brand        string          `json:"brand"`
	PerfumeName  string          `json:"perfumeName"`
	Quantity     int             `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refundAmount"`
}

// Refund is a refund request. Timestamps are milliseconds since the epoch.
type Refund struct {
	RefundRequestID   string          `json:"refundRequestId"`
	OrderID           string          `json:"orderId"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	Items             []RefundPerfume `json:"items"`
	OrderDate         int64           `json:"orderDate"`
	CreatedAt         int64           `json:"createdAt"`
	Status            RefundStatus    `json:"status"`
	TotalRefundAmount decimal.Decimal `json:"totalRefundAmount"`
	UserID            string          `json:"userId"`
	UserName          string          `json:"userName"`
	UserEmail         string          `json:"userEmail"`
}

// RefundLine names one order line to refund.
type RefundLine struct {
	PerfumeID string `json:"perfumeId"`
	Volume    int    `json:"volume"`
	Quantity  int    `json:"quantity"`
}

// RefundRequest is the body of POST /orders/:orderId/refundRequests.
type RefundRequest struct {
	Items []RefundLine `json:"items"`
}

// FilterRefunds keeps the refunds in the given status; an empty status keeps all.
func FilterRefunds(refunds []Refund, status RefundStatus) []Refund {
	if status == "" {
		return refunds
	}
	out := make([]Refund, 0, len(refunds))
	for _, r := range refunds {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
