package api

import (
	"context"
	"net/http"

	"github.com/roach88/perfumery/internal/model"
)

// Orders lists the signed-in user's orders.
func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	return list[model.Order](ctx, c, call{method: http.MethodGet, path: "/orders"})
}

// AllOrders lists every order. Manager roles only.
func (c *Client) AllOrders(ctx context.Context) ([]model.Order, error) {
	return list[model.Order](ctx, c, call{method: http.MethodGet, path: "/orders/all"})
}

// MakeOrder places an order for the contents of the server cart.
func (c *Client) MakeOrder(ctx context.Context, req model.MakeOrderRequest) (model.Order, error) {
	if req.CampaignIDs == nil {
		req.CampaignIDs = []string{}
	}
	return one[model.Order](ctx, c, call{method: http.MethodPost, path: "/orders", body: req, keyed: true})
}

// UpdateOrderStatus moves an order to status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   pathf("orders", "updateStatus", orderID, string(status)),
		safe:   true,
	}, nil)
}

// RequestRefund asks for a refund of some lines of an order.
func (c *Client) RequestRefund(ctx context.Context, orderID string, req model.RefundRequest) (model.Refund, error) {
	return one[model.Refund](ctx, c, call{
		method: http.MethodPost,
		path:   pathf("orders", orderID, "refundRequests"),
		body:   req,
		keyed:  true,
	})
}

// RefundRequests lists the signed-in user's refund requests.
func (c *Client) RefundRequests(ctx context.Context) ([]model.Refund, error) {
	return list[model.Refund](ctx, c, call{method: http.MethodGet, path: "/orders/refundRequests"})
}

// AllRefundRequests lists every refund request. Sales managers only.
func (c *Client) AllRefundRequests(ctx context.Context) ([]model.Refund, error) {
	return list[model.Refund](ctx, c, call{method: http.MethodGet, path: "/orders/refundRequests/all"})
}

// ApproveRefund approves a refund request.
func (c *Client) ApproveRefund(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("orders", "refundRequests", id, "approve"), safe: true}, nil)
}

// RejectRefund rejects a refund request.
func (c *Client) RejectRefund(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("orders", "refundRequests", id, "reject"), safe: true}, nil)
}

// Discounts lists discount campaigns.
func (c *Client) Discounts(ctx context.Context) ([]model.Discount, error) {
	return list[model.Discount](ctx, c, call{method: http.MethodGet, path: "/discounts"})
}

// CreateDiscount starts a discount campaign.
func (c *Client) CreateDiscount(ctx context.Context, d model.NewDiscount) (model.Discount, error) {
	if d.PerfumeIDs == nil {
		d.PerfumeIDs = []string{}
	}
	return one[model.Discount](ctx, c, call{method: http.MethodPost, path: "/discounts", body: d, keyed: true})
}

// DeleteDiscount ends a discount campaign.
func (c *Client) DeleteDiscount(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: pathf("discounts", id)}, nil)
}
