package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/roach88/perfumery/internal/model"
)

// cartResponse accepts both known cart envelopes: {"cart": {...}} and the
// older {"items": {...}} where "items" holds the cart object. A bare line
// array under "items" is accepted too.
type cartResponse struct {
	Message string          `json:"message"`
	Cart    *model.Cart     `json:"cart"`
	Items   json.RawMessage `json:"items"`
}

func (r cartResponse) cart() (model.Cart, error) {
	if r.Cart != nil {
		return normalizeCart(*r.Cart), nil
	}
	raw := bytes.TrimSpace(r.Items)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return normalizeCart(model.Cart{}), nil
	case raw[0] == '{':
		var c model.Cart
		if err := json.Unmarshal(raw, &c); err != nil {
			return model.Cart{}, errors.Wrap(err, "decode cart")
		}
		return normalizeCart(c), nil
	case raw[0] == '[':
		var items []model.CartItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return model.Cart{}, errors.Wrap(err, "decode cart items")
		}
		return model.NewCart(items), nil
	default:
		return model.Cart{}, errors.Errorf("decode cart: unexpected items %.20q", raw)
	}
}

func normalizeCart(c model.Cart) model.Cart {
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	return c
}

func (c *Client) cartCall(ctx context.Context, cl call) (model.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, cl, &resp); err != nil {
		return model.Cart{}, err
	}
	return resp.cart()
}

// GetCart fetches the server cart.
func (c *Client) GetCart(ctx context.Context) (model.Cart, error) {
	return c.cartCall(ctx, call{method: http.MethodGet, path: "/cart"})
}

// SyncCart replaces the server cart with items and returns the result.
func (c *Client) SyncCart(ctx context.Context, items []model.SyncItem) (model.Cart, error) {
	if items == nil {
		items = []model.SyncItem{}
	}
	return c.cartCall(ctx, call{
		method: http.MethodPost,
		path:   "/cart/sync",
		body:   model.SyncCartRequest{Items: items},
		keyed:  true,
	})
}

// AddToCart adds item to the server cart.
func (c *Client) AddToCart(ctx context.Context, item model.SyncItem) (model.Cart, error) {
	return c.cartCall(ctx, call{method: http.MethodPost, path: "/cart/add", body: item, keyed: true})
}

// RemoveFromCart removes item.Quantity units of the line from the server cart.
func (c *Client) RemoveFromCart(ctx context.Context, item model.SyncItem) (model.Cart, error) {
	return c.cartCall(ctx, call{method: http.MethodPost, path: "/cart/remove", body: item, keyed: true})
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/cart/clear", keyed: true}, nil)
}
