package api

import (
	"context"
	"net/http"

	"github.com/roach88/perfumery/internal/model"
)

// SearchPerfumes lists perfumes matching filter. The filter is normalized
// first so equal filters send equal bodies.
func (c *Client) SearchPerfumes(ctx context.Context, filter model.PerfumeFilter) ([]model.Perfume, error) {
	return list[model.Perfume](ctx, c, call{method: http.MethodPost, path: "/perfumes", body: filter.Normalize(), safe: true})
}

// GetPerfume returns one perfume with its rating and active discount.
func (c *Client) GetPerfume(ctx context.Context, id string) (model.PerfumeDetail, error) {
	return one[model.PerfumeDetail](ctx, c, call{method: http.MethodGet, path: pathf("perfumes", id)})
}

// AddPerfume creates a catalog entry.
func (c *Client) AddPerfume(ctx context.Context, p model.Perfume) (model.Perfume, error) {
	return one[model.Perfume](ctx, c, call{method: http.MethodPost, path: "/perfumes/add", body: p, keyed: true})
}

// UpdatePerfume patches the catalog entry id with the non-zero fields of p.
func (c *Client) UpdatePerfume(ctx context.Context, id string, p model.Perfume) (model.Perfume, error) {
	return one[model.Perfume](ctx, c, call{method: http.MethodPatch, path: pathf("perfumes", "update", id), body: p})
}

// DeletePerfume removes a catalog entry.
func (c *Client) DeletePerfume(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: pathf("perfumes", "remove", id)}, nil)
}

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	return list[model.Category](ctx, c, call{method: http.MethodGet, path: "/categories"})
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, nc model.NewCategory) (model.Category, error) {
	return one[model.Category](ctx, c, call{method: http.MethodPost, path: "/categories", body: nc})
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: pathf("categories", id)}, nil)
}

type wishlistBody struct {
	PerfumeID string `json:"perfumeId"`
}

// Wishlist lists the signed-in user's saved perfumes.
func (c *Client) Wishlist(ctx context.Context) ([]model.Perfume, error) {
	return list[model.Perfume](ctx, c, call{method: http.MethodGet, path: "/wishlist"})
}

// AddToWishlist saves a perfume.
func (c *Client) AddToWishlist(ctx context.Context, perfumeID string) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/wishlist/add", body: wishlistBody{PerfumeID: perfumeID}, safe: true}, nil)
}

// RemoveFromWishlist drops a saved perfume.
func (c *Client) RemoveFromWishlist(ctx context.Context, perfumeID string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/wishlist/remove", body: wishlistBody{PerfumeID: perfumeID}}, nil)
}
