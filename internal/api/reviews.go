package api

import (
	"context"
	"net/http"

	"github.com/roach88/perfumery/internal/model"
)

// PublicReviews lists the approved reviews of a perfume.
func (c *Client) PublicReviews(ctx context.Context, perfumeID string) ([]model.Review, error) {
	var resp struct {
		Reviews []model.Review `json:"reviews"`
	}
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("review", perfumeID, "public")}, &resp); err != nil {
		return nil, err
	}
	if resp.Reviews == nil {
		return []model.Review{}, nil
	}
	return resp.Reviews, nil
}

// WriteReview submits a review for moderation.
func (c *Client) WriteReview(ctx context.Context, perfumeID string, r model.NewReview) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("review", perfumeID), body: r}, nil)
}

// Rating returns the rating summary of a perfume, including the signed-in
// user's own rating when there is one.
func (c *Client) Rating(ctx context.Context, perfumeID string) (model.AverageRating, error) {
	var resp struct {
		Rating model.AverageRating `json:"rating"`
	}
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("review", "rating", perfumeID)}, &resp); err != nil {
		return model.AverageRating{}, err
	}
	return resp.Rating, nil
}

// Rate sets the signed-in user's rating of a perfume.
func (c *Client) Rate(ctx context.Context, perfumeID string, r model.NewRating) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("review", "rating", perfumeID), body: r, safe: true}, nil)
}

// AllReviews lists every review for moderation.
func (c *Client) AllReviews(ctx context.Context) ([]model.ReviewExtended, error) {
	var resp struct {
		Reviews []model.ReviewExtended `json:"reviews"`
	}
	if err := c.do(ctx, call{method: http.MethodGet, path: "/review/all"}, &resp); err != nil {
		return nil, err
	}
	if resp.Reviews == nil {
		return []model.ReviewExtended{}, nil
	}
	return resp.Reviews, nil
}

// ApproveReview publishes a review.
func (c *Client) ApproveReview(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("review", "approve", id), safe: true}, nil)
}

// RejectReview rejects a review.
func (c *Client) RejectReview(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPost, path: pathf("review", "reject", id), safe: true}, nil)
}
