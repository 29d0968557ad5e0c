package api

import "context"

// Most endpoints wrap their payload as {"message", "items"} or
// {"message", "item"}.

type itemsResponse[T any] struct {
	Message string `json:"message"`
	Items   []T    `json:"items"`
}

type itemResponse[T any] struct {
	Message string `json:"message"`
	Item    T      `json:"item"`
}

func list[T any](ctx context.Context, c *Client, cl call) ([]T, error) {
	var resp itemsResponse[T]
	if err := c.do(ctx, cl, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []T{}, nil
	}
	return resp.Items, nil
}

func one[T any](ctx context.Context, c *Client, cl call) (T, error) {
	var resp itemResponse[T]
	if err := c.do(ctx, cl, &resp); err != nil {
		var zero T
		return zero, err
	}
	return resp.Item, nil
}
