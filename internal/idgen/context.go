package idgen

import "context"

type keyContextKey struct{}

// WithKey attaches an idempotency key to ctx. The API client sends it as the
// Idempotency-Key header and reuses it across retries of the same call.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, keyContextKey{}, key)
}

// KeyFrom returns the key attached by WithKey.
func KeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(keyContextKey{}).(string)
	return key, ok && key != ""
}
