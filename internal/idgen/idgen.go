// Package idgen generates idempotency keys for state-changing API calls.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique request keys.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 keys.
//
// UUIDv7 embeds a timestamp in the most significant bits, so keys in the
// cart journal sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined keys for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	keys   []string
	idx    int
	prefix string
}

// NewFixedGenerator creates a generator that returns keys in order.
// Once the list is exhausted it continues with "key-<n>".
//
//	gen := NewFixedGenerator("k1", "k2")
//	gen.Generate() // "k1"
//	gen.Generate() // "k2"
//	gen.Generate() // "key-3"
func NewFixedGenerator(keys ...string) *FixedGenerator {
	return &FixedGenerator{keys: keys, prefix: "key"}
}

// NewSequenceGenerator returns "<prefix>-1", "<prefix>-2", ...
func NewSequenceGenerator(prefix string) *FixedGenerator {
	return &FixedGenerator{prefix: prefix}
}

// Generate returns the next predetermined key.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.keys) {
		return g.keys[g.idx-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.idx)
}
