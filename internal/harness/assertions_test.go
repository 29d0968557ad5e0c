package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/model"
)

func sampleTrace() []TraceEvent {
	reqs := []string{"POST /auth/login", "GET /cart", "POST /cart/sync", "POST /cart/add", "POST /cart/sync"}
	out := make([]TraceEvent, len(reqs))
	for i, r := range reqs {
		out[i] = TraceEvent{Seq: i + 1, Request: r, Status: 200, line: r + " -> 200"}
	}
	return out
}

func TestAssertRequestCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertRequestCount(trace, Assertion{Request: "POST /cart/sync", Count: 2}))
	assert.NoError(t, assertRequestCount(trace, Assertion{Request: "POST /cart/clear", Count: 0}))

	err := assertRequestCount(trace, Assertion{Request: "POST /cart/add", Count: 3})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertRequestCount, ae.Type)
	assert.Equal(t, "1 occurrences", ae.Actual)
	assert.Contains(t, err.Error(), "[4] POST /cart/add -> 200")
}

func TestAssertRequestOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name     string
		requests []string
		wantErr  bool
	}{
		{"consecutive", []string{"POST /auth/login", "GET /cart"}, false},
		{"gaps allowed", []string{"POST /auth/login", "POST /cart/add"}, false},
		{"repeated request", []string{"POST /cart/sync", "POST /cart/add", "POST /cart/sync"}, false},
		{"wrong order", []string{"POST /cart/add", "GET /cart"}, true},
		{"missing", []string{"POST /cart/clear"}, true},
		{"too many repeats", []string{"POST /cart/sync", "POST /cart/sync", "POST /cart/sync"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertRequestOrder(trace, Assertion{Requests: tt.requests})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertLines(t *testing.T) {
	items := []model.CartItem{
		{PerfumeID: "p1", Volume: 50, Quantity: 2},
		{PerfumeID: "p2", Volume: 30, Quantity: 1},
	}

	assert.NoError(t, assertLines(AssertBasket, items, map[string]int{"p2/30ml": 1, "p1/50ml": 2}))
	assert.NoError(t, assertLines(AssertBasket, nil, map[string]int{}))
	assert.NoError(t, assertLines(AssertBasket, nil, nil))

	err := assertLines(AssertBasket, items, map[string]int{"p1/50ml": 3, "p2/30ml": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: p1/50ml x3, p2/30ml x1")
	assert.Contains(t, err.Error(), "Actual: p1/50ml x2, p2/30ml x1")

	err = assertLines(AssertServerCart, items[:1], map[string]int{"p1/50ml": 2, "p2/30ml": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: server_cart")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.SignedIn = true

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertRequestCount, Request: "GET /cart", Count: 1},
		{Type: AssertSession, SignedIn: true},
		{Type: AssertPending, Count: 0},
		{Type: AssertBasket},
	}, &AssertionContext{})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertSession, SignedIn: false},
		{Type: AssertPending, Count: 1},
		{Type: AssertServerCart, Email: "alice@example.com"},
		{Type: "bogus"},
	}, nil)
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0], "signed_in=false")
	assert.Contains(t, errs[1], "1 armed resync(s)")
	assert.Contains(t, errs[2], "server_cart requires the backend")
	assert.Contains(t, errs[3], `unknown assertion type "bogus"`)
}
