package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/apitest"
)

func newHarness(t *testing.T) *Harness {
	t.Helper()
	h, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func intp(n int) *int { return &n }

func TestRun_GuestAddStaysLocal(t *testing.T) {
	h := newHarness(t)

	result, err := h.Run(context.Background(), &Scenario{
		Name: "guest",
		Flow: []Step{
			{Do: StepAdd, Perfume: "p2", Volume: 90, Quantity: 2, Expect: &ExpectClause{Units: intp(2)}},
			{Do: StepFire, Expect: &ExpectClause{Fired: intp(0)}},
		},
		Assertions: []Assertion{
			{Type: AssertRequestCount, Request: "GET /perfumes/p2", Count: 1},
			{Type: AssertBasket, Lines: map[string]int{"p2/90ml": 2}},
			{Type: AssertSession, SignedIn: false},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "GET /perfumes/p2 -> 200", result.Trace[0].String())
}

func TestRun_CatalogFetchedOnce(t *testing.T) {
	h := newHarness(t)

	result, err := h.Run(context.Background(), &Scenario{
		Name: "twice",
		Flow: []Step{
			{Do: StepAdd, Perfume: "p1", Volume: 50},
			{Do: StepAdd, Perfume: "p1", Volume: 100},
		},
		Assertions: []Assertion{{Type: AssertBasket, Lines: map[string]int{"p1/50ml": 1, "p1/100ml": 1}}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, h.Server().RequestsTo("GET", "/perfumes/p1"), 1)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	h := newHarness(t)

	result, err := h.Run(context.Background(), &Scenario{
		Name: "wrong",
		Flow: []Step{
			{Do: StepLogin, Email: apitest.CustomerEmail, Password: "wrong"},
			{Do: StepLogin, Email: apitest.CustomerEmail, Expect: &ExpectClause{Error: "INVALID_CREDENTIALS"}},
			{Do: StepAdd, Perfume: "p1", Volume: 50, Expect: &ExpectClause{Units: intp(5)}},
		},
		Assertions: []Assertion{{Type: AssertPending, Count: 0}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "flow[0] login: unexpected error")
	assert.Contains(t, result.Errors[1], "flow[1] login: expected error INVALID_CREDENTIALS, got success")
	assert.Contains(t, result.Errors[2], "expected 5 unit(s) in the basket, got 1")
	assert.Contains(t, result.Errors[3], "1 armed resync(s)")
}

func TestRun_SetupFailureAborts(t *testing.T) {
	h := newHarness(t)

	_, err := h.Run(context.Background(), &Scenario{
		Name:  "setup",
		Setup: []Step{{Do: StepAdd, Perfume: "p404", Volume: 50}},
		Flow:  []Step{{Do: StepSync}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0 (add)")
}

func TestRun_RemoveAndClearWhileSignedIn(t *testing.T) {
	h := newHarness(t)
	h.Server().SetCart(apitest.CustomerEmail)

	result, err := h.Run(context.Background(), &Scenario{
		Name: "clear",
		Flow: []Step{
			{Do: StepLogin, Email: apitest.CustomerEmail},
			{Do: StepAdd, Perfume: "p1", Volume: 50, Quantity: 3},
			{Do: StepRemove, Perfume: "p1", Volume: 50, Quantity: 1, Expect: &ExpectClause{Units: intp(2)}},
			{Do: StepClear, Expect: &ExpectClause{Units: intp(0)}},
			{Do: StepFire, Expect: &ExpectClause{Fired: intp(0)}},
			{Do: StepLoad, Expect: &ExpectClause{Units: intp(0)}},
		},
		Assertions: []Assertion{
			{Type: AssertRequestOrder, Requests: []string{"POST /cart/add", "POST /cart/remove", "POST /cart/clear", "GET /cart"}},
			{Type: AssertServerCart, Email: apitest.CustomerEmail, Lines: map[string]int{}},
			{Type: AssertPending, Count: 0},
			{Type: AssertSession, SignedIn: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FlushRunsArmedResync(t *testing.T) {
	h := newHarness(t)

	result, err := h.Run(context.Background(), &Scenario{
		Name: "flush",
		Flow: []Step{
			{Do: StepLogin, Email: apitest.CustomerEmail},
			{Do: StepAdd, Perfume: "p1", Volume: 50},
			{Do: StepFlush},
			{Do: StepFire, Expect: &ExpectClause{Fired: intp(0)}},
		},
		Assertions: []Assertion{
			{Type: AssertRequestCount, Request: "POST /cart/sync", Count: 2},
			{Type: AssertPending, Count: 0},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
