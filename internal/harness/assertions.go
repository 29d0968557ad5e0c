package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/perfumery/internal/apitest"
	"github.com/roach88/perfumery/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event)
		}
	}
	return buf.String()
}

// assertRequestCount checks that a request was served exactly Count times.
func assertRequestCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Request == assertion.Request {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Request),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertRequestOrder checks that the requests appear in order.
// Requests don't need to be consecutive (intervening requests are allowed).
func assertRequestOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Requests) && event.Request == assertion.Requests[next] {
			next++
		}
	}
	if next == len(assertion.Requests) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRequestOrder,
		Expected: fmt.Sprintf("requests in order: %v", assertion.Requests),
		Actual:   fmt.Sprintf("no %s after the first %d", assertion.Requests[next], next),
		Trace:    trace,
	}
}

// assertLines compares cart lines with the expected key -> quantity map.
func assertLines(kind string, items []model.CartItem, want map[string]int) error {
	got := make(map[string]int, len(items))
	for _, it := range items {
		got[it.Key().String()] = it.Quantity
	}
	if len(got) == len(want) {
		same := true
		for k, q := range want {
			if got[k] != q {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return &AssertionError{
		Type:     kind,
		Expected: formatLines(want),
		Actual:   formatLines(got),
	}
}

// formatLines renders lines sorted by key.
func formatLines(lines map[string]int) string {
	if len(lines) == 0 {
		return "(empty)"
	}
	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s x%d", k, lines[k])
	}
	return strings.Join(parts, ", ")
}

// AssertionContext provides the final client and backend state.
type AssertionContext struct {
	Server  *apitest.Server
	Pending int
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the backend for server_cart assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRequestCount:
			err = assertRequestCount(result.Trace, assertion)
		case AssertRequestOrder:
			err = assertRequestOrder(result.Trace, assertion)
		case AssertBasket:
			err = assertLines(AssertBasket, result.Basket, assertion.Lines)
		case AssertServerCart:
			if actx == nil || actx.Server == nil {
				err = fmt.Errorf("assertion[%d]: server_cart requires the backend", i)
			} else {
				err = assertLines(AssertServerCart, actx.Server.Cart(assertion.Email), assertion.Lines)
			}
		case AssertSession:
			if result.SignedIn != assertion.SignedIn {
				err = &AssertionError{
					Type:     AssertSession,
					Expected: fmt.Sprintf("signed_in=%t", assertion.SignedIn),
					Actual:   fmt.Sprintf("signed_in=%t", result.SignedIn),
				}
			}
		case AssertPending:
			pending := 0
			if actx != nil {
				pending = actx.Pending
			}
			if pending != assertion.Count {
				err = &AssertionError{
					Type:     AssertPending,
					Expected: fmt.Sprintf("%d armed resync(s)", assertion.Count),
					Actual:   fmt.Sprintf("%d armed resync(s)", pending),
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
