package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats the trace and final basket of a scenario run:
//
//	scenario: guest_merge
//	requests:
//	  01 GET /perfumes/p1 -> 200
//	  02 POST /cart/sync key=k-1 {"items":[...]} -> 200
//	basket:
//	  p1/50ml x2
//
// Lines are stable across runs, so the output can be pinned.
func Render(name string, result *Result) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "scenario: %s\n", name)

	fmt.Fprintln(&b, "requests:")
	if len(result.Trace) == 0 {
		fmt.Fprintln(&b, "  (none)")
	}
	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "  %02d %s\n", ev.Seq, ev)
	}

	fmt.Fprintln(&b, "basket:")
	if len(result.Basket) == 0 {
		fmt.Fprintln(&b, "  (empty)")
	}
	for _, it := range result.Basket {
		fmt.Fprintf(&b, "  %s x%d\n", it.Key(), it.Quantity)
	}
	return b.Bytes()
}

// RunWithGolden executes a scenario and compares the rendered trace
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass; a trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Render(scenario.Name, result))
	return result, nil
}
