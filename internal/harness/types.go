package harness

import (
	"github.com/roach88/perfumery/internal/apitest"
	"github.com/roach88/perfumery/internal/model"
)

// TraceEvent is one request served by the backend, in serving order.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Request string `json:"request"` // "METHOD /path"
	Key     string `json:"key,omitempty"`
	Body    string `json:"body,omitempty"`
	Status  int    `json:"status"`

	line string
}

func traceOf(log []apitest.Request) []TraceEvent {
	out := make([]TraceEvent, len(log))
	for i, r := range log {
		out[i] = TraceEvent{
			Seq:     i + 1,
			Request: r.Method + " " + r.Path,
			Key:     r.Key,
			Body:    r.Body,
			Status:  r.Status,
			line:    r.String(),
		}
	}
	return out
}

// String renders the event the way the backend logs it.
func (e TraceEvent) String() string { return e.line }

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace is the backend request log.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expect and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Basket is the final local basket.
	Basket []model.CartItem `json:"basket"`

	// SignedIn reports the final session state.
	SignedIn bool `json:"signed_in"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Basket: []model.CartItem{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
