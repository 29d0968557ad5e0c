package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one basket session to replay.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Setup steps run before the flow. Their expect clauses are ignored.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the session under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one client operation or backend manipulation.
type Step struct {
	Do string `yaml:"do"`

	Email    string `yaml:"email,omitempty"`
	Password string `yaml:"password,omitempty"` // defaults to the seeded password

	Perfume  string `yaml:"perfume,omitempty"`
	Volume   int    `yaml:"volume,omitempty"`
	Quantity int    `yaml:"quantity,omitempty"`

	Items []Line `yaml:"items,omitempty"` // server_cart

	Method string `yaml:"method,omitempty"` // fail
	Path   string `yaml:"path,omitempty"`
	Status int    `yaml:"status,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Line is a cart line in scenario files.
type Line struct {
	Perfume  string `yaml:"perfume"`
	Volume   int    `yaml:"volume"`
	Quantity int    `yaml:"quantity"`
}

// ExpectClause checks the outcome of a single step.
type ExpectClause struct {
	// Error is the expected API error code. Empty means the step succeeds.
	Error string `yaml:"error,omitempty"`

	// Units is the expected basket unit count after the step.
	Units *int `yaml:"units,omitempty"`

	// Fired is the expected number of timers a fire step ran.
	Fired *int `yaml:"fired,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Request is "METHOD /path" (request_count).
	Request string `yaml:"request,omitempty"`

	// Count is the expected occurrences (request_count, pending).
	Count int `yaml:"count,omitempty"`

	// Requests is the expected serving order (request_order).
	Requests []string `yaml:"requests,omitempty"`

	// Lines maps "perfume/volume" keys such as "p1/50ml" to quantities
	// (basket, server_cart).
	Lines map[string]int `yaml:"lines,omitempty"`

	// Email selects the server cart (server_cart).
	Email string `yaml:"email,omitempty"`

	// SignedIn is the expected final session state (session).
	SignedIn bool `yaml:"signed_in,omitempty"`
}

// Step names.
const (
	StepLogin      = "login"
	StepLogout     = "logout"
	StepAdd        = "add"
	StepRemove     = "remove"
	StepClear      = "clear"
	StepSync       = "sync"
	StepLoad       = "load"
	StepFlush      = "flush"
	StepFire       = "fire"
	StepExpire     = "expire"
	StepFail       = "fail"
	StepServerCart = "server_cart"
)

// Assertion type constants.
const (
	AssertRequestCount = "request_count"
	AssertRequestOrder = "request_order"
	AssertBasket       = "basket"
	AssertServerCart   = "server_cart"
	AssertSession      = "session"
	AssertPending      = "pending"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		names[s.Name] = filepath.Base(p)
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st Step) error {
	switch st.Do {
	case "":
		return fmt.Errorf("do is required")
	case StepLogin:
		if st.Email == "" {
			return fmt.Errorf("email is required for login")
		}
	case StepAdd:
		if st.Perfume == "" || st.Volume <= 0 {
			return fmt.Errorf("perfume and a positive volume are required for add")
		}
	case StepRemove:
		if st.Perfume == "" || st.Volume <= 0 {
			return fmt.Errorf("perfume and a positive volume are required for remove")
		}
	case StepFail:
		if st.Method == "" || !strings.HasPrefix(st.Path, "/") || st.Status < 400 {
			return fmt.Errorf("method, path and an error status are required for fail")
		}
	case StepServerCart:
		if st.Email == "" {
			return fmt.Errorf("email is required for server_cart")
		}
	case StepLogout, StepClear, StepSync, StepLoad, StepFlush, StepFire, StepExpire:
	default:
		return fmt.Errorf("unknown step %q", st.Do)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRequestCount:
		if _, _, ok := strings.Cut(a.Request, " "); !ok {
			return fmt.Errorf("assertions[%d]: request must be \"METHOD /path\" for request_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
	case AssertRequestOrder:
		if len(a.Requests) == 0 {
			return fmt.Errorf("assertions[%d]: requests list is required for request_order", index)
		}
	case AssertServerCart:
		if a.Email == "" {
			return fmt.Errorf("assertions[%d]: email is required for server_cart", index)
		}
	case AssertBasket, AssertSession:
	case AssertPending:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pending", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
