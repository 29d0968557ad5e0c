package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One guest add"
flow:
  - do: add
    perfume: p1
    volume: 50
assertions:
  - type: basket
    lines: { p1/50ml: 1 }
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "One guest add", scenario.Description)
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, StepAdd, scenario.Flow[0].Do)
	assert.Equal(t, "p1", scenario.Flow[0].Perfume)
	assert.Equal(t, 50, scenario.Flow[0].Volume)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, map[string]int{"p1/50ml": 1}, scenario.Assertions[0].Lines)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_ExpectClause(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: expect
description: "expect fields"
flow:
  - do: fire
    expect:
      fired: 0
      units: 0
  - do: sync
    expect:
      error: INVALID_TOKEN
assertions:
  - type: pending
    count: 0
`))
	require.NoError(t, err)
	require.NotNil(t, s.Flow[0].Expect)
	require.NotNil(t, s.Flow[0].Expect.Fired)
	assert.Equal(t, 0, *s.Flow[0].Expect.Fired)
	require.NotNil(t, s.Flow[0].Expect.Units)
	assert.Nil(t, s.Flow[1].Expect.Units)
	assert.Equal(t, "INVALID_TOKEN", s.Flow[1].Expect.Error)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nflwo: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nflow: [{do: sync}]\nassertions: [{type: basket}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nflow: [{do: sync}]\nassertions: [{type: basket}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: d\nassertions: [{type: basket}]\n",
			wantErr: "flow list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: d\nflow: [{do: sync}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown step",
			yaml:    "name: x\ndescription: d\nflow: [{do: dance}]\nassertions: [{type: basket}]\n",
			wantErr: `flow[0]: unknown step "dance"`,
		},
		{
			name:    "login without email",
			yaml:    "name: x\ndescription: d\nflow: [{do: login}]\nassertions: [{type: basket}]\n",
			wantErr: "email is required for login",
		},
		{
			name:    "add without volume",
			yaml:    "name: x\ndescription: d\nflow: [{do: add, perfume: p1}]\nassertions: [{type: basket}]\n",
			wantErr: "positive volume",
		},
		{
			name:    "fail with success status",
			yaml:    "name: x\ndescription: d\nflow: [{do: fail, method: POST, path: /cart/sync, status: 200}]\nassertions: [{type: basket}]\n",
			wantErr: "error status",
		},
		{
			name:    "setup step checked",
			yaml:    "name: x\ndescription: d\nsetup: [{do: server_cart}]\nflow: [{do: sync}]\nassertions: [{type: basket}]\n",
			wantErr: "setup[0]: email is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nflow: [{do: sync}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "request_count without path",
			yaml:    "name: x\ndescription: d\nflow: [{do: sync}]\nassertions: [{type: request_count, request: POST}]\n",
			wantErr: "METHOD /path",
		},
		{
			name:    "request_order empty",
			yaml:    "name: x\ndescription: d\nflow: [{do: sync}]\nassertions: [{type: request_order}]\n",
			wantErr: "requests list is required",
		},
		{
			name:    "server_cart without email",
			yaml:    "name: x\ndescription: d\nflow: [{do: sync}]\nassertions: [{type: server_cart}]\n",
			wantErr: "email is required for server_cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(minimalScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(minimalScenario), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "minimal" already used by a.yaml`)
}

func TestLoadScenarios_Sorted(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"debounced_resync", "expired_session", "guest_merge", "logout", "sync_retry"}, names)
}
