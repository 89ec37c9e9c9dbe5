package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	data := []byte(`
name: basic
description: a basic scenario
initial:
  items: [1]
steps:
  - op: bind
    name: items
    path: items
  - op: append
    handle: items
    values: [2]
  - op: resize
    path: items
    len: 0
assertions:
  - type: transitions
    count: 2
  - type: handle_valid
    handle: items
    expect: true
`)
	s, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Equal(t, "basic", s.Name)
	assert.Equal(t, "basic-1", s.InstanceID)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, OpAppend, s.Steps[1].Op)
	assert.Equal(t, []any{2}, s.Steps[1].Values)
	require.NotNil(t, s.Steps[2].Len)
	assert.Equal(t, 0, *s.Steps[2].Len)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, 2, *s.Assertions[0].Count)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: destroy}]\nbogus: 1\n",
			wantErr: "field bogus not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\ninitial: {}\nsteps: [{op: destroy}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\ninitial: {}\nsteps: [{op: destroy}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no state source",
			yaml:    "name: x\ndescription: d\nsteps: [{op: destroy}]\n",
			wantErr: "either models or initial is required",
		},
		{
			name:    "models without model",
			yaml:    "name: x\ndescription: d\nmodels: m\nsteps: [{op: destroy}]\n",
			wantErr: "model is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: splice, path: a}]\n",
			wantErr: `unknown op "splice"`,
		},
		{
			name:    "set without path",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: set, value: 1}]\n",
			wantErr: "path is required for set",
		},
		{
			name:    "bad path",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: set, path: 'a..b', value: 1}]\n",
			wantErr: "empty key",
		},
		{
			name:    "resize without len",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: resize, path: a}]\n",
			wantErr: "len is required",
		},
		{
			name:    "unbound handle",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: set, handle: h, path: a, value: 1}]\n",
			wantErr: `handle "h" is not bound`,
		},
		{
			name:    "unknown error class",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: set, path: a, value: 1, expect_error: boom}]\n",
			wantErr: `unknown expect_error "boom"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: destroy}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "transitions without count",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: destroy}]\nassertions: [{type: transitions}]\n",
			wantErr: "count is required",
		},
		{
			name:    "shared without seqs",
			yaml:    "name: x\ndescription: d\ninitial: {}\nsteps: [{op: destroy}]\nassertions: [{type: shared, path: a, expect: true}]\n",
			wantErr: "from and to are required",
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

func TestLoadScenario_ResolvesModelsDir(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "cart_sharing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scenarioDir, "..", "models"), s.Models)
	assert.Equal(t, "cart-1", s.InstanceID)
}

func TestLoadScenario_MissingModelsDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	content := "name: x\ndescription: d\nmodels: nowhere\nmodel: Cart\nsteps: [{op: destroy}]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models directory not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AllFixturesParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}
