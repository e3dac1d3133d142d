package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/io"
)

const validYAML = `
group: main tank
interval: 5s
failure_policy: requeue
devices:
  - id: 0
    name: ph probe
    kind: ph
    direction: input
  - id: 1
    name: dosing pump
    direction: output
controllers:
  - name: ph ceiling
    input: 0
    output: 1
    comparison: ge
    threshold: 9.0
    delay: 2s
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "main tank", cfg.Group)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, control.RequeueOnFailure, cfg.FailurePolicy)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, io.KindPH, cfg.Devices[0].Kind)
	assert.Equal(t, io.DirectionInput, cfg.Devices[0].Direction)
	assert.Equal(t, io.KindUnassigned, cfg.Devices[1].Kind)
	assert.Equal(t, io.DirectionOutput, cfg.Devices[1].Direction)

	require.Len(t, cfg.Controllers, 1)
	ctrl := cfg.Controllers[0]
	assert.Equal(t, "ph ceiling", ctrl.Name)
	assert.Equal(t, 0, ctrl.Input)
	require.NotNil(t, ctrl.Output)
	assert.Equal(t, 1, *ctrl.Output)
	assert.Equal(t, control.GreaterOrEqual, ctrl.Comparison)
	assert.Equal(t, io.Float(9.0), ctrl.Threshold)
	assert.Equal(t, io.Binary(true), ctrl.Write, "write defaults to on")
	assert.Equal(t, 2*time.Second, ctrl.Delay)
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "negative device id",
			yaml: `
group: g
interval: 1s
devices:
  - id: -1
    name: probe
    direction: input
`,
		},
		{
			name: "empty device name",
			yaml: `
group: g
interval: 1s
devices:
  - id: 0
    name: ""
    direction: input
`,
		},
		{
			name: "unknown kind",
			yaml: `
group: g
interval: 1s
devices:
  - id: 0
    name: probe
    kind: sentiment
    direction: input
`,
		},
		{
			name: "bad direction",
			yaml: `
group: g
interval: 1s
devices:
  - id: 0
    name: probe
    direction: sideways
`,
		},
		{
			name: "bad comparison",
			yaml: `
group: g
interval: 1s
devices:
  - id: 0
    name: probe
    direction: input
controllers:
  - name: c
    input: 0
    comparison: sorta
    threshold: 1
`,
		},
		{
			name: "missing interval",
			yaml: `
group: g
devices: []
`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_CollectsAllViolations(t *testing.T) {
	_, err := Parse([]byte(`
group: g
interval: 1s
devices:
  - id: -1
    name: ""
    direction: sideways
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid config")
}

func TestParse_BadInterval(t *testing.T) {
	_, err := Parse([]byte(`
group: g
interval: soon
devices: []
`))
	assert.Error(t, err)
}

func TestParse_SymbolicComparison(t *testing.T) {
	cfg, err := Parse([]byte(`
group: g
interval: 1s
devices:
  - id: 0
    name: probe
    direction: input
controllers:
  - name: c
    input: 0
    comparison: ">"
    threshold: 3
`))
	require.NoError(t, err)
	require.Len(t, cfg.Controllers, 1)
	assert.Equal(t, control.GreaterThan, cfg.Controllers[0].Comparison)
	assert.Equal(t, io.Int(3), cfg.Controllers[0].Threshold)
}

func TestParse_NormalizesNames(t *testing.T) {
	// "é" as e + combining acute must resolve equal to the precomposed form.
	decomposed := "café"
	cfg, err := Parse([]byte(`
group: ` + decomposed + `
interval: 1s
devices:
  - id: 0
    name: ` + decomposed + `
    direction: input
`))
	require.NoError(t, err)
	assert.Equal(t, "café", cfg.Group)
	assert.Equal(t, "café", cfg.Devices[0].Name)
}

func TestParse_BooleanThreshold(t *testing.T) {
	cfg, err := Parse([]byte(`
group: g
interval: 1s
devices:
  - id: 0
    name: float switch
    direction: input
controllers:
  - name: high water
    input: 0
    comparison: eq
    threshold: true
`))
	require.NoError(t, err)
	assert.Equal(t, io.Binary(true), cfg.Controllers[0].Threshold)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main tank", cfg.Group)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
