// Package harness provides a scenario-driven conformance harness for the
// control loop.
//
// A scenario is a YAML file pairing an inline deployment config with a
// timeline of steps: stage a reading on an input, advance the deterministic
// clock, drain due routines. The harness executes the timeline against a
// fully wired group (null hardware, manual clock), records an ordered
// trace, evaluates the scenario's assertions, and optionally compares the
// trace against a golden file.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/setpoint-dev/setpoint/internal/config"
)

// Scenario is one conformance scenario.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are stored
	// under testdata/golden/{Name}.golden.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Config is the inline deployment config, in the same shape the
	// config package loads from disk. It is validated against the same
	// CUE schema.
	Config yaml.Node `yaml:"config"`

	// Steps is the timeline to execute, in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final group state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one timeline entry. Exactly one of the fields is meaningful.
type Step struct {
	// Advance moves the harness clock forward, e.g. "2s".
	Advance string `yaml:"advance,omitempty"`

	// Read stages a value on an input device and polls it once.
	Read *ReadStep `yaml:"read,omitempty"`

	// Attempt drains every due routine from the shared scheduler.
	Attempt bool `yaml:"attempt,omitempty"`
}

// ReadStep stages one reading.
type ReadStep struct {
	Device int `yaml:"device"`
	Value  any `yaml:"value"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Device selects the device log for log assertions.
	Device int `yaml:"device,omitempty"`

	// Count is the expected size (scheduler_len, log_count).
	Count int `yaml:"count,omitempty"`

	// Value is the expected logged value (log_contains).
	Value any `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertSchedulerEmpty = "scheduler_empty"
	AssertSchedulerLen   = "scheduler_len"
	AssertLogCount       = "log_count"
	AssertLogContains    = "log_contains"
)

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	return &s, nil
}

// ResolveConfig validates and resolves the scenario's inline config with
// the same pipeline (CUE schema included) that on-disk configs go through.
func (s *Scenario) ResolveConfig() (*config.Config, error) {
	raw, err := yaml.Marshal(&s.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: re-encode config: %w", s.Name, err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return cfg, nil
}
