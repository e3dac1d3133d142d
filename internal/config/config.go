// Package config loads deployment configuration: which devices exist,
// which controllers watch them, and how fast the group polls.
//
// Loading is two-phase. The raw YAML is first unified against the embedded
// CUE schema, so structural mistakes (unknown kinds, negative ids, missing
// names) fail fast with every violation reported. Only then is the
// document decoded into typed form, durations parsed, and names NFC
// normalized so device identity is stable across config encodings.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/io"
)

//go:embed schema.cue
var schemaCUE string

// Config is the resolved deployment configuration.
type Config struct {
	Group         string
	Interval      time.Duration
	FailurePolicy control.FailurePolicy
	Devices       []Device
	Controllers   []Controller
}

// Device declares one endpoint.
type Device struct {
	ID        int
	Name      string
	Kind      io.Kind
	Direction io.Direction
}

// Controller declares one threshold evaluator watching an input and,
// optionally, driving an output.
type Controller struct {
	Name       string
	Input      int
	Output     *int
	Comparison control.Comparison
	Threshold  io.Value
	Write      io.Value
	Delay      time.Duration
}

// rawConfig mirrors the YAML document before resolution.
type rawConfig struct {
	Group         string          `yaml:"group"`
	Interval      string          `yaml:"interval"`
	FailurePolicy string          `yaml:"failure_policy"`
	Devices       []rawDevice     `yaml:"devices"`
	Controllers   []rawController `yaml:"controllers"`
}

type rawDevice struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Direction string `yaml:"direction"`
}

type rawController struct {
	Name       string `yaml:"name"`
	Input      int    `yaml:"input"`
	Output     *int   `yaml:"output"`
	Comparison string `yaml:"comparison"`
	Threshold  any    `yaml:"threshold"`
	Write      any    `yaml:"write"`
	Delay      string `yaml:"delay"`
}

// Load reads, validates, and resolves a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and resolves a YAML config document.
func Parse(data []byte) (*Config, error) {
	// Schema validation happens over the untyped document so the schema,
	// not Go decoding, is what rejects malformed input.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return resolve(&raw)
}

// validateSchema unifies the document with the embedded #Config schema and
// collects every violation instead of stopping at the first.
func validateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup config schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, fmt.Errorf("invalid config: %s", e.Error()))
		}
		return errors.Join(errs...)
	}
	return nil
}

func resolve(raw *rawConfig) (*Config, error) {
	interval, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return nil, fmt.Errorf("parse interval: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	policy := control.DropOnFailure
	if raw.FailurePolicy == "requeue" {
		policy = control.RequeueOnFailure
	}

	cfg := &Config{
		Group:         norm.NFC.String(raw.Group),
		Interval:      interval,
		FailurePolicy: policy,
	}

	for _, d := range raw.Devices {
		dev := Device{
			ID:   d.ID,
			Name: norm.NFC.String(d.Name),
		}
		if d.Kind != "" {
			if dev.Kind, err = io.ParseKind(d.Kind); err != nil {
				return nil, fmt.Errorf("device %q: %w", d.Name, err)
			}
		}
		if dev.Direction, err = io.ParseDirection(d.Direction); err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		cfg.Devices = append(cfg.Devices, dev)
	}

	for _, c := range raw.Controllers {
		ctrl := Controller{
			Name:   norm.NFC.String(c.Name),
			Input:  c.Input,
			Output: c.Output,
		}
		if ctrl.Comparison, err = control.ParseComparison(c.Comparison); err != nil {
			return nil, fmt.Errorf("controller %q: %w", c.Name, err)
		}
		if ctrl.Threshold, err = io.ParseValue(c.Threshold); err != nil {
			return nil, fmt.Errorf("controller %q threshold: %w", c.Name, err)
		}
		ctrl.Write = io.Binary(true)
		if c.Write != nil {
			if ctrl.Write, err = io.ParseValue(c.Write); err != nil {
				return nil, fmt.Errorf("controller %q write value: %w", c.Name, err)
			}
		}
		if c.Delay != "" {
			if ctrl.Delay, err = time.ParseDuration(c.Delay); err != nil {
				return nil, fmt.Errorf("controller %q delay: %w", c.Name, err)
			}
			if ctrl.Delay < 0 {
				return nil, fmt.Errorf("controller %q delay must not be negative", c.Name)
			}
		}
		cfg.Controllers = append(cfg.Controllers, ctrl)
	}

	return cfg, nil
}
