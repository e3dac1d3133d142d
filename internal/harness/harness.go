package harness

import (
	"fmt"
	"sync"
	"time"

	"github.com/setpoint-dev/setpoint/internal/config"
	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/device"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/testutil"
)

// baseTime anchors every scenario at the same instant so traces and golden
// files are reproducible.
var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TraceEvent is one observable step outcome. Pointer fields distinguish
// "not applicable to this step kind" from a legitimate zero.
type TraceEvent struct {
	Step     string `json:"step"` // "read" | "attempt"
	At       string `json:"at"`   // offset from scenario start
	Device   *int   `json:"device,omitempty"`
	Value    string `json:"value,omitempty"`
	Executed *int   `json:"executed,omitempty"`
	Failed   *int   `json:"failed,omitempty"`
	Pending  *int   `json:"pending,omitempty"`
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`

	// Failures holds assertion failures; empty means the scenario passed.
	Failures []string `json:"-"`
}

// cell is a settable reading staged for an input's command.
type cell struct {
	mu    sync.Mutex
	value io.Value
}

func (c *cell) set(v io.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

func (c *cell) read() (io.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return nil, fmt.Errorf("no reading staged")
	}
	return c.value, nil
}

// Run executes a scenario: build the group from the inline config with
// staged-cell input commands and null output commands, walk the timeline,
// then evaluate assertions against the final state.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := scenario.ResolveConfig()
	if err != nil {
		return nil, err
	}

	clock := testutil.NewClock(baseTime)

	cells := make(map[int]*cell)
	cmds := config.Commands{Inputs: make(map[int]device.InputCommand)}
	for _, d := range cfg.Devices {
		if d.Direction != io.DirectionInput {
			continue
		}
		c := &cell{}
		cells[d.ID] = c
		cmds.Inputs[d.ID] = c.read
	}

	g, err := config.Build(cfg, clock, cmds)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	result := &Result{Scenario: scenario.Name}

	for i, step := range scenario.Steps {
		switch {
		case step.Advance != "":
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", scenario.Name, i, err)
			}
			clock.Advance(d)

		case step.Read != nil:
			value, err := io.ParseValue(step.Read.Value)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", scenario.Name, i, err)
			}
			c, ok := cells[step.Read.Device]
			if !ok {
				return nil, fmt.Errorf("scenario %q step %d: device %d is not an input", scenario.Name, i, step.Read.Device)
			}
			in, _ := g.Inputs().Get(step.Read.Device)
			c.set(value)
			event, err := in.Read()
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", scenario.Name, i, err)
			}
			deviceID := step.Read.Device
			result.Trace = append(result.Trace, TraceEvent{
				Step:   "read",
				At:     offset(clock.Now()),
				Device: &deviceID,
				Value:  event.Value.String(),
			})

		case step.Attempt:
			before := g.Scheduler().Len()
			failures := g.AttemptRoutines()
			pending := g.Scheduler().Len()
			failed := len(failures)
			// Count only successful executions: removed routines minus
			// failures, with requeued failures added back to the removal
			// count since they rejoined the queue.
			executed := before - pending + requeued(failures) - failed
			result.Trace = append(result.Trace, TraceEvent{
				Step:     "attempt",
				At:       offset(clock.Now()),
				Executed: &executed,
				Failed:   &failed,
				Pending:  &pending,
			})

		default:
			return nil, fmt.Errorf("scenario %q step %d: empty step", scenario.Name, i)
		}
	}

	result.Failures = evaluateAssertions(scenario, g)
	return result, nil
}

// requeued counts failures whose routine went back onto the queue, so the
// executed count stays honest under the requeue policy.
func requeued(failures []*control.RoutineError) int {
	n := 0
	for _, f := range failures {
		if f.Requeued {
			n++
		}
	}
	return n
}

func offset(now time.Time) string {
	return now.Sub(baseTime).String()
}
