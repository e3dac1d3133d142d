package control

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// Evaluator is a unit of decision logic invoked once per event.
//
// Evaluate never returns an error: its side effects are limited to reading
// the event and pushing at most one routine into a scheduler it has access
// to. Threshold is the concrete implementation shipped here; controllers
// with richer state (PID loops, debounce filters) implement the same
// interface.
type Evaluator interface {
	// Name identifies the evaluator in logs and failure reports.
	Name() string

	// Evaluate inspects one event and optionally schedules a routine.
	Evaluate(*io.Event)
}

// Actuator is the slice of an output device an evaluator needs: enough
// identity to name it, and the ability to mint a deferred write against it.
// The device layer provides the implementation.
type Actuator interface {
	Metadata() io.DeviceMetadata
	CreateRoutine(value io.Value, delay time.Duration) (*Routine, error)
}

// Threshold compares incoming readings against a fixed setpoint and, when
// the comparison holds, schedules a write against its bound actuator.
//
// An unbound Threshold (no actuator) is a valid alert-only configuration:
// the comparison still runs, trips are logged, and no routine is produced.
// Armed reports which mode the evaluator is in.
type Threshold struct {
	name      string
	threshold io.Value
	cmp       Comparison
	sched     *Scheduler

	actuator Actuator
	write    io.Value
	delay    time.Duration
}

// ThresholdOption configures a Threshold at construction.
type ThresholdOption func(*Threshold)

// BindActuator arms the evaluator: when the comparison holds, write is
// scheduled against act.
func BindActuator(act Actuator, write io.Value) ThresholdOption {
	return func(t *Threshold) {
		t.actuator = act
		t.write = write
	}
}

// WithDelay defers scheduled writes by d instead of the default "as soon
// as possible".
func WithDelay(d time.Duration) ThresholdOption {
	return func(t *Threshold) {
		t.delay = d
	}
}

// NewThreshold builds a threshold evaluator that pushes routines into
// sched. The scheduler is required; an actuator binding is not.
func NewThreshold(name string, threshold io.Value, cmp Comparison, sched *Scheduler, opts ...ThresholdOption) (*Threshold, error) {
	if sched == nil {
		return nil, fmt.Errorf("threshold %q: %w", name, ErrNilScheduler)
	}
	t := &Threshold{
		name:      name,
		threshold: threshold,
		cmp:       cmp,
		sched:     sched,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name implements Evaluator.
func (t *Threshold) Name() string { return t.name }

// Armed reports whether an actuator is bound. Unarmed evaluators only
// observe.
func (t *Threshold) Armed() bool { return t.actuator != nil }

// Evaluate implements Evaluator. A trip with no bound actuator is logged
// and otherwise a no-op.
func (t *Threshold) Evaluate(event *io.Event) {
	if !t.cmp.Matches(event.Value, t.threshold) {
		return
	}
	if t.actuator == nil {
		slog.Info("threshold tripped (alert only)",
			"evaluator", t.name,
			"comparison", t.cmp.String(),
			"threshold", t.threshold.String(),
			"value", event.Value.String())
		return
	}
	routine, err := t.actuator.CreateRoutine(t.write, t.delay)
	if err != nil {
		// Constructors reject misconfigured outputs, so this path only
		// fires if an actuator implementation breaks its own contract.
		slog.Error("threshold could not schedule routine",
			"evaluator", t.name,
			"device", t.actuator.Metadata().Name,
			"error", err)
		return
	}
	slog.Debug("threshold scheduled routine",
		"evaluator", t.name,
		"routine", routine.ID(),
		"device", t.actuator.Metadata().Name,
		"due", routine.Due())
	t.sched.Push(routine)
}
