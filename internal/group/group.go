// Package group aggregates devices, their shared scheduler, and the two
// cadences that drive them: the polling interval that reads inputs and the
// much tighter attempt cadence that executes due routines.
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/device"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/store"
)

// ErrIntervalNotElapsed is returned by Poll when it is called before the
// polling interval has passed. Callers on a tight loop treat it as "not
// yet", not as a failure.
var ErrIntervalNotElapsed = errors.New("polling interval has not elapsed")

// DefaultAttemptCadence is the floor for how often the run loop drains due
// routines. Routine due times are uncorrelated with the polling interval,
// so attempts run as often as practical.
const DefaultAttemptCadence = 10 * time.Millisecond

// Group owns one named collection of inputs and outputs, the scheduler
// their evaluators push routines into, and the poll gate.
//
// All publishers inside a group share the group's single scheduler. That
// is the supported discipline: routines from every input funnel into one
// queue, drained by one attempt loop.
type Group struct {
	name          string
	interval      time.Duration
	lastExecution time.Time
	clock         control.Clock
	sched         *control.Scheduler

	inputs  *device.Container[*device.Input]
	outputs *device.Container[*device.Output]

	store *store.Store
}

// Option configures a Group at construction.
type Option func(*Group)

// WithStore attaches a durable event store; Run flushes device logs into
// it after every poll.
func WithStore(st *store.Store) Option {
	return func(g *Group) {
		g.store = st
	}
}

// WithFailurePolicy sets the scheduler's policy for failed routines.
func WithFailurePolicy(p control.FailurePolicy) Option {
	return func(g *Group) {
		g.sched = control.NewScheduler(g.clock, control.WithFailurePolicy(p))
	}
}

// New creates an empty group. A nil clock defaults to the system clock.
// The first Poll is eligible immediately.
func New(name string, interval time.Duration, clock control.Clock, opts ...Option) *Group {
	if clock == nil {
		clock = control.SystemClock{}
	}
	g := &Group{
		name:          name,
		interval:      interval,
		lastExecution: clock.Now().Add(-interval),
		clock:         clock,
		sched:         control.NewScheduler(clock),
		inputs:        device.NewContainer[*device.Input](),
		outputs:       device.NewContainer[*device.Output](),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the group's name.
func (g *Group) Name() string { return g.name }

// Interval returns the polling interval.
func (g *Group) Interval() time.Duration { return g.interval }

// Scheduler returns the group-wide shared scheduler.
func (g *Group) Scheduler() *control.Scheduler { return g.sched }

// Inputs returns the input registry.
func (g *Group) Inputs() *device.Container[*device.Input] { return g.inputs }

// Outputs returns the output registry.
func (g *Group) Outputs() *device.Container[*device.Output] { return g.outputs }

// PushInput registers an input device under its metadata id.
func (g *Group) PushInput(in *device.Input) error {
	if err := g.inputs.Insert(in.Metadata().ID, in); err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	return nil
}

// PushOutput registers an output device under its metadata id.
func (g *Group) PushOutput(out *device.Output) error {
	if err := g.outputs.Insert(out.Metadata().ID, out); err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	return nil
}

// Poll reads every input once, provided the polling interval has elapsed
// since the previous poll; otherwise it returns ErrIntervalNotElapsed.
//
// A failing read does not halt the pass: successful events are returned
// alongside the joined read errors.
func (g *Group) Poll() ([]*io.Event, error) {
	now := g.clock.Now()
	if now.Before(g.lastExecution.Add(g.interval)) {
		return nil, ErrIntervalNotElapsed
	}
	g.lastExecution = now

	var (
		events   []*io.Event
		readErrs []error
	)
	g.inputs.ForEach(func(id int, in *device.Input) {
		event, err := in.Read()
		if err != nil {
			readErrs = append(readErrs, err)
			return
		}
		events = append(events, event)
	})

	slog.Debug("group polled",
		"group", g.name,
		"events", len(events),
		"errors", len(readErrs))

	return events, errors.Join(readErrs...)
}

// AttemptRoutines drains every due routine from the shared scheduler,
// returning the isolated per-routine failures.
func (g *Group) AttemptRoutines() []*control.RoutineError {
	return g.sched.AttemptRoutines()
}

// FlushLogs writes every device log into the attached store. A group
// without a store flushes nowhere and returns nil.
func (g *Group) FlushLogs(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	var errs []error
	g.inputs.ForEach(func(id int, in *device.Input) {
		if err := in.Log().FlushTo(ctx, g.store); err != nil {
			errs = append(errs, err)
		}
	})
	g.outputs.ForEach(func(id int, out *device.Output) {
		if err := out.Log().FlushTo(ctx, g.store); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Run drives the group until ctx is cancelled: inputs are polled on the
// group interval while due routines are attempted on a far tighter cadence
// (interval/20, floored at DefaultAttemptCadence), since routine due times
// do not line up with polls.
func (g *Group) Run(ctx context.Context) error {
	attemptEvery := g.interval / 20
	if attemptEvery < DefaultAttemptCadence {
		attemptEvery = DefaultAttemptCadence
	}

	pollTicker := time.NewTicker(g.interval)
	defer pollTicker.Stop()
	attemptTicker := time.NewTicker(attemptEvery)
	defer attemptTicker.Stop()

	slog.Info("group running",
		"group", g.name,
		"interval", g.interval,
		"attempt_cadence", attemptEvery,
		"inputs", g.inputs.Len(),
		"outputs", g.outputs.Len())

	// Read once up front so short runs still observe every input.
	if _, err := g.Poll(); err != nil && !errors.Is(err, ErrIntervalNotElapsed) {
		slog.Warn("poll failed", "group", g.name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			if err := g.FlushLogs(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("final log flush failed", "group", g.name, "error", err)
			}
			slog.Info("group stopping", "group", g.name, "reason", ctx.Err())
			return ctx.Err()

		case <-attemptTicker.C:
			for _, re := range g.AttemptRoutines() {
				slog.Warn("routine failed", "group", g.name, "error", re)
			}

		case <-pollTicker.C:
			if _, err := g.Poll(); err != nil && !errors.Is(err, ErrIntervalNotElapsed) {
				slog.Warn("poll failed", "group", g.name, "error", err)
			}
			if err := g.FlushLogs(ctx); err != nil {
				slog.Warn("log flush failed", "group", g.name, "error", err)
			}
		}
	}
}
