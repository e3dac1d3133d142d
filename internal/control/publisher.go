package control

import (
	"fmt"
	"log/slog"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// Publisher fans events from one input source out to its registered
// evaluators and fronts the scheduler those evaluators push into.
//
// Registration order is invocation order and is never reordered; the
// evaluator list is append-only. One publisher is associated with exactly
// one input source for that source's lifetime.
//
// The scheduler is passed in rather than owned: several publishers feeding
// the same actuator may share one scheduler, and a single-publisher
// scheduler is simply the degenerate case of that discipline.
type Publisher struct {
	evaluators []Evaluator
	sched      *Scheduler
}

// NewPublisher creates a publisher around an existing scheduler.
func NewPublisher(sched *Scheduler) (*Publisher, error) {
	if sched == nil {
		return nil, fmt.Errorf("publisher: %w", ErrNilScheduler)
	}
	return &Publisher{sched: sched}, nil
}

// Subscribe appends an evaluator to the registration list.
func (p *Publisher) Subscribe(e Evaluator) {
	p.evaluators = append(p.evaluators, e)
}

// Evaluators returns the registered evaluators in invocation order.
func (p *Publisher) Evaluators() []Evaluator {
	out := make([]Evaluator, len(p.evaluators))
	copy(out, p.evaluators)
	return out
}

// Propagate invokes Evaluate on every registered evaluator, in
// registration order, synchronously on the calling goroutine.
//
// A panicking evaluator is recovered and reported; it never prevents the
// evaluators after it from seeing the event.
func (p *Publisher) Propagate(event *io.Event) {
	for _, e := range p.evaluators {
		p.notify(e, event)
	}
}

func (p *Publisher) notify(e Evaluator, event *io.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("evaluator panicked",
				"evaluator", e.Name(),
				"device", event.DeviceID,
				"panic", r)
		}
	}()
	e.Evaluate(event)
}

// AttemptRoutines forwards to the underlying scheduler.
func (p *Publisher) AttemptRoutines() []*RoutineError {
	return p.sched.AttemptRoutines()
}

// Handler exposes the shared scheduler handle, so components constructed
// independently of the publisher (a self-scheduling output, a second
// publisher) can enqueue routines without routing through Propagate.
func (p *Publisher) Handler() *Scheduler {
	return p.sched
}
