package control

import (
	"log/slog"
	"sync"
)

// FailurePolicy decides what the scheduler does with a routine whose
// command failed during an attempt pass.
type FailurePolicy int

const (
	// DropOnFailure discards the failed routine and reports the error to
	// the caller. This is the default.
	DropOnFailure FailurePolicy = iota

	// RequeueOnFailure pushes the failed routine back onto the queue (due
	// time unchanged, so it is immediately eligible again) in addition to
	// reporting the error.
	RequeueOnFailure
)

// Scheduler owns pending routines and executes the due ones on demand.
//
// Insertion order is preserved for inspection, but no ordering is promised
// among the routines that execute within a single pass beyond "everything
// due this pass runs this pass".
//
// Concurrency: Push and AttemptRoutines may race freely. Each pass selects
// and removes due routines under one critical section against a single
// clock reading, so a routine executes at most once, ever. A routine pushed
// with a past due time while a pass is in flight lands either in that pass
// or the next; it is never lost. Command execution happens outside the
// lock, so a blocking actuator call cannot starve Push callers.
type Scheduler struct {
	mu      sync.Mutex
	pending []*Routine

	clock  Clock
	policy FailurePolicy
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithFailurePolicy overrides the default DropOnFailure policy.
func WithFailurePolicy(p FailurePolicy) SchedulerOption {
	return func(s *Scheduler) {
		s.policy = p
	}
}

// NewScheduler creates an empty scheduler. A nil clock defaults to the
// system clock.
func NewScheduler(clock Clock, opts ...SchedulerOption) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Scheduler{
		clock:  clock,
		policy: DropOnFailure,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push appends a routine to the tail of the queue. Safe from any goroutine;
// never fails.
func (s *Scheduler) Push(r *Routine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, r)
}

// AttemptRoutines executes every routine that is due and removes it from
// the queue. Not-yet-due routines are left untouched.
//
// Scheduled execution time is assumed to be uncorrelated with any polling
// interval, so callers are expected to invoke this far more often than
// sensors are polled to approximate real-time response for due routines.
//
// Command failures do not abort the pass. Each failure is returned as a
// *RoutineError; the routine itself is dropped or requeued per the
// configured FailurePolicy.
func (s *Scheduler) AttemptRoutines() []*RoutineError {
	now := s.clock.Now()

	// Select and remove due routines in one critical section. Once a
	// routine leaves the queue here it can never be picked up by another
	// pass, which is what makes execution exactly-once.
	s.mu.Lock()
	var due, remaining []*Routine
	for _, r := range s.pending {
		if r.IsDue(now) {
			due = append(due, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	s.pending = remaining
	s.mu.Unlock()

	var failures []*RoutineError
	for _, r := range due {
		executed, err := r.Attempt(now)
		if !executed {
			// IsDue was true under the lock for the same now, so this
			// branch is unreachable; keep the routine rather than lose it.
			s.Push(r)
			continue
		}
		if err == nil {
			continue
		}
		re := &RoutineError{
			RoutineID:  r.ID(),
			DeviceID:   r.Device().ID,
			DeviceName: r.Device().Name,
			Due:        r.Due(),
			Err:        err,
		}
		if s.policy == RequeueOnFailure {
			re.Requeued = true
			s.Push(r)
		}
		slog.Error("routine command failed",
			"routine", r.ID(),
			"device", r.Device().Name,
			"requeued", re.Requeued,
			"error", err)
		failures = append(failures, re)
	}
	return failures
}

// Scheduled returns a snapshot of the pending routines in insertion order.
func (s *Scheduler) Scheduled() []*Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Routine, len(s.pending))
	copy(out, s.pending)
	return out
}

// Len returns the number of pending routines.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
