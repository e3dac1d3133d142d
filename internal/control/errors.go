package control

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors surfaced at construction/attachment time. These fail
// fast: a routine or evaluator missing a required collaborator is rejected
// before it can ever reach the scheduler.
var (
	// ErrNilCommand is returned when a routine is constructed without an
	// executable command.
	ErrNilCommand = errors.New("routine requires a command")

	// ErrNilSink is returned when a routine is constructed without a log
	// sink for its effect event.
	ErrNilSink = errors.New("routine requires a log sink")

	// ErrNilScheduler is returned when an evaluator or publisher is
	// constructed without a scheduler to push routines into.
	ErrNilScheduler = errors.New("scheduler handle must not be nil")
)

// RoutineError reports one routine whose command failed during an attempt
// pass. Failures are isolated per routine: AttemptRoutines collects these
// and keeps going, so one stuck actuator never blocks the rest of the pass.
type RoutineError struct {
	// RoutineID identifies the failed routine.
	RoutineID string

	// DeviceID and DeviceName identify the target device snapshot.
	DeviceID   int
	DeviceName string

	// Due is the routine's scheduled execution time.
	Due time.Time

	// Requeued reports whether the scheduler put the routine back for a
	// later pass (RequeueOnFailure policy).
	Requeued bool

	// Err is the underlying command failure.
	Err error
}

func (e *RoutineError) Error() string {
	return fmt.Sprintf("routine %s: command failed for device %q (id=%d): %v",
		e.RoutineID, e.DeviceName, e.DeviceID, e.Err)
}

func (e *RoutineError) Unwrap() error { return e.Err }

// IsRoutineError reports whether err is (or wraps) a RoutineError.
func IsRoutineError(err error) bool {
	var re *RoutineError
	return errors.As(err, &re)
}
