package control

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// CommandFunc is the opaque, fallible write operation a routine executes
// against hardware. The device layer supplies it; this package only calls
// it.
type CommandFunc func(io.Value) error

// EventSink accepts the effect event recorded after a routine executes.
// The device log implements it; this package only appends and never reads
// back.
type EventSink interface {
	Append(*io.Event)
}

// Routine is an immutable instruction: execute this command with this value,
// against this device, no earlier than the due time, and record the effect
// in the bound sink.
//
// A routine has no partial-execution state. Attempt either runs it to
// completion (command plus log append) or leaves it completely untouched.
// Once pushed, a scheduler exclusively owns the routine; nothing else
// should retain a reference to it.
type Routine struct {
	id      string
	due     time.Time
	device  io.DeviceMetadata
	value   io.Value
	sink    EventSink
	command CommandFunc
}

// NewRoutine constructs a routine. All collaborators are required; a nil
// command or sink is a configuration error reported immediately rather than
// deferred to execution time.
func NewRoutine(due time.Time, device io.DeviceMetadata, value io.Value, sink EventSink, command CommandFunc) (*Routine, error) {
	if command == nil {
		return nil, fmt.Errorf("routine for device %q: %w", device.Name, ErrNilCommand)
	}
	if sink == nil {
		return nil, fmt.Errorf("routine for device %q: %w", device.Name, ErrNilSink)
	}
	return &Routine{
		id:      uuid.NewString(),
		due:     due,
		device:  device,
		value:   value,
		sink:    sink,
		command: command,
	}, nil
}

// ID returns the routine's unique identity, used in failure reports.
func (r *Routine) ID() string { return r.id }

// Due returns the scheduled execution time.
func (r *Routine) Due() time.Time { return r.due }

// Device returns the target device snapshot.
func (r *Routine) Device() io.DeviceMetadata { return r.device }

// Value returns the value the routine will write.
func (r *Routine) Value() io.Value { return r.value }

// IsDue reports whether the routine may execute at the given instant.
func (r *Routine) IsDue(now time.Time) bool {
	return !now.Before(r.due)
}

// Attempt executes the routine if it is due.
//
// Not due: returns (false, nil) with zero side effects. Due: invokes the
// bound command with the bound value and, on success, appends the resulting
// effect event to the sink before returning (true, nil). A command failure
// returns (true, err): the attempt was consumed and the caller decides what
// happens to the routine (see FailurePolicy on Scheduler).
func (r *Routine) Attempt(now time.Time) (bool, error) {
	if !r.IsDue(now) {
		return false, nil
	}
	if err := r.command(r.value); err != nil {
		return true, err
	}
	r.sink.Append(io.NewEvent(r.device, r.value, now))
	return true, nil
}
