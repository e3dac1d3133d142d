package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/storage"
)

// OutputCommand is the opaque write operation against hardware.
type OutputCommand func(io.Value) error

// Output is an actuator endpoint. Write executes immediately;
// CreateRoutine mints a deferred write that a scheduler executes later.
//
// State caches the last successfully written value. It is updated both by
// direct writes and, because routines share the same command and log, can
// be refreshed via the log by callers that care about routine effects.
type Output struct {
	meta    io.DeviceMetadata
	command OutputCommand
	log     *storage.Log
	clock   control.Clock

	mu    sync.Mutex
	state io.Value
}

// NewOutput constructs an output device. The command is required. A nil
// clock defaults to the system clock.
func NewOutput(meta io.DeviceMetadata, command OutputCommand, clock control.Clock) (*Output, error) {
	if command == nil {
		return nil, fmt.Errorf("output %q (id=%d): %w", meta.Name, meta.ID, ErrNoCommand)
	}
	if clock == nil {
		clock = control.SystemClock{}
	}
	meta.Direction = io.DirectionOutput
	return &Output{
		meta:    meta,
		command: command,
		log:     storage.NewLog(meta.ID),
		clock:   clock,
	}, nil
}

// Metadata implements control.Actuator.
func (out *Output) Metadata() io.DeviceMetadata { return out.meta }

// Log returns the device's event log.
func (out *Output) Log() *storage.Log { return out.log }

// State returns the last value written directly through Write, or nil if
// the output has never been written.
func (out *Output) State() io.Value {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.state
}

// Write executes the command immediately, updates the cached state, and
// appends the effect event to the device log.
func (out *Output) Write(value io.Value) (*io.Event, error) {
	if err := out.command(value); err != nil {
		return nil, fmt.Errorf("write output %q (id=%d): %w", out.meta.Name, out.meta.ID, err)
	}
	out.mu.Lock()
	out.state = value
	out.mu.Unlock()

	event := io.NewEvent(out.meta, value, out.clock.Now())
	out.log.Append(event)
	return event, nil
}

// CreateRoutine implements control.Actuator: a deferred write of value, due
// delay from now, bound to this output's command and log. The returned
// routine is ready to be pushed into a scheduler.
//
// The routine executes the raw command without updating the cached state;
// its effect is visible in the device log.
func (out *Output) CreateRoutine(value io.Value, delay time.Duration) (*control.Routine, error) {
	due := out.clock.Now().Add(delay)
	routine, err := control.NewRoutine(due, out.meta, value, out.log, control.CommandFunc(out.command))
	if err != nil {
		return nil, fmt.Errorf("output %q (id=%d): %w", out.meta.Name, out.meta.ID, err)
	}
	return routine, nil
}
