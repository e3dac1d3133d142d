package device

import (
	"errors"
	"fmt"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/storage"
)

// ErrNoCommand is returned when a device is constructed without the
// low-level command that actually talks to hardware.
var ErrNoCommand = errors.New("device requires a command")

// InputCommand is the opaque read operation against hardware: produce one
// value or fail.
type InputCommand func() (io.Value, error)

// Input is a sensor endpoint. Read is its whole surface during polling:
// execute the command, wrap the value into an event, fan the event out, log
// it.
type Input struct {
	meta      io.DeviceMetadata
	command   InputCommand
	log       *storage.Log
	publisher *control.Publisher
	clock     control.Clock
}

// NewInput constructs an input device. The command is required; the
// publisher is attached later with SetPublisher because evaluators usually
// need the rest of the group wired first. A nil clock defaults to the
// system clock.
func NewInput(meta io.DeviceMetadata, command InputCommand, clock control.Clock) (*Input, error) {
	if command == nil {
		return nil, fmt.Errorf("input %q (id=%d): %w", meta.Name, meta.ID, ErrNoCommand)
	}
	if clock == nil {
		clock = control.SystemClock{}
	}
	meta.Direction = io.DirectionInput
	return &Input{
		meta:    meta,
		command: command,
		log:     storage.NewLog(meta.ID),
		clock:   clock,
	}, nil
}

// Metadata returns the device snapshot.
func (in *Input) Metadata() io.DeviceMetadata { return in.meta }

// Log returns the device's event log.
func (in *Input) Log() *storage.Log { return in.log }

// SetPublisher attaches the fan-out for this input. At most one publisher
// is supported; a second attachment is rejected.
func (in *Input) SetPublisher(p *control.Publisher) error {
	if in.publisher != nil {
		return fmt.Errorf("input %q (id=%d): publisher already attached", in.meta.Name, in.meta.ID)
	}
	in.publisher = p
	return nil
}

// Publisher returns the attached publisher, or nil.
func (in *Input) Publisher() *control.Publisher { return in.publisher }

// HasPublisher reports whether a publisher is attached. An input without
// one is a valid log-only configuration.
func (in *Input) HasPublisher() bool { return in.publisher != nil }

// Read executes the low-level command once, then propagates the resulting
// event to every registered evaluator and appends it to the device log.
//
// Propagation without a publisher is a silent no-op.
func (in *Input) Read() (*io.Event, error) {
	value, err := in.command()
	if err != nil {
		return nil, fmt.Errorf("read input %q (id=%d): %w", in.meta.Name, in.meta.ID, err)
	}
	event := io.NewEvent(in.meta, value, in.clock.Now())
	if in.publisher != nil {
		in.publisher.Propagate(event)
	}
	in.log.Append(event)
	return event, nil
}
