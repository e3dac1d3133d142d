package config

import (
	"fmt"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/device"
	"github.com/setpoint-dev/setpoint/internal/group"
	"github.com/setpoint-dev/setpoint/internal/io"
)

// Commands supplies the hardware closures for declared devices, keyed by
// device id. Devices without an entry get the null simulation command, so
// a config is runnable with no hardware attached at all.
type Commands struct {
	Inputs  map[int]device.InputCommand
	Outputs map[int]device.OutputCommand
}

// NullInputCommand returns a read command that always produces value.
func NullInputCommand(value io.Value) device.InputCommand {
	return func() (io.Value, error) { return value, nil }
}

// NullOutputCommand returns a write command that accepts anything.
func NullOutputCommand() device.OutputCommand {
	return func(io.Value) error { return nil }
}

// Build assembles a runnable Group from a resolved config.
//
// Wiring order: outputs first, then inputs, then one publisher per input
// that has controllers. Every publisher shares the group's scheduler.
// Controllers subscribe in declaration order, which fixes their invocation
// order during propagation.
func Build(cfg *Config, clock control.Clock, cmds Commands, opts ...group.Option) (*group.Group, error) {
	opts = append([]group.Option{group.WithFailurePolicy(cfg.FailurePolicy)}, opts...)
	g := group.New(cfg.Group, cfg.Interval, clock, opts...)

	inputs := make(map[int]*device.Input)
	outputs := make(map[int]*device.Output)

	for _, d := range cfg.Devices {
		meta := io.DeviceMetadata{ID: d.ID, Name: d.Name, Kind: d.Kind, Direction: d.Direction}
		switch d.Direction {
		case io.DirectionInput:
			cmd := cmds.Inputs[d.ID]
			if cmd == nil {
				cmd = NullInputCommand(io.Float(0))
			}
			in, err := device.NewInput(meta, cmd, clock)
			if err != nil {
				return nil, err
			}
			if err := g.PushInput(in); err != nil {
				return nil, err
			}
			inputs[d.ID] = in
		case io.DirectionOutput:
			cmd := cmds.Outputs[d.ID]
			if cmd == nil {
				cmd = NullOutputCommand()
			}
			out, err := device.NewOutput(meta, cmd, clock)
			if err != nil {
				return nil, err
			}
			if err := g.PushOutput(out); err != nil {
				return nil, err
			}
			outputs[d.ID] = out
		}
	}

	// One publisher per input that has at least one controller.
	publishers := make(map[int]*control.Publisher)
	for _, c := range cfg.Controllers {
		in, ok := inputs[c.Input]
		if !ok {
			return nil, fmt.Errorf("controller %q: input device %d not declared", c.Name, c.Input)
		}

		var thresholdOpts []control.ThresholdOption
		if c.Output != nil {
			out, ok := outputs[*c.Output]
			if !ok {
				return nil, fmt.Errorf("controller %q: output device %d not declared", c.Name, *c.Output)
			}
			thresholdOpts = append(thresholdOpts, control.BindActuator(out, c.Write))
		}
		if c.Delay > 0 {
			thresholdOpts = append(thresholdOpts, control.WithDelay(c.Delay))
		}

		evaluator, err := control.NewThreshold(c.Name, c.Threshold, c.Comparison, g.Scheduler(), thresholdOpts...)
		if err != nil {
			return nil, err
		}

		pub, ok := publishers[c.Input]
		if !ok {
			pub, err = control.NewPublisher(g.Scheduler())
			if err != nil {
				return nil, err
			}
			if err := in.SetPublisher(pub); err != nil {
				return nil, err
			}
			publishers[c.Input] = pub
		}
		pub.Subscribe(evaluator)
	}

	return g, nil
}
