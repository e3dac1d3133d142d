package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setpoint-dev/setpoint/internal/harness"
)

// SimulateData is the JSON payload of a simulation run.
type SimulateData struct {
	Scenario string               `json:"scenario"`
	Trace    []harness.TraceEvent `json:"trace"`
	Failures []string             `json:"failures,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Run a scenario against simulated devices",
		Long: `Execute a harness scenario file: build its inline config with null
hardware and a manual clock, walk the timeline, evaluate the assertions,
and print the trace.

Example:
  setpoint simulate ./scenarios/ph_ceiling.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSimulate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario failed to run", err)
	}

	data := SimulateData{
		Scenario: result.Scenario,
		Trace:    result.Trace,
		Failures: result.Failures,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "scenario %q: %d steps traced\n", result.Scenario, len(result.Trace))
	for _, e := range result.Trace {
		switch e.Step {
		case "read":
			fmt.Fprintf(&b, "  %-8s at=%s device=%d value=%s\n", e.Step, e.At, *e.Device, e.Value)
		case "attempt":
			fmt.Fprintf(&b, "  %-8s at=%s executed=%d failed=%d pending=%d\n",
				e.Step, e.At, *e.Executed, *e.Failed, *e.Pending)
		}
	}
	if len(result.Failures) == 0 {
		fmt.Fprintf(&b, "all assertions passed")
		return formatter.OK(b.String(), data)
	}

	for _, f := range result.Failures {
		fmt.Fprintf(&b, "FAIL: %s\n", f)
	}
	if opts.Format == "json" {
		if err := formatter.emit(Response{Status: "error", Data: data, Error: "assertions failed"}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "assertions failed")
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return NewExitError(ExitFailure, "assertions failed")
}
