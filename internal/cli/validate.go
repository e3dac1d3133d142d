package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setpoint-dev/setpoint/internal/config"
)

// ValidationData is the JSON payload for a successful validation.
type ValidationData struct {
	Group       string `json:"group"`
	Interval    string `json:"interval"`
	Devices     int    `json:"devices"`
	Controllers int    `json:"controllers"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a deployment config",
		Long: `Validate a YAML deployment config against the embedded schema.

Checks structure (device ids, kinds, directions, comparisons) and resolves
durations and thresholds without building any devices.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitFailure, err.Error())
	}

	data := ValidationData{
		Group:       cfg.Group,
		Interval:    cfg.Interval.String(),
		Devices:     len(cfg.Devices),
		Controllers: len(cfg.Controllers),
	}
	text := fmt.Sprintf("config valid: group %q, interval %s, %d devices, %d controllers",
		cfg.Group, cfg.Interval, len(cfg.Devices), len(cfg.Controllers))
	return formatter.OK(text, data)
}
