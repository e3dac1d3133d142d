package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setpoint-dev/setpoint/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Database string
	Device   int
}

// EventRecord is the JSON shape of one stored event.
type EventRecord struct {
	Device    int    `json:"device"`
	Kind      string `json:"kind"`
	Direction string `json:"direction"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List stored events for a device",
		Long: `Read the flushed event log for one device from the SQLite database.

Example:
  setpoint events --db ./setpoint.db --device 0
  setpoint events --db ./setpoint.db --device 1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Device, "device", 0, "device id")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("device")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	events, err := st.EventsForDevice(cmd.Context(), opts.Device)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	records := make([]EventRecord, 0, len(events))
	var lines []string
	for _, e := range events {
		records = append(records, EventRecord{
			Device:    e.DeviceID,
			Kind:      e.Kind.String(),
			Direction: e.Direction.String(),
			Value:     e.Value.String(),
			Timestamp: e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		})
		lines = append(lines, fmt.Sprintf("%s  device=%d kind=%s direction=%s value=%s",
			e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			e.DeviceID, e.Kind, e.Direction, e.Value))
	}

	if len(lines) == 0 {
		return formatter.OK(fmt.Sprintf("no events for device %d", opts.Device), records)
	}
	return formatter.OK(strings.Join(lines, "\n"), records)
}
