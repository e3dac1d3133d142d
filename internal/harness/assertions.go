package harness

import (
	"fmt"

	"github.com/setpoint-dev/setpoint/internal/group"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/storage"
)

// evaluateAssertions checks every scenario assertion against the final
// group state and returns human-readable failure messages.
func evaluateAssertions(scenario *Scenario, g *group.Group) []string {
	var failures []string
	for i, a := range scenario.Assertions {
		if msg := evaluate(a, g); msg != "" {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluate(a Assertion, g *group.Group) string {
	switch a.Type {
	case AssertSchedulerEmpty:
		if n := g.Scheduler().Len(); n != 0 {
			return fmt.Sprintf("expected empty scheduler, %d routines pending", n)
		}

	case AssertSchedulerLen:
		if n := g.Scheduler().Len(); n != a.Count {
			return fmt.Sprintf("expected %d pending routines, got %d", a.Count, n)
		}

	case AssertLogCount:
		log, msg := deviceLog(g, a.Device)
		if msg != "" {
			return msg
		}
		if n := log.Len(); n != a.Count {
			return fmt.Sprintf("expected %d events in device %d log, got %d", a.Count, a.Device, n)
		}

	case AssertLogContains:
		log, msg := deviceLog(g, a.Device)
		if msg != "" {
			return msg
		}
		want, err := io.ParseValue(a.Value)
		if err != nil {
			return err.Error()
		}
		for _, event := range log.Events() {
			if event.Value.String() == want.String() {
				return ""
			}
		}
		return fmt.Sprintf("device %d log has no event with value %s", a.Device, want.String())

	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return ""
}

func deviceLog(g *group.Group, id int) (*storage.Log, string) {
	if in, ok := g.Inputs().Get(id); ok {
		return in.Log(), ""
	}
	if out, ok := g.Outputs().Get(id); ok {
		return out.Log(), ""
	}
	return nil, fmt.Sprintf("device %d not declared", id)
}
