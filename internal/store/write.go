package store

import (
	"context"
	"fmt"
	"time"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// WriteEvent appends one event row. Ordering within a device is preserved
// by the autoincrement sequence; deduplication is the responsibility of
// the log flush high-water mark, not the store.
func (s *Store) WriteEvent(ctx context.Context, event *io.Event) error {
	valueType, value, err := encodeValue(event.Value)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (device_id, kind, direction, value_type, value, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.DeviceID,
		event.Kind.String(),
		event.Direction.String(),
		valueType,
		value,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// encodeValue maps a typed value onto its (tag, REAL) row form.
func encodeValue(v io.Value) (string, float64, error) {
	switch v.(type) {
	case io.Binary:
		return "binary", v.Float64(), nil
	case io.Int:
		return "int", v.Float64(), nil
	case io.Float:
		return "float", v.Float64(), nil
	default:
		return "", 0, fmt.Errorf("unsupported value type %T", v)
	}
}
