package store

import (
	"context"
	"fmt"
	"time"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// EventsForDevice returns every stored event for the device, oldest first.
func (s *Store) EventsForDevice(ctx context.Context, deviceID int) ([]*io.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, kind, direction, value_type, value, timestamp
		FROM events
		WHERE device_id = ?
		ORDER BY seq
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("read events for device %d: %w", deviceID, err)
	}
	defer rows.Close()

	var events []*io.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("read events for device %d: %w", deviceID, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events for device %d: %w", deviceID, err)
	}

	return events, nil
}

// CountEvents returns the number of stored events for the device.
func (s *Store) CountEvents(ctx context.Context, deviceID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE device_id = ?`, deviceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events for device %d: %w", deviceID, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*io.Event, error) {
	var (
		deviceID     int
		kindStr      string
		directionStr string
		valueType    string
		value        float64
		timestampStr string
	)
	if err := row.Scan(&deviceID, &kindStr, &directionStr, &valueType, &value, &timestampStr); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	kind, err := io.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	direction, err := io.ParseDirection(directionStr)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	typed, err := decodeValue(valueType, value)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	timestamp, err := time.Parse(time.RFC3339Nano, timestampStr)
	if err != nil {
		return nil, fmt.Errorf("scan event: parse timestamp: %w", err)
	}

	return &io.Event{
		DeviceID:  deviceID,
		Kind:      kind,
		Direction: direction,
		Value:     typed,
		Timestamp: timestamp,
	}, nil
}

// decodeValue reverses encodeValue.
func decodeValue(valueType string, value float64) (io.Value, error) {
	switch valueType {
	case "binary":
		return io.Binary(value != 0), nil
	case "int":
		return io.Int(int64(value)), nil
	case "float":
		return io.Float(value), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", valueType)
	}
}
