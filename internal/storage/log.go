// Package storage provides the per-device event log: the in-memory,
// append-only record of every reading and effect a device produced.
// Durable persistence lives in internal/store; Log.FlushTo bridges the two.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// Log is an append-only sequence of events for one device.
//
// Appends arrive from two uncorrelated callers: the polling goroutine (via
// Input.Read / Output.Write) and the routine-attempt goroutine (effect
// events recorded by executed routines), so every access is mutex-guarded.
// The mutex is held only for the append or copy itself.
type Log struct {
	mu       sync.Mutex
	deviceID int
	events   []*io.Event
	flushed  int // events[:flushed] have been written to a durable store
}

// NewLog creates an empty log for the given device.
func NewLog(deviceID int) *Log {
	return &Log{deviceID: deviceID}
}

// DeviceID returns the owning device's id.
func (l *Log) DeviceID() int { return l.deviceID }

// Append records one event. Implements control.EventSink.
func (l *Log) Append(event *io.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns a snapshot of the logged events in append order.
func (l *Log) Events() []*io.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*io.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of logged events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// EventWriter is the durable side of a flush. *store.Store implements it.
type EventWriter interface {
	WriteEvent(ctx context.Context, event *io.Event) error
}

// FlushTo writes every not-yet-flushed event to w, oldest first. Events
// appended concurrently with the flush are picked up by the next call.
// On error the high-water mark only advances past the events that were
// written, so nothing is skipped on retry.
func (l *Log) FlushTo(ctx context.Context, w EventWriter) error {
	l.mu.Lock()
	unflushed := make([]*io.Event, len(l.events)-l.flushed)
	copy(unflushed, l.events[l.flushed:])
	l.mu.Unlock()

	written := 0
	for _, event := range unflushed {
		if err := w.WriteEvent(ctx, event); err != nil {
			l.advance(written)
			return fmt.Errorf("flush log for device %d: %w", l.deviceID, err)
		}
		written++
	}
	l.advance(written)
	return nil
}

func (l *Log) advance(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushed += n
}
