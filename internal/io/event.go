package io

import "time"

// DeviceMetadata identifies and re-addresses a device. It is embedded in
// every Event and snapshotted into every scheduled routine, so it must stay
// a copyable value with no references back into the device.
type DeviceMetadata struct {
	ID        int
	Name      string
	Kind      Kind
	Direction Direction
}

// Event is an immutable record of a single reading or effect: which device,
// what kind of measurement, the value, and when it happened.
//
// Input devices emit one Event per read; output devices emit one Event per
// executed write (the "effect event" appended to the device log).
type Event struct {
	DeviceID  int
	Kind      Kind
	Direction Direction
	Value     Value
	Timestamp time.Time
}

// NewEvent builds an Event from a device snapshot.
func NewEvent(meta DeviceMetadata, value Value, timestamp time.Time) *Event {
	return &Event{
		DeviceID:  meta.ID,
		Kind:      meta.Kind,
		Direction: meta.Direction,
		Value:     value,
		Timestamp: timestamp,
	}
}
