// Package io defines the data model shared by every layer of the control
// loop: typed readings (Value), the devices that produce or accept them
// (DeviceMetadata, Kind, Direction), and the timestamped Event records that
// flow from inputs to evaluators and into logs.
//
// Everything in this package is a plain immutable value. Events are created
// once per read or write and are never mutated afterwards; consumers receive
// them by pointer purely to avoid copying.
package io
