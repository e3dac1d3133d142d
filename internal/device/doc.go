// Package device models the physical endpoints of the control loop.
//
// An Input wraps a read command: each poll executes the command, stamps the
// reading into an event, propagates it through the input's publisher, and
// appends it to the device log. An Output wraps a write command and caches
// the last value written; it can also mint deferred routines against
// itself. Container is the id-keyed registry a group stores devices in.
//
// The commands themselves are opaque closures supplied by whoever owns the
// real hardware (or a simulation); this package never touches GPIO, serial
// lines, or networks directly.
package device
