package device

import (
	"fmt"
	"sort"
)

// Container is an id-keyed registry of devices. It rejects duplicate ids at
// insertion time rather than letting a later lookup silently shadow a
// device.
//
// The container is populated during setup and read-only afterwards, so it
// carries no lock of its own.
type Container[D any] struct {
	devices map[int]D
}

// NewContainer creates an empty registry.
func NewContainer[D any]() *Container[D] {
	return &Container[D]{devices: make(map[int]D)}
}

// Insert stores device under id. Inserting an id that is already present
// is a configuration error.
func (c *Container[D]) Insert(id int, device D) error {
	if _, exists := c.devices[id]; exists {
		return fmt.Errorf("device id %d already registered", id)
	}
	c.devices[id] = device
	return nil
}

// Get returns the device registered under id.
func (c *Container[D]) Get(id int) (D, bool) {
	d, ok := c.devices[id]
	return d, ok
}

// Len returns the number of registered devices.
func (c *Container[D]) Len() int { return len(c.devices) }

// IDs returns the registered ids in ascending order, for deterministic
// iteration.
func (c *Container[D]) IDs() []int {
	ids := make([]int, 0, len(c.devices))
	for id := range c.devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ForEach visits every device in ascending id order.
func (c *Container[D]) ForEach(fn func(id int, device D)) {
	for _, id := range c.IDs() {
		fn(id, c.devices[id])
	}
}
