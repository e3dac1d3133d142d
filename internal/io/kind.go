package io

import "fmt"

// Kind classifies what a device measures or manipulates.
type Kind int

const (
	// KindUnassigned is the zero value for devices that have not declared
	// a measurement class. It is a valid configuration.
	KindUnassigned Kind = iota
	KindPH
	KindTemperature
	KindHumidity
	KindFlow
	KindLevel
	KindPressure
	KindLight
)

var kindNames = map[Kind]string{
	KindUnassigned:  "unassigned",
	KindPH:          "ph",
	KindTemperature: "temperature",
	KindHumidity:    "humidity",
	KindFlow:        "flow",
	KindLevel:       "level",
	KindPressure:    "pressure",
	KindLight:       "light",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a config string onto a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnassigned, fmt.Errorf("unknown device kind %q", s)
}

// Direction classifies data flow relative to the system: inputs produce
// readings from the outside world, outputs manipulate it.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps a config string onto a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return DirectionInput, nil
	case "output":
		return DirectionOutput, nil
	default:
		return DirectionInput, fmt.Errorf("unknown device direction %q", s)
	}
}
