package io

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the reading types a device can produce
// or accept. Only Binary, Int, and Float implement it.
//
// All variants expose Float64 so that threshold comparisons operate on a
// single ordered domain. Binary maps to 0/1, which keeps relational
// operators total across every variant.
type Value interface {
	value() // sealed

	// Float64 projects the value onto the comparison domain.
	Float64() float64

	fmt.Stringer
}

// Binary is an on/off reading or command value.
type Binary bool

func (Binary) value() {}

// Float64 returns 1 for true and 0 for false.
func (b Binary) Float64() float64 {
	if b {
		return 1
	}
	return 0
}

func (b Binary) String() string {
	return strconv.FormatBool(bool(b))
}

// Int is an integral reading or command value.
type Int int64

func (Int) value() {}

func (i Int) Float64() float64 { return float64(i) }

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating-point reading or command value.
type Float float64

func (Float) value() {}

func (f Float) Float64() float64 { return float64(f) }

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// ParseValue converts an untyped config/scenario scalar into a Value.
// Accepted Go types are bool, int, int64, and float64 (what yaml.v3
// produces for scalars). Anything else is rejected.
func ParseValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return Binary(v), nil
	case int:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case float64:
		return Float(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}
