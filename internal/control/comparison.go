package control

import (
	"fmt"

	"github.com/setpoint-dev/setpoint/internal/io"
)

// Comparison is a relational operator applied by threshold evaluators.
// The set is closed; Matches is pure and total over any two values.
type Comparison int

const (
	Equal Comparison = iota
	NotEqual
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
)

var comparisonNames = map[Comparison]string{
	Equal:          "eq",
	NotEqual:       "ne",
	GreaterThan:    "gt",
	GreaterOrEqual: "ge",
	LessThan:       "lt",
	LessOrEqual:    "le",
}

func (c Comparison) String() string {
	if name, ok := comparisonNames[c]; ok {
		return name
	}
	return fmt.Sprintf("comparison(%d)", int(c))
}

// ParseComparison maps a config string onto a Comparison. Both the short
// mnemonic forms ("gt") and the symbolic forms (">") are accepted.
func ParseComparison(s string) (Comparison, error) {
	switch s {
	case "eq", "==":
		return Equal, nil
	case "ne", "!=":
		return NotEqual, nil
	case "gt", ">":
		return GreaterThan, nil
	case "ge", ">=":
		return GreaterOrEqual, nil
	case "lt", "<":
		return LessThan, nil
	case "le", "<=":
		return LessOrEqual, nil
	default:
		return Equal, fmt.Errorf("unknown comparison %q", s)
	}
}

// Matches evaluates lhs <op> rhs over the shared numeric domain.
//
// Equality is exact: callers that need tolerance on float readings are
// expected to pre-round before comparing.
func (c Comparison) Matches(lhs, rhs io.Value) bool {
	l, r := lhs.Float64(), rhs.Float64()
	switch c {
	case Equal:
		return l == r
	case NotEqual:
		return l != r
	case GreaterThan:
		return l > r
	case GreaterOrEqual:
		return l >= r
	case LessThan:
		return l < r
	case LessOrEqual:
		return l <= r
	default:
		return false
	}
}
