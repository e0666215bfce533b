package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a typed cell value produced by Convert. Exactly one of the typed
// fields is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Text  string
}

// ConversionError reports a raw value that can't be coerced to a column kind.
type ConversionError struct {
	Value string
	Kind  Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("can't convert %q to %s", e.Value, e.Kind)
}

// Convert coerces a raw string to the given kind. Bool accepts "true"/"false"
// only (case-insensitive); int and float use standard numeric parsing; text is
// identity and never fails. Pure function, same input always gives the same
// result.
func Convert(raw string, k Kind) (Value, error) {
	switch k {
	case KindBool:
		v := strings.ToLower(strings.TrimSpace(raw))
		if v != "true" && v != "false" {
			return Value{}, &ConversionError{Value: raw, Kind: k}
		}
		return Value{Kind: KindBool, Bool: strings.HasPrefix(v, "t")}, nil
	case KindInt:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, &ConversionError{Value: raw, Kind: k}
		}
		return Value{Kind: KindInt, Int: i}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, &ConversionError{Value: raw, Kind: k}
		}
		return Value{Kind: KindFloat, Float: f}, nil
	default:
		return Value{Kind: KindText, Text: raw}, nil
	}
}
