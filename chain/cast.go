package chain

import (
	"strconv"
	"strings"
)

// Type enumerates the shapes a stored value can be cast to.
type Type int

const (
	// Text formats scalar values as strings. It is the default target.
	Text Type = iota
	// Int parses integral values, rejecting fractional numbers.
	Int
	// Float parses floating-point values.
	Float
	// Bool recognises true/false, 1/0 and yes/no case-insensitively in
	// text, and exact 0/1 in numbers.
	Bool
	// Raw returns the stored value untouched. Lists and mappings can only
	// be read through Raw.
	Raw
)

func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Raw:
		return "raw"
	}
	return "unknown"
}

// Cast converts a stored value to the requested type. Values arrive from
// JSON decoding, so scalars are string, float64 or bool; values written
// locally through Set may also be Go integers. Structured values and null
// only pass through Raw, anything else is a *CastError.
func Cast(v any, t Type) (any, error) {
	if t == Raw {
		return v, nil
	}
	switch x := v.(type) {
	case string:
		return castText(x, t)
	case float64:
		return castNumber(x, t)
	case int:
		return castNumber(float64(x), t)
	case int64:
		return castNumber(float64(x), t)
	case bool:
		if t == Bool {
			return x, nil
		}
		if t == Text {
			return strconv.FormatBool(x), nil
		}
	}
	return nil, &CastError{Value: v, Target: t}
}

func castText(s string, t Type) (any, error) {
	trimmed := strings.TrimSpace(s)
	switch t {
	case Text:
		return s, nil
	case Int:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, &CastError{Value: s, Target: t}
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &CastError{Value: s, Target: t}
		}
		return f, nil
	case Bool:
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	return nil, &CastError{Value: s, Target: t}
}

func castNumber(f float64, t Type) (any, error) {
	switch t {
	case Text:
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case Int:
		n := int64(f)
		if float64(n) != f {
			return nil, &CastError{Value: f, Target: t}
		}
		return n, nil
	case Float:
		return f, nil
	case Bool:
		if f == 0 {
			return false, nil
		}
		if f == 1 {
			return true, nil
		}
	}
	return nil, &CastError{Value: f, Target: t}
}
