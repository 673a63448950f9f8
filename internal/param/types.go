package param

import "fmt"

// Type classifies the scalar domain of a parameter.
type Type string

const (
	// TypeReal accepts any real number. Integer literals are promoted.
	TypeReal Type = "real"
	// TypeInt accepts integers only. Fractional literals are a defect.
	TypeInt Type = "integer"
	// TypeBool accepts true/false only. Numbers never coerce to booleans.
	TypeBool Type = "boolean"
	// TypeRatio is a real number hard-bounded to [0, 1].
	TypeRatio Type = "ratio"
)

// ParseType validates a catalogue type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeReal, TypeInt, TypeBool, TypeRatio:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown value type %q", s)
	}
}

// Name returns the type's human-readable name for messages.
func (t Type) Name() string {
	switch t {
	case TypeReal:
		return "real number"
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeRatio:
		return "ratio in [0, 1]"
	default:
		return string(t)
	}
}

// Shape classifies a parameter as scalar or vector valued.
type Shape string

const (
	ShapeScalar Shape = "scalar"
	ShapeVector Shape = "vector"
)

// ParseShape validates a catalogue shape string.
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeScalar, ShapeVector:
		return Shape(s), nil
	default:
		return "", fmt.Errorf("unknown value shape %q", s)
	}
}

// Admits reports whether a scalar value is acceptable for the type.
// Range bounds are a separate concern; this checks kind only.
func (t Type) Admits(v Value) bool {
	switch t {
	case TypeReal, TypeRatio:
		switch v.(type) {
		case Real, Int:
			return true
		}
		return false
	case TypeInt:
		_, ok := v.(Int)
		return ok
	case TypeBool:
		_, ok := v.(Bool)
		return ok
	default:
		return false
	}
}

// Coerce normalizes a value to its declared type: integer literals become
// Real for real and ratio parameters, vectors coerce element-wise.
// Values that do not admit coercion are returned unchanged; callers check
// Admits first.
func Coerce(v Value, t Type) Value {
	switch val := v.(type) {
	case Int:
		if t == TypeReal || t == TypeRatio {
			return Real(float64(val))
		}
		return val
	case Vector:
		out := make(Vector, len(val))
		for i, elem := range val {
			out[i] = Coerce(elem, t)
		}
		return out
	default:
		return v
	}
}
