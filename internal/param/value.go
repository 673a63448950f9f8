package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a policy-parameter value.
// Only Real, Int, Bool, and Vector implement it. Strings and nulls are
// rejected at decode time: parameter values are quantities, not labels.
type Value interface {
	paramValue() // Sealed - only these types implement it
}

// Real represents a real-number value (dollar amounts, rates).
type Real float64

func (Real) paramValue() {}

// Int represents an integer value (ages, counts).
// Always int64 so decoded values survive round-trips unchanged.
type Int int64

func (Int) paramValue() {}

// Bool represents a boolean policy switch.
type Bool bool

func (Bool) paramValue() {}

// Vector represents an ordered fixed-length vector of scalar values,
// e.g. one entry per filing status or per child count. Elements are
// always scalars - nested vectors do not exist in this domain.
type Vector []Value

func (Vector) paramValue() {}

// UnmarshalValue decodes a single JSON value into a Value.
// Numbers with a fraction or exponent become Real, plain integers become
// Int, booleans become Bool, and flat arrays become Vector. Strings,
// nulls, objects, and nested arrays are rejected.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return convertValue(raw, false)
}

// ConvertValue converts a decoded Go value (from encoding/json with
// UseNumber, or from a YAML decoder) into a Value. The same rules as
// UnmarshalValue apply.
func ConvertValue(v any) (Value, error) {
	return convertValue(v, false)
}

func convertValue(v any, nested bool) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a parameter value")
	case bool:
		return Bool(val), nil
	case string:
		return nil, fmt.Errorf("strings are not parameter values: %q", val)
	case json.Number:
		return convertNumber(string(val))
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		return Real(val), nil
	case []any:
		if nested {
			return nil, fmt.Errorf("nested vectors are not supported")
		}
		vec := make(Vector, len(val))
		for i, elem := range val {
			pv, err := convertValue(elem, true)
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", i, err)
			}
			vec[i] = pv
		}
		return vec, nil
	case map[string]any:
		return nil, fmt.Errorf("objects are not parameter values")
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// convertNumber keeps the integer/real distinction visible in the literal.
// "250000" decodes as Int, "250000.0" and "2.5e5" decode as Real. The
// distinction matters for integer-typed parameters, which must reject
// fractional literals.
func convertNumber(s string) (Value, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return Real(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("number out of int64 range: %s", s)
	}
	return Int(n), nil
}

// Copy returns a deep copy of v. Scalars are value types and copy freely;
// vectors get a fresh backing array so schedules never alias document or
// registry storage.
func Copy(v Value) Value {
	vec, ok := v.(Vector)
	if !ok {
		return v
	}
	out := make(Vector, len(vec))
	copy(out, vec)
	return out
}

// Equal reports whether two values are identical in kind and content.
// Int and Real never compare equal even at the same numeric value; use
// Coerce first when a declared type is in play.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Real:
		bv, ok := b.(Real)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Vector:
		bv, ok := b.(Vector)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// KindName returns a human-readable name for the value's kind, used in
// validation messages.
func KindName(v Value) string {
	switch v.(type) {
	case Real:
		return "real number"
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	case Vector:
		return "vector"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Format renders a value as a compact literal for messages and traces:
// "250000", "0.038", "true", "[900, 5000, 8000, 9000]".
func Format(v Value) string {
	switch val := v.(type) {
	case Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Vector:
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Format(elem))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MarshalValue renders a value as plain JSON (no list wrapping).
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Real:
		return json.Marshal(float64(val))
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Vector:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}
