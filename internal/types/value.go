package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the canonical content types.
// Only String, Int, Bool, Array, and Object implement it.
// There is deliberately no float variant: object contents feed
// content-addressed digests, and floats break determinism.
type Value interface {
	value() // Sealed - only these types implement it
}

// String represents a string value in object contents.
type String string

func (String) value() {}

// Int represents an integer value in object contents.
// Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool represents a boolean value in object contents.
type Bool bool

func (Bool) value() {}

// Array represents an ordered sequence of Values.
type Array []Value

func (Array) value() {}

// Object represents a map of string keys to Values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// MarshalJSON implements json.Marshaler using the canonical form, so
// standard-library marshaling of structs embedding an Object stays
// deterministic.
func (obj Object) MarshalJSON() ([]byte, error) {
	return marshalCanonicalObject(obj)
}

// UnmarshalJSON implements json.Unmarshaler with the same constraints as
// ObjectFromJSON: integer numbers only, no nulls.
func (obj *Object) UnmarshalJSON(data []byte) error {
	decoded, err := ObjectFromJSON(data)
	if err != nil {
		return err
	}
	*obj = decoded
	return nil
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for keys outside
// the basic multilingual plane.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. unicode/utf16.Encode handles surrogate pairs.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// Clone returns a deep copy of the object.
// Working-store records hand out contents to the execution engine; cloning
// keeps committed state isolated from engine-side mutation.
func (obj Object) Clone() Object {
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Object:
		return val.Clone()
	default:
		// String, Int, Bool are value types
		return val
	}
}

// ValueFromJSON decodes arbitrary JSON into a Value.
// Numbers must be integers; floats and nulls are rejected.
func ValueFromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return ToValue(raw)
}

// ObjectFromJSON decodes JSON into an Object.
// Returns an error if the top-level value is not a JSON object.
func ObjectFromJSON(data []byte) (Object, error) {
	v, err := ValueFromJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

// ToValue converts a plain Go value (e.g. from yaml or json decoding)
// into a Value. Floats and nils are rejected.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in object contents")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q is forbidden in object contents", val)
		}
		return Int(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in object contents: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type for object contents: %T", v)
	}
}

// ToObject converts a plain Go map into an Object.
func ToObject(m map[string]any) (Object, error) {
	v, err := ToValue(m)
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}
