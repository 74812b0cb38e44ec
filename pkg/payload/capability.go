package payload

import (
	"encoding/json"
	"iter"
	"reflect"
)

// Validatable is implemented by values that can validate themselves. Fields
// delegate to it before consulting their own validator.
type Validatable interface {
	Validate() error
	IsValid() bool
}

// Exporter is implemented by nested payloads.
type Exporter interface {
	ToArray() *Values
}

// Payload is the contract shared by Map, Array and the concrete types built
// on top of them.
type Payload interface {
	Validatable
	Exporter
	ToJSON(options ...JSONOption) (string, error)
}

// Mappable is implemented by values that know how to convert themselves into
// a plain mapping.
type Mappable interface {
	ToMap() map[string]any
}

var (
	_ Payload = (*Map)(nil)
	_ Payload = (*Array)(nil)
)

// Export normalises value for ToArray. Capabilities are probed in order:
// nested payload, json.Marshaler, iterator, Mappable. The first match wins;
// otherwise the value is returned untouched.
func Export(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case *Values:
		return v
	case Exporter:
		if isNull(v) {
			return nil
		}
		return v.ToArray()
	case json.Marshaler:
		if isNull(v) {
			return nil
		}
		return exportMarshaler(v)
	case iter.Seq[any]:
		out := []any{}
		for item := range v {
			out = append(out, item)
		}
		return out
	case iter.Seq2[string, any]:
		out := NewValues()
		for key, item := range v {
			out.Set(key, item)
		}
		return out
	case Mappable:
		if isNull(v) {
			return nil
		}
		return v.ToMap()
	default:
		return value
	}
}

func exportMarshaler(v json.Marshaler) any {
	raw, err := v.MarshalJSON()
	if err != nil {
		return v
	}
	decoded, err := decodeOrderedJSON(raw)
	if err != nil {
		return v
	}
	return decoded
}

// isNull reports whether value is absent: a nil interface or a nil pointer
// like value. Empty slices and maps are values, not null.
func isNull(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// IsEmpty applies the broad emptiness check used by Array.ValidateRequired:
// null, empty text, empty collections and the zero value of numeric and
// boolean kinds are all empty.
func IsEmpty(value any) bool {
	if isNull(value) {
		return true
	}
	switch v := value.(type) {
	case *Values:
		return v.Len() == 0
	case string:
		return v == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return rv.IsZero()
	default:
		return false
	}
}
