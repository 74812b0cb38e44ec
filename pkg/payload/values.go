package payload

import (
	"iter"
	"math"
	"reflect"
	"slices"
)

// Values is the ordered mapping produced by ToArray. Keys keep the order in
// which they were first set; replacing a value keeps the key's position.
type Values struct {
	keys   []string
	values map[string]any
}

// NewValues returns an empty ordered mapping.
func NewValues() *Values {
	return &Values{values: make(map[string]any)}
}

// ValuesOf builds an ordered mapping from alternating key/value pairs. It is
// mostly useful for fixtures; a non-string key panics.
func ValuesOf(pairs ...any) *Values {
	if len(pairs)%2 != 0 {
		panic("payload: ValuesOf expects key/value pairs")
	}
	out := NewValues()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("payload: ValuesOf keys must be strings")
		}
		out.Set(key, pairs[i+1])
	}
	return out
}

// Set stores value under key, appending key when it is new.
func (v *Values) Set(key string, value any) *Values {
	if v.values == nil {
		v.values = make(map[string]any)
	}
	if _, exists := v.values[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
	return v
}

// Get returns the value stored under key.
func (v *Values) Get(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v.values[key]
	return value, ok
}

// Delete removes key and reports whether it was present.
func (v *Values) Delete(key string) bool {
	if v == nil {
		return false
	}
	if _, ok := v.values[key]; !ok {
		return false
	}
	delete(v.values, key)
	if idx := slices.Index(v.keys, key); idx >= 0 {
		v.keys = slices.Delete(v.keys, idx, idx+1)
	}
	return true
}

// Keys returns a copy of the keys in order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	return slices.Clone(v.keys)
}

// Len reports the number of keys.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// All iterates the entries in order.
func (v *Values) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if v == nil {
			return
		}
		for _, key := range v.keys {
			if !yield(key, v.values[key]) {
				return
			}
		}
	}
}

// Map flattens the ordered mapping, and any nested Values or []any holding
// them, into plain Go maps and slices.
func (v *Values) Map() map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v.keys))
	for _, key := range v.keys {
		out[key] = plain(v.values[key])
	}
	return out
}

// Equal reports whether both mappings hold the same keys in the same order
// with equal values. Numbers compare by value across kinds, so an int set in
// Go equals the int64 decoded from its JSON text.
func (v *Values) Equal(other *Values) bool {
	if v.Len() != other.Len() {
		return false
	}
	if v.Len() == 0 {
		return true
	}
	if !slices.Equal(v.keys, other.keys) {
		return false
	}
	for _, key := range v.keys {
		if !equalValue(v.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

func equalValue(left, right any) bool {
	switch l := left.(type) {
	case *Values:
		r, ok := right.(*Values)
		return ok && l.Equal(r)
	case []any:
		r, ok := right.([]any)
		if !ok || len(l) != len(r) {
			return false
		}
		for i := range l {
			if !equalValue(l[i], r[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		r, ok := right.(map[string]any)
		if !ok || len(l) != len(r) {
			return false
		}
		for key, item := range l {
			other, found := r[key]
			if !found || !equalValue(item, other) {
				return false
			}
		}
		return true
	}
	if equal, numeric := equalNumbers(left, right); numeric {
		return equal
	}
	return reflect.DeepEqual(left, right)
}

// equalNumbers compares two numeric values by value. numeric is false when
// either side is not a number.
func equalNumbers(left, right any) (equal, numeric bool) {
	l, lok := numberOf(left)
	r, rok := numberOf(right)
	if !lok || !rok {
		return false, false
	}
	switch {
	case l.kind == numFloat || r.kind == numFloat:
		if l.kind != numFloat {
			l, r = r, l
		}
		return r.equalsFloat(l.f), true
	case l.kind == r.kind:
		return l.i == r.i && l.u == r.u, true
	case l.kind == numInt:
		return l.i >= 0 && uint64(l.i) == r.u, true
	default:
		return r.i >= 0 && uint64(r.i) == l.u, true
	}
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func numberOf(value any) (number, bool) {
	if value == nil {
		return number{}, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: numInt, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: numUint, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: numFloat, f: rv.Float()}, true
	default:
		return number{}, false
	}
}

func (n number) equalsFloat(f float64) bool {
	switch n.kind {
	case numFloat:
		return n.f == f
	case numInt:
		return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && int64(f) == n.i
	default:
		return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && uint64(f) == n.u
	}
}

// MarshalJSON encodes the mapping in key order with the default encoder
// configuration.
func (v *Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return encodeJSON(v, defaultJSONOptions())
}

// UnmarshalJSON decodes a JSON object keeping the document's key order.
// Nested objects become *Values and arrays become []any.
func (v *Values) UnmarshalJSON(data []byte) error {
	decoded, err := decodeOrderedJSON(data)
	if err != nil {
		return err
	}
	values, ok := decoded.(*Values)
	if !ok {
		return errNotAnObject
	}
	*v = *values
	return nil
}

func plain(value any) any {
	switch v := value.(type) {
	case *Values:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	default:
		return value
	}
}
