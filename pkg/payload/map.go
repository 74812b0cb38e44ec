package payload

import (
	"slices"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Mapper declares the fields of a Map. It runs exactly once, inside NewMap.
type Mapper func(m *Map)

// SetterFunc transforms a raw value before a Map stores it. Returning an
// error rejects the value.
type SetterFunc func(m *Map, value any) (any, error)

// GetterFunc transforms a resolved value before Get returns it.
type GetterFunc func(m *Map, value any) any

// Map is a payload with a declared, ordered set of fields.
type Map struct {
	name    string
	keys    []string
	fields  map[string]*Field
	setters map[string]SetterFunc
	getters map[string]GetterFunc
	logger  log.Logger
}

// NewMap builds a Map named name and declares its fields through mapper.
func NewMap(name string, mapper Mapper, opts ...Option) *Map {
	cfg := applyOptions(opts)
	m := &Map{
		name:    name,
		fields:  make(map[string]*Field),
		setters: make(map[string]SetterFunc),
		getters: make(map[string]GetterFunc),
		logger:  cfg.logger,
	}
	if mapper != nil {
		mapper(m)
	}
	return m
}

// Name returns the payload type name used in errors and persisted blobs.
func (m *Map) Name() string { return m.name }

// PayloadName implements the persisted payload contract.
func (m *Map) PayloadName() string { return m.name }

// Add declares key and returns its Field for chained configuration.
// Declaring an existing key replaces the field in place.
func (m *Map) Add(key string) *Field {
	field := newField(key, m)
	if _, exists := m.fields[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.fields[key] = field
	return field
}

// AddWhen declares key only when condition holds. When it does not, the
// returned field is detached: configuring it has no effect and Back still
// returns m.
func (m *Map) AddWhen(condition bool, key string) *Field {
	if condition {
		return m.Add(key)
	}
	return newField(key, m)
}

// Setter registers the setter mutator for key.
func (m *Map) Setter(key string, fn SetterFunc) *Map {
	if fn != nil {
		m.setters[mutatorKey(key)] = fn
	}
	return m
}

// Getter registers the getter mutator for key.
func (m *Map) Getter(key string, fn GetterFunc) *Map {
	if fn != nil {
		m.getters[mutatorKey(key)] = fn
	}
	return m
}

// mutatorKey folds keys so country_id, countryId and countryid share one
// mutator slot.
func mutatorKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

// Set stores value in the field declared as key, passing it through the
// key's setter first. Undeclared keys and rejected values fail with an
// *InvalidDataError.
func (m *Map) Set(key string, value any) error {
	field, ok := m.fields[key]
	if !ok {
		return NewInvalidData(m.name, key, value, hintUndeclared)
	}
	if setter, ok := m.setters[mutatorKey(key)]; ok {
		mutated, err := setter(m, value)
		if err != nil {
			return m.rejected(key, value, err)
		}
		value = mutated
	}
	field.Value(value)
	return nil
}

// SetWhen calls Set only when condition holds.
func (m *Map) SetWhen(condition bool, key string, value any) error {
	if !condition {
		return nil
	}
	return m.Set(key, value)
}

func (m *Map) rejected(key string, value any, err error) error {
	if invalid, ok := AsInvalidData(err); ok {
		return invalid
	}
	invalid := NewInvalidData(m.name, key, value, err.Error())
	invalid.Err = err
	return invalid
}

// Get resolves key through the field's value/default/fallback precedence and
// the key's getter. Undeclared keys return fallback.
func (m *Map) Get(key string, fallback any) any {
	field, ok := m.fields[key]
	if !ok {
		return fallback
	}
	value := field.GetValue(fallback)
	if getter, ok := m.getters[mutatorKey(key)]; ok {
		return getter(m, value)
	}
	return value
}

// GetField returns the Field declared as key.
func (m *Map) GetField(key string) (*Field, bool) {
	field, ok := m.fields[key]
	return field, ok
}

// GetAndRemove returns Get(key, fallback) and removes the field.
func (m *Map) GetAndRemove(key string, fallback any) any {
	value := m.Get(key, fallback)
	m.Remove(key)
	return value
}

// GetFieldAndRemove returns the Field declared as key and removes it.
func (m *Map) GetFieldAndRemove(key string) (*Field, bool) {
	field, ok := m.GetField(key)
	m.Remove(key)
	return field, ok
}

// Has reports whether key is declared.
func (m *Map) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// Remove drops the field declared as key from the registry.
func (m *Map) Remove(key string) *Map {
	return m.RemoveWhen(true, key)
}

// RemoveWhen drops key only when condition holds.
func (m *Map) RemoveWhen(condition bool, key string) *Map {
	if !condition || !m.Has(key) {
		return m
	}
	delete(m.fields, key)
	if idx := slices.Index(m.keys, key); idx >= 0 {
		m.keys = slices.Delete(m.keys, idx, idx+1)
	}
	return m
}

// Keys returns the declared keys in order.
func (m *Map) Keys() []string {
	return slices.Clone(m.keys)
}

// Fields returns the declared fields in order.
func (m *Map) Fields() []*Field {
	out := make([]*Field, 0, len(m.keys))
	for _, key := range m.keys {
		out = append(out, m.fields[key])
	}
	return out
}

// Declaration is a read-only view of one declared field.
type Declaration struct {
	Key       string
	ExportKey string
	Props     Props
	HasSetter bool
	HasGetter bool
}

// Describe snapshots the field declarations in order.
func (m *Map) Describe() []Declaration {
	out := make([]Declaration, 0, len(m.keys))
	for _, key := range m.keys {
		field := m.fields[key]
		_, setter := m.setters[mutatorKey(key)]
		_, getter := m.getters[mutatorKey(key)]
		out = append(out, Declaration{
			Key:       key,
			ExportKey: field.ExportKey(),
			Props:     field.Props(),
			HasSetter: setter,
			HasGetter: getter,
		})
	}
	return out
}

// Len reports the number of declared fields.
func (m *Map) Len() int { return len(m.keys) }

// Import sets every key of input, skipping keys that are undeclared or
// rejected. See ImportArray.
func (m *Map) Import(input any) error {
	return m.ImportArray(input, true)
}

// ImportStrict is Import with ignoreInvalid disabled.
func (m *Map) ImportStrict(input any) error {
	return m.ImportArray(input, false)
}

// ImportArray sets each key/value of input in input order. With
// ignoreInvalid, failures are skipped; otherwise the first failure is
// returned and the remaining keys are left untouched. Input that is not
// decodable JSON imports nothing.
func (m *Map) ImportArray(input any, ignoreInvalid bool) error {
	values, err := DecodeInput(input)
	if err != nil {
		return err
	}
	for key, value := range values.All() {
		if err := m.Set(key, value); err != nil {
			if !ignoreInvalid {
				return err
			}
			level.Debug(m.logger).Log("msg", "skipping invalid key", "payload", m.name, "key", key, "err", err)
		}
	}
	return nil
}

// Validate asserts every field in declaration order and returns the first
// failure.
func (m *Map) Validate() error {
	for _, key := range m.keys {
		if err := m.fields[key].Assert(); err != nil {
			return err
		}
	}
	return nil
}

// IsValid is Validate with InvalidData failures reported as false. Any
// other error is re-raised as a panic.
func (m *Map) IsValid() bool {
	return validatesWith(m.Validate)
}

// ToArray exports every field under its export key, in declaration order.
func (m *Map) ToArray() *Values {
	out := NewValues()
	for _, key := range m.keys {
		field := m.fields[key]
		out.Set(field.ExportKey(), field.Export())
	}
	return out
}

// ExportAccessible is ToArray restricted to accessible fields.
func (m *Map) ExportAccessible() *Values {
	out := NewValues()
	for _, key := range m.keys {
		field := m.fields[key]
		if !field.IsAccessible() {
			continue
		}
		out.Set(field.ExportKey(), field.Export())
	}
	return out
}

// ToJSON encodes ToArray as JSON text.
func (m *Map) ToJSON(options ...JSONOption) (string, error) {
	out, err := EncodeJSON(m.name, m.ToArray(), options...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// MarshalJSON encodes ToArray with the default options.
func (m *Map) MarshalJSON() ([]byte, error) {
	return EncodeJSON(m.name, m.ToArray())
}

// String returns the JSON text, or an empty string when encoding fails.
func (m *Map) String() string {
	out, err := m.ToJSON()
	if err != nil {
		return ""
	}
	return out
}
