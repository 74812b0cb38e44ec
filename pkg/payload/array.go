package payload

import (
	"slices"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Array is a freeform payload: an ordered key/value store without a declared
// schema. Concrete types embed *Array, supply their validation through
// WithValidation, and implement their own Import on top of ImportBindings.
type Array struct {
	name       string
	keys       []string
	values     map[string]any
	validation func(*Array) error
	importer   func(*Array, *Values) error
	logger     log.Logger
}

// NewArray returns an empty Array named name.
func NewArray(name string, opts ...Option) *Array {
	cfg := applyOptions(opts)
	return &Array{
		name:       name,
		values:     make(map[string]any),
		validation: cfg.validation,
		importer:   cfg.importer,
		logger:     cfg.logger,
	}
}

// Name returns the payload type name used in errors and persisted blobs.
func (a *Array) Name() string { return a.name }

// PayloadName implements the persisted payload contract.
func (a *Array) PayloadName() string { return a.name }

// Add stores value under key.
func (a *Array) Add(key string, value any) *Array {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

// AddWhen stores value only when condition holds.
func (a *Array) AddWhen(condition bool, key string, value any) *Array {
	if condition {
		a.Add(key, value)
	}
	return a
}

// Remove drops key. It is unconditional; removing a missing key is a no-op.
func (a *Array) Remove(key string) *Array {
	return a.RemoveWhen(true, key)
}

// RemoveWhen drops key only when condition holds.
func (a *Array) RemoveWhen(condition bool, key string) *Array {
	if !condition {
		return a
	}
	if _, exists := a.values[key]; !exists {
		return a
	}
	delete(a.values, key)
	if idx := slices.Index(a.keys, key); idx >= 0 {
		a.keys = slices.Delete(a.keys, idx, idx+1)
	}
	return a
}

// Get returns the value stored under key, or fallback when it is missing or
// null.
func (a *Array) Get(key string, fallback any) any {
	value, ok := a.values[key]
	if !ok || isNull(value) {
		return fallback
	}
	return value
}

// GetAndRemove returns Get(key, fallback) and removes key.
func (a *Array) GetAndRemove(key string, fallback any) any {
	value := a.Get(key, fallback)
	a.Remove(key)
	return value
}

// Has reports whether key holds a non-null value.
func (a *Array) Has(key string) bool {
	value, ok := a.values[key]
	return ok && !isNull(value)
}

// Keys returns the stored keys in insertion order.
func (a *Array) Keys() []string {
	return slices.Clone(a.keys)
}

// Len reports the number of stored keys.
func (a *Array) Len() int { return len(a.keys) }

// ValidateRequired fails on the first key whose value is missing or empty
// in the IsEmpty sense.
func (a *Array) ValidateRequired(keys ...string) error {
	for _, key := range keys {
		value := a.Get(key, nil)
		if IsEmpty(value) {
			return NewInvalidData(a.name, key, value, hintEmpty)
		}
	}
	return nil
}

// ValidateDepth validates every stored value that validates itself and
// returns the first failure unchanged.
func (a *Array) ValidateDepth() error {
	for _, key := range a.keys {
		if nested, ok := a.values[key].(Validatable); ok && !isNull(nested) {
			if err := nested.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate runs the validation supplied through WithValidation. Without one,
// only nested payloads are validated.
func (a *Array) Validate() error {
	if a.validation != nil {
		return a.validation(a)
	}
	return a.ValidateDepth()
}

// IsValid is Validate with InvalidData failures reported as false. Any
// other error is re-raised as a panic.
func (a *Array) IsValid() bool {
	return validatesWith(a.Validate)
}

// Binding pulls one key out of import input. Without a Setter the raw value
// is stored with Add.
type Binding struct {
	Key    string
	Setter func(value any) error
}

// Bind stores input[key] as is.
func Bind(key string) Binding {
	return Binding{Key: key}
}

// BindSetter passes input[key] to setter.
func BindSetter(key string, setter func(value any) error) Binding {
	return Binding{Key: key, Setter: setter}
}

// ImportBindings pulls the bound keys out of input in binding order. Keys
// that are missing or null in input are skipped and extra input keys are
// ignored. The first setter error is returned.
func (a *Array) ImportBindings(bindings []Binding, input any) error {
	values, err := DecodeInput(input)
	if err != nil {
		return err
	}
	for _, binding := range bindings {
		value, ok := values.Get(binding.Key)
		if !ok || isNull(value) {
			level.Debug(a.logger).Log("msg", "binding absent from input", "payload", a.name, "key", binding.Key)
			continue
		}
		if binding.Setter == nil {
			a.Add(binding.Key, value)
			continue
		}
		if err := binding.Setter(value); err != nil {
			return err
		}
	}
	return nil
}

// Import loads input through the importer supplied with WithImporter.
// Without one, every non-null input key is stored as is.
func (a *Array) Import(input any) error {
	values, err := DecodeInput(input)
	if err != nil {
		return err
	}
	if a.importer != nil {
		return a.importer(a, values)
	}
	for key, value := range values.All() {
		if !isNull(value) {
			a.Add(key, value)
		}
	}
	return nil
}

// ToArray exports every stored value in insertion order.
func (a *Array) ToArray() *Values {
	out := NewValues()
	for _, key := range a.keys {
		out.Set(key, Export(a.values[key]))
	}
	return out
}

// ToJSON encodes ToArray as JSON text.
func (a *Array) ToJSON(options ...JSONOption) (string, error) {
	out, err := EncodeJSON(a.name, a.ToArray(), options...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// MarshalJSON encodes ToArray with the default options.
func (a *Array) MarshalJSON() ([]byte, error) {
	return EncodeJSON(a.name, a.ToArray())
}

// String returns the JSON text, or an empty string when encoding fails.
func (a *Array) String() string {
	out, err := a.ToJSON()
	if err != nil {
		return ""
	}
	return out
}
