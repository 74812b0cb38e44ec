package payload

import (
	"maps"

	"github.com/goliatone/go-dto/pkg/validate"
)

// Props groups the declaration properties of a Field. The zero value is a
// hidden, optional, non-nullable field; Map.Add starts from DefaultProps.
type Props struct {
	ExportAs   string
	Nullable   bool
	Accessible bool
	Required   bool
	Default    any
	Label      string
	Validator  validate.Validator
	Custom     map[string]any
}

// DefaultProps returns the properties every declared field starts with.
func DefaultProps() Props {
	return Props{Accessible: true}
}

// Field is a named value slot owned by a Map. Setters return the field so
// declarations can be chained; Back returns to the owning Map.
type Field struct {
	key   string
	value any
	props Props
	owner *Map
}

func newField(key string, owner *Map) *Field {
	return &Field{key: key, props: DefaultProps(), owner: owner}
}

// Key returns the field identifier.
func (f *Field) Key() string { return f.key }

// ExportAs sets the key used by ToArray and ToJSON.
func (f *Field) ExportAs(alias string) *Field {
	f.props.ExportAs = alias
	return f
}

// ExportKey returns the export alias, falling back to the key.
func (f *Field) ExportKey() string {
	if f.props.ExportAs != "" {
		return f.props.ExportAs
	}
	return f.key
}

// Value assigns the current value. Nothing is validated here; see Validate.
func (f *Field) Value(value any) *Field {
	f.value = value
	return f
}

// HasValue reports whether an explicit non-null value was assigned.
func (f *Field) HasValue() bool {
	return !isNull(f.value)
}

// GetValue resolves the explicit value, then the declared default, then
// fallback.
func (f *Field) GetValue(fallback any) any {
	if !isNull(f.value) {
		return f.value
	}
	if !isNull(f.props.Default) {
		return f.props.Default
	}
	return fallback
}

// Export returns the resolved value normalised by Export.
func (f *Field) Export() any {
	return Export(f.GetValue(nil))
}

func (f *Field) Label(label string) *Field {
	f.props.Label = label
	return f
}

func (f *Field) GetLabel() string { return f.props.Label }

// Default sets the value GetValue falls back to when nothing was assigned.
func (f *Field) Default(value any) *Field {
	f.props.Default = value
	return f
}

func (f *Field) GetDefault() any { return f.props.Default }

func (f *Field) Required() *Field {
	f.props.Required = true
	return f
}

func (f *Field) Optional() *Field {
	f.props.Required = false
	return f
}

func (f *Field) IsRequired() bool { return f.props.Required }

func (f *Field) Accessible() *Field {
	f.props.Accessible = true
	return f
}

// Hidden marks the field as not accessible. Hidden fields are still exported
// by ToArray; ExportAccessible skips them.
func (f *Field) Hidden() *Field {
	f.props.Accessible = false
	return f
}

func (f *Field) IsAccessible() bool { return f.props.Accessible }

func (f *Field) AllowsNull() *Field {
	f.props.Nullable = true
	return f
}

func (f *Field) NotAllowsNull() *Field {
	f.props.Nullable = false
	return f
}

func (f *Field) IsNullable() bool { return f.props.Nullable }

// Validator attaches the capability used by Validate.
func (f *Field) Validator(v validate.Validator) *Field {
	f.props.Validator = v
	return f
}

func (f *Field) GetValidator() validate.Validator { return f.props.Validator }

// Custom stores arbitrary extension data on the field.
func (f *Field) Custom(key string, value any) *Field {
	if f.props.Custom == nil {
		f.props.Custom = make(map[string]any)
	}
	f.props.Custom[key] = value
	return f
}

// GetCustom returns the custom value stored under key, or fallback.
func (f *Field) GetCustom(key string, fallback any) any {
	if value, ok := f.props.Custom[key]; ok && value != nil {
		return value
	}
	return fallback
}

// Props returns a copy of the field properties.
func (f *Field) Props() Props {
	out := f.props
	out.Custom = maps.Clone(f.props.Custom)
	return out
}

// SetProps replaces every property at once.
func (f *Field) SetProps(props Props) *Field {
	props.Custom = maps.Clone(props.Custom)
	f.props = props
	return f
}

// Back returns the owning Map.
func (f *Field) Back() *Map { return f.owner }

// Validate applies the field rules: a required, non-nullable field needs a
// value; a nullable field holding null is valid without consulting the
// validator; self-validating values decide for themselves; otherwise the
// attached validator decides, and a field without rules is valid.
func (f *Field) Validate() bool {
	value := f.GetValue(nil)
	null := isNull(value)

	if f.props.Required && !f.props.Nullable {
		if null {
			return false
		}
	} else if f.props.Nullable && null {
		return true
	}

	if nested, ok := value.(Validatable); ok {
		return nested.IsValid()
	}
	if f.props.Validator == nil {
		return true
	}
	return f.props.Validator.Validate(value)
}

// Assert returns nil when Validate passes. A failing nested payload reports
// its own error unchanged; any other failure is an *InvalidDataError for this
// field.
func (f *Field) Assert() error {
	if f.Validate() {
		return nil
	}
	if nested, ok := f.GetValue(nil).(Validatable); ok {
		if err := nested.Validate(); err != nil {
			return err
		}
	}
	return NewInvalidData(f.ownerName(), f.key, f.value, hintFixIt)
}

func (f *Field) ownerName() string {
	if f.owner == nil {
		return ""
	}
	return f.owner.name
}
