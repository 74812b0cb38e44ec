package schemafile

import (
	"github.com/goliatone/go-dto/pkg/validate"
)

// Document is the on-disk shape of a schema file.
type Document struct {
	Payloads []PayloadSpec `json:"payloads" yaml:"payloads"`
}

// PayloadSpec declares one payload map.
type PayloadSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

// FieldSpec declares one field of a payload map.
type FieldSpec struct {
	Key       string               `json:"key" yaml:"key"`
	ExportAs  string               `json:"export_as,omitempty" yaml:"export_as,omitempty"`
	Required  bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Nullable  bool                 `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Hidden    bool                 `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Default   any                  `json:"default,omitempty" yaml:"default,omitempty"`
	Label     string               `json:"label,omitempty" yaml:"label,omitempty"`
	Validator *validate.Descriptor `json:"validator,omitempty" yaml:"validator,omitempty"`
	Setters   []string             `json:"setters,omitempty" yaml:"setters,omitempty"`
	Payload   string               `json:"payload,omitempty" yaml:"payload,omitempty"`
	Custom    map[string]any       `json:"custom,omitempty" yaml:"custom,omitempty"`
}
