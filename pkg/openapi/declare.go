package openapi

import (
	"fmt"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-dto/pkg/payload"
)

// DeclareFromSchema adds one field per property of schema to m. Required
// properties become required fields, nullable properties allow null, titles
// become labels and each property schema becomes the field validator.
// Properties follow x-dto-order when present and lexical order otherwise.
func DeclareFromSchema(m *payload.Map, schema *openapi3.Schema) error {
	if schema == nil {
		return fmt.Errorf("openapi: declare %s: schema is nil", m.Name())
	}
	if schema.Type != nil && !schema.Type.Is(openapi3.TypeObject) {
		return fmt.Errorf("openapi: declare %s: schema type %v is not an object", m.Name(), schema.Type.Slice())
	}
	for _, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			return fmt.Errorf("openapi: declare %s: property %q is unresolved", m.Name(), name)
		}
		if err := declareProperty(m, name, ref.Value, slices.Contains(schema.Required, name)); err != nil {
			return err
		}
	}
	return nil
}

func declareProperty(m *payload.Map, name string, prop *openapi3.Schema, required bool) error {
	key := name
	if original, ok := prop.Extensions[ExtKey].(string); ok && original != "" {
		key = original
	}

	props := payload.DefaultProps()
	if key != name {
		props.ExportAs = name
	}
	props.Required = required
	props.Nullable = prop.Nullable
	props.Default = prop.Default
	props.Label = prop.Title
	if hidden, ok := prop.Extensions[ExtHidden].(bool); ok && hidden {
		props.Accessible = false
	}
	if custom, ok := prop.Extensions[ExtCustom].(map[string]any); ok {
		props.Custom = custom
	}

	v, err := NewValidator(prop)
	if err != nil {
		return fmt.Errorf("openapi: declare %s.%s: %w", m.Name(), key, err)
	}
	props.Validator = v
	m.Add(key).SetProps(props)
	return nil
}

// NewMap builds a Map named name whose fields come from schema.
func NewMap(name string, schema *openapi3.Schema, opts ...payload.Option) (*payload.Map, error) {
	var declareErr error
	m := payload.NewMap(name, func(m *payload.Map) {
		declareErr = DeclareFromSchema(m, schema)
	}, opts...)
	if declareErr != nil {
		return nil, declareErr
	}
	return m, nil
}
