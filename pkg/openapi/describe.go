package openapi

import (
	"slices"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// Extensions written by Describe and read back by DeclareFromSchema.
const (
	ExtOrder   = "x-dto-order"
	ExtKey     = "x-dto-key"
	ExtHidden  = "x-dto-hidden"
	ExtCustom  = "x-dto-custom"
	ExtRule    = "x-dto-rule"
	ExtPayload = "x-dto-payload"
)

const countryPattern = `^[A-Za-z]{2}$`

// Describe returns the object schema of m. Properties are keyed by export
// key; required lists the required, non-nullable fields. A field currently
// holding a nested Map is described recursively.
func Describe(m *payload.Map) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = m.Name()
	if out.Properties == nil {
		out.Properties = make(openapi3.Schemas)
	}
	order := make([]string, 0, m.Len())
	for _, decl := range m.Describe() {
		out.Properties[decl.ExportKey] = openapi3.NewSchemaRef("", describeField(m, decl))
		order = append(order, decl.ExportKey)
		if decl.Props.Required && !decl.Props.Nullable {
			out.Required = append(out.Required, decl.ExportKey)
		}
	}
	out.Extensions = map[string]any{ExtOrder: order}
	return out
}

func describeField(m *payload.Map, decl payload.Declaration) *openapi3.Schema {
	var schema *openapi3.Schema
	if nested, ok := m.Get(decl.Key, nil).(*payload.Map); ok {
		schema = Describe(nested)
		schema.Extensions[ExtPayload] = nested.Name()
	} else {
		schema = describeValidator(decl.Props.Validator)
	}

	schema.Title = decl.Props.Label
	schema.Default = decl.Props.Default
	schema.Nullable = decl.Props.Nullable
	if schema.Extensions == nil {
		schema.Extensions = make(map[string]any)
	}
	if decl.ExportKey != decl.Key {
		schema.Extensions[ExtKey] = decl.Key
	}
	if !decl.Props.Accessible {
		schema.Extensions[ExtHidden] = true
	}
	if len(decl.Props.Custom) > 0 {
		schema.Extensions[ExtCustom] = decl.Props.Custom
	}
	if len(schema.Extensions) == 0 {
		schema.Extensions = nil
	}
	return schema
}

func describeValidator(v validate.Validator) *openapi3.Schema {
	if v == nil {
		return &openapi3.Schema{}
	}
	if schemaRule, ok := v.(*Validator); ok {
		clone := *schemaRule.Schema()
		return &clone
	}
	describer, ok := v.(validate.Describer)
	if !ok {
		return &openapi3.Schema{}
	}
	desc := describer.Describe()
	schema := openapi3.NewStringSchema()
	switch desc.Kind {
	case validate.KindEmail:
		schema.Format = "email"
		schema.Pattern = validate.EmailPattern
	case validate.KindPhone:
		schema.Pattern = validate.PhonePattern
	case validate.KindNotEmpty:
		schema.MinLength = 1
	case validate.KindRegex:
		schema.Pattern = desc.Args[0]
	case validate.KindLength:
		if lo, err := strconv.ParseUint(desc.Args[0], 10, 64); err == nil {
			schema.MinLength = lo
		}
		if len(desc.Args) > 1 {
			if hi, err := strconv.ParseUint(desc.Args[1], 10, 64); err == nil {
				schema.MaxLength = &hi
			}
		}
	case validate.KindOneOf:
		for _, option := range desc.Args {
			schema.Enum = append(schema.Enum, option)
		}
	case validate.KindCountryCode:
		schema.Pattern = countryPattern
	default:
		schema = &openapi3.Schema{}
	}
	schema.Extensions = map[string]any{ExtRule: desc.String()}
	return schema
}

func propertyOrder(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	var declared []string
	switch raw := schema.Extensions[ExtOrder].(type) {
	case []string:
		declared = raw
	case []any:
		for _, item := range raw {
			if name, ok := item.(string); ok {
				declared = append(declared, name)
			}
		}
	}
	if len(declared) == 0 {
		return names
	}

	out := make([]string, 0, len(names))
	for _, name := range declared {
		if _, ok := schema.Properties[name]; ok && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, name := range names {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
