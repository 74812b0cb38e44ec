package openapi

import (
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	jsoniter "github.com/json-iterator/go"

	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// KindOpenAPI is the rule kind under which schema validators persist.
const KindOpenAPI = "openapi"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	validate.Register(KindOpenAPI, func(args ...string) (validate.Validator, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument(s), got %d", len(args))
		}
		v, err := ParseValidator(args[0])
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Validator accepts values that satisfy an OpenAPI schema. Values are
// normalised through their JSON form first, so payloads, ordered values and
// Go numbers are checked the way a client would send them.
type Validator struct {
	schema *openapi3.Schema
	source string
}

// NewValidator wraps schema.
func NewValidator(schema *openapi3.Schema) (*Validator, error) {
	if schema == nil {
		return nil, errors.New("openapi: validator schema is nil")
	}
	source, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode schema: %w", err)
	}
	return &Validator{schema: schema, source: string(source)}, nil
}

// ParseValidator builds a Validator from schema JSON.
func ParseValidator(source string) (*Validator, error) {
	schema := openapi3.NewSchema()
	if err := schema.UnmarshalJSON([]byte(source)); err != nil {
		return nil, fmt.Errorf("openapi: decode schema: %w", err)
	}
	return &Validator{schema: schema, source: source}, nil
}

// Schema returns the wrapped schema.
func (v *Validator) Schema() *openapi3.Schema { return v.schema }

// Validate implements validate.Validator.
func (v *Validator) Validate(value any) bool {
	return v.Check(value) == nil
}

// Check is Validate with the schema error kept.
func (v *Validator) Check(value any) error {
	normalised, err := jsonValue(value)
	if err != nil {
		return err
	}
	return v.schema.VisitJSON(normalised)
}

// Describe implements validate.Describer.
func (v *Validator) Describe() validate.Descriptor {
	return validate.Descriptor{Kind: KindOpenAPI, Args: []string{v.source}}
}

func jsonValue(value any) (any, error) {
	data, err := payload.EncodeJSON("", payload.Export(value))
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
