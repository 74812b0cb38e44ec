package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrUnknownComponent is returned when a document lacks the requested
// component schema.
var ErrUnknownComponent = errors.New("openapi: unknown component schema")

// Document wraps a parsed OpenAPI document and its origin.
type Document struct {
	source Source
	spec   *openapi3.T
}

// NewDocument parses raw and validates the result.
func NewDocument(ctx context.Context, src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return Document{}, fmt.Errorf("openapi: load %s: %w", src.Location(), err)
	}
	if err := spec.Validate(ctx); err != nil {
		return Document{}, fmt.Errorf("openapi: validate %s: %w", src.Location(), err)
	}
	return Document{source: src, spec: spec}, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(ctx context.Context, path string) (Document, error) {
	return NewLoader().Load(ctx, SourceFromFile(path))
}

// LoadFS reads and parses name from fsys.
func LoadFS(ctx context.Context, fsys fs.FS, name string) (Document, error) {
	return NewLoader(WithFileSystem(fsys)).Load(ctx, SourceFromFS(name))
}

// Source returns the origin of the document.
func (d Document) Source() Source { return d.source }

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Spec exposes the parsed kin-openapi document.
func (d Document) Spec() *openapi3.T { return d.spec }

// ComponentNames lists the component schema names in lexical order.
func (d Document) ComponentNames() []string {
	if d.spec == nil || d.spec.Components == nil {
		return nil
	}
	out := make([]string, 0, len(d.spec.Components.Schemas))
	for name := range d.spec.Components.Schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Component returns the resolved component schema called name.
func (d Document) Component(name string) (*openapi3.Schema, error) {
	if d.spec == nil || d.spec.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	ref, ok := d.spec.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return ref.Value, nil
}
