// Package dto re-exports the entry points of the payload engine so callers
// can declare, import, validate and export payloads from a single import.
package dto

import (
	"context"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-dto/pkg/openapi"
	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/schemafile"
	"github.com/goliatone/go-dto/pkg/validate"
)

// Map aliases payload.Map, the field mapped payload.
type Map = payload.Map

// Array aliases payload.Array, the freeform payload.
type Array = payload.Array

// Field aliases payload.Field.
type Field = payload.Field

// Values aliases payload.Values, the ordered mapping used for input and
// export.
type Values = payload.Values

// Mapper declares the fields of a Map.
type Mapper = payload.Mapper

// Option configures a payload.
type Option = payload.Option

// Validator aliases validate.Validator.
type Validator = validate.Validator

// InvalidDataError aliases payload.InvalidDataError.
type InvalidDataError = payload.InvalidDataError

// Catalog aliases schemafile.Catalog.
type Catalog = schemafile.Catalog

// ErrInvalidData matches every InvalidDataError through errors.Is.
var ErrInvalidData = payload.ErrInvalidData

// NewMap declares a Map named name.
func NewMap(name string, mapper Mapper, opts ...Option) *Map {
	return payload.NewMap(name, mapper, opts...)
}

// NewArray returns an empty freeform payload named name.
func NewArray(name string, opts ...Option) *Array {
	return payload.NewArray(name, opts...)
}

// ValuesOf builds ordered values from alternating keys and values.
func ValuesOf(pairs ...any) *Values {
	return payload.ValuesOf(pairs...)
}

// LoadSchemas reads payload declarations from a file or from every schema
// file under a directory, and registers the payloads for blob restores.
func LoadSchemas(path string, opts ...schemafile.Option) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dto: load schemas: %w", err)
	}
	var catalog *Catalog
	if info.IsDir() {
		catalog, err = schemafile.LoadFS(os.DirFS(path), opts...)
	} else {
		catalog, err = schemafile.LoadFile(path, opts...)
	}
	if err != nil {
		return nil, err
	}
	catalog.RegisterTypes()
	return catalog, nil
}

// LoadOpenAPI loads the document at location, a file path or an http(s) URL.
func LoadOpenAPI(ctx context.Context, location string, opts ...openapi.LoaderOption) (openapi.Document, error) {
	src := openapi.ParseSource(location)
	if src == nil {
		return openapi.Document{}, fmt.Errorf("dto: invalid source %q", location)
	}
	return openapi.NewLoader(opts...).Load(ctx, src)
}

// MapFromOpenAPI declares a Map from the named component schema of doc.
func MapFromOpenAPI(doc openapi.Document, component string, opts ...Option) (*Map, error) {
	schema, err := doc.Component(component)
	if err != nil {
		return nil, err
	}
	return openapi.NewMap(component, schema, opts...)
}

// Describe renders the declaration of m as an OpenAPI object schema.
func Describe(m *Map) *openapi3.Schema {
	return openapi.Describe(m)
}
