package dto

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dto/pkg/validate"
)

func TestFacadeDeclareAndExport(t *testing.T) {
	m := NewMap("Pony", func(m *Map) {
		m.Add("name").Required()
		m.Add("kind").Validator(validate.OneOf("earth", "pegasus", "unicorn")).Default("earth")
	})
	if err := m.ImportStrict(ValuesOf("name", "Rarity", "kind", "unicorn")); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, err := m.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if got != `{"name":"Rarity","kind":"unicorn"}` {
		t.Fatalf("unexpected json %s", got)
	}

	_ = m.Set("kind", "alicorn")
	if err := m.Validate(); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}

	schema := Describe(m)
	if diff := cmp.Diff([]string{"name"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestFacadeLoaders(t *testing.T) {
	catalog, err := LoadSchemas("pkg/schemafile/testdata/person.yaml")
	if err != nil {
		t.Fatalf("load schemas: %v", err)
	}
	if _, err := catalog.New("SchemaPerson"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := LoadSchemas("pkg/schemafile/testdata/missing.yaml"); err == nil {
		t.Fatalf("expected missing path to fail")
	}

	doc, err := LoadOpenAPI(context.Background(), "pkg/openapi/testdata/contacts.yaml")
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}
	contact, err := MapFromOpenAPI(doc, "Contact")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "email", "tags", "score"}, contact.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if _, err := LoadOpenAPI(context.Background(), " "); err == nil {
		t.Fatalf("expected blank location to fail")
	}

	arr := NewArray("Bag").Add("k", 1)
	if !arr.Has("k") {
		t.Fatalf("expected array to hold k")
	}
}
