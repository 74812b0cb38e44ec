package openapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

func contactMap() *payload.Map {
	return payload.NewMap("Contact", func(m *payload.Map) {
		m.Add("name").Required().Label("Name").Validator(validate.Length(2, -1))
		m.Add("email").Required().Validator(validate.Email())
		m.Add("role").Default("guest").Validator(validate.OneOf("guest", "admin"))
		m.Add("country").ExportAs("country_id").Validator(validate.CountryCode()).Hidden()
		m.Add("nickname").AllowsNull().Custom("widget", "text")
	})
}

func TestDescribe(t *testing.T) {
	schema := Describe(contactMap())

	if schema.Title != "Contact" {
		t.Fatalf("expected title Contact, got %q", schema.Title)
	}
	if diff := cmp.Diff([]string{"name", "email"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", "email", "role", "country_id", "nickname"}, propertyOrder(schema)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	name := schema.Properties["name"].Value
	if name.Title != "Name" || name.MinLength != 2 || name.MaxLength != nil {
		t.Fatalf("unexpected name schema: title=%q min=%d max=%v", name.Title, name.MinLength, name.MaxLength)
	}
	role := schema.Properties["role"].Value
	if diff := cmp.Diff([]any{"guest", "admin"}, role.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if role.Default != "guest" {
		t.Fatalf("expected default guest, got %v", role.Default)
	}
	country := schema.Properties["country_id"].Value
	if country.Extensions[ExtKey] != "country" || country.Extensions[ExtHidden] != true {
		t.Fatalf("unexpected country extensions %v", country.Extensions)
	}
	if !schema.Properties["nickname"].Value.Nullable {
		t.Fatalf("expected nickname to be nullable")
	}
}

func TestDescribeNested(t *testing.T) {
	inner := payload.NewMap("Inner", func(m *payload.Map) {
		m.Add("city").Required()
	})
	outer := payload.NewMap("Outer", func(m *payload.Map) {
		m.Add("address").Required()
	})
	if err := outer.Set("address", inner); err != nil {
		t.Fatalf("set: %v", err)
	}

	address := Describe(outer).Properties["address"].Value
	if address.Extensions[ExtPayload] != "Inner" {
		t.Fatalf("expected nested payload extension, got %v", address.Extensions)
	}
	if diff := cmp.Diff([]string{"city"}, address.Required); diff != "" {
		t.Fatalf("nested required mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclareFromDescribedSchema(t *testing.T) {
	m, err := NewMap("Contact", Describe(contactMap()))
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "email", "role", "country", "nickname"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	country, _ := m.GetField("country")
	if country.ExportKey() != "country_id" || country.IsAccessible() {
		t.Fatalf("unexpected country props %+v", country.Props())
	}
	nickname, _ := m.GetField("nickname")
	if got := nickname.GetCustom("widget", ""); got != "text" {
		t.Fatalf("expected custom widget, got %v", got)
	}

	if err := m.ImportStrict(map[string]any{"name": "Al", "email": "al@example.io", "country": "BR"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !m.IsValid() {
		t.Fatalf("expected valid contact: %v", m.Validate())
	}

	_ = m.Set("country", "B1")
	invalid, ok := payload.AsInvalidData(m.Validate())
	if !ok || invalid.Key != "country" {
		t.Fatalf("expected country failure, got %v", m.Validate())
	}
}

func TestValidatorPersistsThroughRegistry(t *testing.T) {
	v, err := validate.Build(validate.Descriptor{Kind: KindOpenAPI, Args: []string{`{"type":"integer","minimum":1}`}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cases := []struct {
		value  any
		expect bool
	}{
		{value: 3, expect: true},
		{value: int64(7), expect: true},
		{value: 0, expect: false},
		{value: "x", expect: false},
		{value: nil, expect: false},
	}
	for _, tc := range cases {
		if got := v.Validate(tc.value); got != tc.expect {
			t.Fatalf("Validate(%v) = %v, want %v", tc.value, got, tc.expect)
		}
	}

	field := payload.NewMap("Counter", func(m *payload.Map) {
		m.Add("count").Required().Validator(v)
	})
	_ = field.Set("count", 2)
	blob, err := field.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := payload.NewMap("Counter", func(m *payload.Map) { m.Add("count") })
	if err := restored.UnmarshalBinary(blob); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	count, _ := restored.GetField("count")
	if _, ok := count.GetValidator().(*Validator); !ok {
		t.Fatalf("expected restored openapi validator, got %T", count.GetValidator())
	}
	_ = restored.Set("count", -1)
	if restored.IsValid() {
		t.Fatalf("expected restored validator to reject -1")
	}

	if _, err := validate.Build(validate.Descriptor{Kind: KindOpenAPI}); err == nil {
		t.Fatalf("expected arity error")
	}
}

func TestLoadFileComponents(t *testing.T) {
	doc, err := LoadFile(context.Background(), "testdata/contacts.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Contact", "Plain"}, doc.ComponentNames()); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}
	if doc.Source().Kind() != SourceKindFile {
		t.Fatalf("expected file source, got %s", doc.Source().Kind())
	}

	schema, err := doc.Component("Contact")
	if err != nil {
		t.Fatalf("component: %v", err)
	}
	contact, err := NewMap("Contact", schema)
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "email", "tags", "score"}, contact.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	_ = contact.Import(`{"name":"Twilight","email":"twi@library.eq","tags":["books","magic"]}`)
	if !contact.IsValid() {
		t.Fatalf("expected valid contact: %v", contact.Validate())
	}
	if got := contact.Get("score", nil); fmt.Sprint(got) != "5" {
		t.Fatalf("expected default score 5, got %v (%T)", got, got)
	}

	_ = contact.Set("score", 11)
	if contact.IsValid() {
		t.Fatalf("expected score above maximum to fail")
	}

	if _, err := doc.Component("Missing"); !errors.Is(err, ErrUnknownComponent) {
		t.Fatalf("expected ErrUnknownComponent, got %v", err)
	}
	plain, _ := doc.Component("Plain")
	if _, err := NewMap("Plain", plain); err == nil {
		t.Fatalf("expected non-object schema to be rejected")
	}
}

func TestNewDocumentErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewDocument(ctx, nil, []byte("x")); err == nil {
		t.Fatalf("expected source error")
	}
	if _, err := NewDocument(ctx, SourceInline("empty"), nil); err == nil {
		t.Fatalf("expected empty error")
	}
	if _, err := NewDocument(ctx, SourceInline("bad"), []byte("openapi: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
