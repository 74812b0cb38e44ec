package schemafile

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

func loadPeople(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := LoadFile("testdata/person.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return catalog
}

func TestLoadFileDeclaresPayloads(t *testing.T) {
	catalog := loadPeople(t)

	if diff := cmp.Diff([]string{"SchemaPerson", "SchemaAddress"}, catalog.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	person, err := catalog.New("SchemaPerson")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "email", "phone", "role", "notes", "address"}, person.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	notes, _ := person.GetField("notes")
	if notes.IsAccessible() || !notes.IsNullable() {
		t.Fatalf("expected notes hidden and nullable, got %+v", notes.Props())
	}
	if got := notes.GetCustom("widget", ""); got != "textarea" {
		t.Fatalf("expected custom widget, got %v", got)
	}
	if got := person.Get("role", nil); got != "guest" {
		t.Fatalf("expected default role, got %v", got)
	}
}

func TestCatalogImportAndExport(t *testing.T) {
	catalog := loadPeople(t)
	person := catalog.MustNew("SchemaPerson")

	input := payload.ValuesOf(
		"name", "  pinkie pie ",
		"email", "pinkie@sugarcube.eq",
		"phone", "+1-202-555-0172",
		"notes", "<em>party</em> planner",
		"address", map[string]any{
			"city":        "ponyville",
			"country":     "us",
			"postal_code": "55372-",
		},
	)
	if err := person.ImportStrict(input); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !person.IsValid() {
		t.Fatalf("expected valid person: %v", person.Validate())
	}

	got := person.ToArray().Map()
	want := map[string]any{
		"name":  "Pinkie Pie",
		"email": "pinkie@sugarcube.eq",
		"phone": "+1-202-555-0172",
		"role":  "guest",
		"notes": "party planner",
		"address": map[string]any{
			"city":        "Ponyville",
			"country_id":  "US",
			"postal_code": "55372",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}

	accessible := person.ExportAccessible()
	if _, ok := accessible.Get("notes"); ok {
		t.Fatalf("expected hidden notes to be skipped")
	}
}

func TestCatalogValidatorRejects(t *testing.T) {
	catalog := loadPeople(t)
	person := catalog.MustNew("SchemaPerson")
	_ = person.Import(map[string]any{"name": "x", "email": "x@y.z", "phone": "202 555 0172", "role": "root"})

	err := person.Validate()
	invalid, ok := payload.AsInvalidData(err)
	if !ok {
		t.Fatalf("expected invalid data, got %v", err)
	}
	if invalid.Key != "role" {
		t.Fatalf("expected role to fail, got %q", invalid.Key)
	}
}

func TestParseJSONDocument(t *testing.T) {
	doc := `{"payloads":[{"name":"Tag","fields":[{"key":"slug","required":true,"validator":{"kind":"regex","args":["^[a-z-]+$"]}}]}]}`
	catalog, err := Parse([]byte(doc), "inline.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tag := catalog.MustNew("Tag")
	if err := tag.Set("slug", "Not A Slug"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tag.IsValid() {
		t.Fatalf("expected regex to reject")
	}
	field, _ := tag.GetField("slug")
	if d, ok := field.GetValidator().(validate.Describer); !ok || d.Describe().Kind != validate.KindRegex {
		t.Fatalf("expected describable regex validator")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		doc    string
		expect string
	}{
		{name: "empty", doc: "  ", expect: "is empty"},
		{name: "garbage", doc: "payloads: [", expect: "invalid JSON or YAML"},
		{name: "no name", doc: `{"payloads":[{"fields":[]}]}`, expect: "without a name"},
		{name: "no key", doc: `{"payloads":[{"name":"A","fields":[{}]}]}`, expect: "has no key"},
		{name: "duplicate field", doc: `{"payloads":[{"name":"A","fields":[{"key":"a"},{"key":"a"}]}]}`, expect: "twice"},
		{name: "unknown rule", doc: `{"payloads":[{"name":"A","fields":[{"key":"a","validator":{"kind":"nope"}}]}]}`, expect: "unknown rule"},
		{name: "unknown setter", doc: `{"payloads":[{"name":"A","fields":[{"key":"a","setters":["nope"]}]}]}`, expect: "unknown mutator"},
		{name: "payload with setters", doc: `{"payloads":[{"name":"A","fields":[{"key":"a","payload":"A","setters":["trim"]}]}]}`, expect: "cannot combine"},
		{name: "duplicate payload", doc: `{"payloads":[{"name":"A","fields":[]},{"name":"A","fields":[]}]}`, expect: "duplicate payload"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), tc.name)
			if err == nil || !strings.Contains(err.Error(), tc.expect) {
				t.Fatalf("expected error containing %q, got %v", tc.expect, err)
			}
		})
	}
}

func TestUnknownNestedPayload(t *testing.T) {
	_, err := LoadFile("testdata/broken.json")
	if !errors.Is(err, ErrUnknownPayload) {
		t.Fatalf("expected ErrUnknownPayload, got %v", err)
	}
}

func TestLoadFSMergesDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json":    {Data: []byte(`{"payloads":[{"name":"A","fields":[{"key":"b","payload":"B"}]}]}`)},
		"b.yml":     {Data: []byte("payloads:\n  - name: B\n    fields:\n      - key: c\n")},
		"notes.txt": {Data: []byte("ignored")},
	}
	catalog, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	a := catalog.MustNew("A")
	if err := a.Set("b", map[string]any{"c": 1}); err != nil {
		t.Fatalf("set nested: %v", err)
	}
	if got := a.ToArray().Map(); !cmp.Equal(got, map[string]any{"b": map[string]any{"c": 1}}) {
		t.Fatalf("unexpected export %v", got)
	}

	if _, err := catalog.New("Z"); !errors.Is(err, ErrUnknownPayload) {
		t.Fatalf("expected ErrUnknownPayload, got %v", err)
	}
}

func TestRegisterTypesRestoresNested(t *testing.T) {
	catalog := loadPeople(t)
	catalog.RegisterTypes()

	person := catalog.MustNew("SchemaPerson")
	_ = person.Import(map[string]any{
		"name":    "rarity",
		"email":   "rarity@boutique.eq",
		"address": map[string]any{"city": "canterlot", "country": "us", "postal_code": "10001"},
	})
	blob, err := person.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := catalog.MustNew("SchemaPerson")
	if err := restored.UnmarshalBinary(blob); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(person.ToArray().Map(), restored.ToArray().Map()); diff != "" {
		t.Fatalf("restored mismatch (-want +got):\n%s", diff)
	}
	if _, ok := restored.Get("address", nil).(*payload.Map); !ok {
		t.Fatalf("expected nested map to be restored as a payload")
	}
}

func TestDecodeYAMLKeepsOrder(t *testing.T) {
	values, err := DecodeYAML([]byte("zeta: 1\nalpha:\n  b: true\n  a: [x, 2]\nmid: ~\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, values.Keys()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	alpha, _ := values.Get("alpha")
	nested, ok := alpha.(*payload.Values)
	if !ok {
		t.Fatalf("expected nested values, got %T", alpha)
	}
	if diff := cmp.Diff([]string{"b", "a"}, nested.Keys()); diff != "" {
		t.Fatalf("nested order mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"zeta": 1, "alpha": map[string]any{"b": true, "a": []any{"x", 2}}, "mid": nil}
	if diff := cmp.Diff(want, values.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if _, err := DecodeYAML([]byte("- a\n- b\n")); !errors.Is(err, errYAMLNotMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}
