package payload

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dto/pkg/validate"
)

func newTagMap(opts ...Option) *Map {
	return NewMap("TagMap", func(m *Map) {
		m.Add("slug").Required()
		m.Add("title").Required().Validator(validate.Length(1, 10))
		m.Add("country_id").ExportAs("country")
		m.Add("secret").Hidden()

		m.Setter("slug", func(_ *Map, value any) (any, error) {
			text, ok := value.(string)
			if !ok {
				return nil, errors.New("slug must be text")
			}
			return strings.ToLower(text), nil
		})
		m.Setter("countryId", func(_ *Map, value any) (any, error) {
			if value == "XX" {
				return nil, NewInvalidData("TagMap", "country_id", value, "Unknown country")
			}
			return value, nil
		})
		m.Getter("title", func(_ *Map, value any) any {
			if text, ok := value.(string); ok {
				return "[" + text + "]"
			}
			return value
		})
	}, opts...)
}

func TestNewMapRunsMapperOnce(t *testing.T) {
	calls := 0
	m := NewMap("Once", func(m *Map) {
		calls++
		m.Add("a")
	})
	_ = m.Set("a", 1)
	_ = m.ToArray()
	if calls != 1 {
		t.Fatalf("expected mapper to run once, got %d", calls)
	}
}

func TestMapSetAndGet(t *testing.T) {
	m := newTagMap()

	if err := m.Set("slug", "HeLLo"); err != nil {
		t.Fatalf("set slug: %v", err)
	}
	if got := m.Get("slug", nil); got != "hello" {
		t.Fatalf("expected setter to lower-case, got %v", got)
	}

	_ = m.Set("title", "hi")
	if got := m.Get("title", nil); got != "[hi]" {
		t.Fatalf("expected getter to wrap, got %v", got)
	}
	if got := m.Get("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for undeclared key, got %v", got)
	}

	err := m.Set("unknown", "x")
	invalid, ok := AsInvalidData(err)
	if !ok || invalid.Hint != hintUndeclared {
		t.Fatalf("expected undeclared key error, got %v", err)
	}

	err = m.Set("slug", 12)
	invalid, ok = AsInvalidData(err)
	if !ok || invalid.Hint != "slug must be text" || invalid.Err == nil {
		t.Fatalf("expected wrapped setter error, got %#v", err)
	}

	err = m.Set("country_id", "XX")
	invalid, ok = AsInvalidData(err)
	if !ok || invalid.Hint != "Unknown country" {
		t.Fatalf("expected setter InvalidData unchanged, got %v", err)
	}
	if m.Get("country_id", nil) != nil {
		t.Fatalf("rejected value must not be stored")
	}

	if err := m.SetWhen(false, "unknown", 1); err != nil {
		t.Fatalf("SetWhen(false) must be a no-op, got %v", err)
	}
}

func TestMapImportModes(t *testing.T) {
	input := ValuesOf("title", "Title", "unknown", "x", "slug", "Go")

	lenient := newTagMap()
	if err := lenient.Import(input); err != nil {
		t.Fatalf("lenient import: %v", err)
	}
	if lenient.Get("slug", nil) != "go" || lenient.Has("unknown") {
		t.Fatalf("lenient import should skip unknown keys and keep going")
	}

	strict := newTagMap()
	err := strict.ImportStrict(input)
	if invalid, ok := AsInvalidData(err); !ok || invalid.Key != "unknown" {
		t.Fatalf("expected strict import to fail on unknown, got %v", err)
	}
	if strict.Get("slug", nil) != nil {
		t.Fatalf("keys after the failure must stay untouched")
	}
	if strict.Get("title", nil) != "[Title]" {
		t.Fatalf("keys before the failure are kept")
	}

	fromJSON := newTagMap()
	_ = fromJSON.Import(`{"slug":"JSON"}`)
	if fromJSON.Get("slug", nil) != "json" {
		t.Fatalf("expected JSON text import")
	}

	broken := newTagMap()
	if err := broken.ImportStrict(`{"slug":`); err != nil {
		t.Fatalf("undecodable text is absent input, got %v", err)
	}
	if broken.Has("slug") && broken.Get("slug", nil) != nil {
		t.Fatalf("expected nothing imported")
	}

	if err := newTagMap().Import(42); err == nil {
		t.Fatalf("expected unsupported input error")
	}
}

func TestMapLenientImportLogsSkippedKeys(t *testing.T) {
	var buf bytes.Buffer
	m := newTagMap(WithLogger(log.NewLogfmtLogger(&buf)))
	_ = m.Import(map[string]any{"nope": 1})
	if !strings.Contains(buf.String(), "key=nope") {
		t.Fatalf("expected skipped key to be logged, got %q", buf.String())
	}
}

func TestMapExport(t *testing.T) {
	m := newTagMap()
	_ = m.Import(ValuesOf("slug", "a", "title", "b", "country_id", "BR", "secret", "s"))

	want := ValuesOf("slug", "a", "title", "b", "country", "BR", "secret", "s")
	if diff := cmp.Diff(want, m.ToArray()); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
	accessible := ValuesOf("slug", "a", "title", "b", "country", "BR")
	if diff := cmp.Diff(accessible, m.ExportAccessible()); diff != "" {
		t.Fatalf("accessible export mismatch (-want +got):\n%s", diff)
	}

	out, err := m.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if out != `{"slug":"a","title":"b","country":"BR","secret":"s"}` {
		t.Fatalf("unexpected json %s", out)
	}
	if m.String() != out {
		t.Fatalf("String must match ToJSON")
	}
}

func TestMapRemoveAndFields(t *testing.T) {
	m := newTagMap()
	_ = m.Set("slug", "x")

	if got := m.GetAndRemove("slug", nil); got != "x" {
		t.Fatalf("expected removed value, got %v", got)
	}
	if m.Has("slug") {
		t.Fatalf("expected slug removed")
	}
	field, ok := m.GetFieldAndRemove("title")
	if !ok || field.Key() != "title" || m.Has("title") {
		t.Fatalf("expected title field removed")
	}
	m.RemoveWhen(false, "secret")
	if !m.Has("secret") {
		t.Fatalf("RemoveWhen(false) must keep the field")
	}
	m.Remove("nope")

	var keys []string
	for _, f := range m.Fields() {
		keys = append(keys, f.Key())
	}
	if diff := cmp.Diff([]string{"country_id", "secret"}, keys); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", m.Len())
	}
}

func TestMapAddWhenAndRedeclare(t *testing.T) {
	var detached *Field
	m := NewMap("When", func(m *Map) {
		m.Add("a").Required()
		detached = m.AddWhen(false, "b").Required()
		m.AddWhen(true, "c")
		m.Add("a")
	})
	if diff := cmp.Diff([]string{"a", "c"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if detached.Back() != m {
		t.Fatalf("detached field must still point back to the map")
	}
	a, _ := m.GetField("a")
	if a.IsRequired() {
		t.Fatalf("redeclaring a key replaces the field")
	}
}

func TestMapValidate(t *testing.T) {
	m := newTagMap()
	_ = m.Set("slug", "ok")
	_ = m.Set("title", "much too long title")
	if m.IsValid() {
		t.Fatalf("expected invalid title")
	}
	invalid, _ := AsInvalidData(m.Validate())
	if invalid.Key != "title" {
		t.Fatalf("expected title to fail first, got %q", invalid.Key)
	}

	_ = m.Set("title", "short")
	if !m.IsValid() {
		t.Fatalf("expected valid map: %v", m.Validate())
	}
}

func TestMapDescribe(t *testing.T) {
	decls := newTagMap().Describe()
	if len(decls) != 4 {
		t.Fatalf("expected 4 declarations, got %d", len(decls))
	}
	country := decls[2]
	if country.Key != "country_id" || country.ExportKey != "country" || !country.HasSetter || country.HasGetter {
		t.Fatalf("unexpected declaration %+v", country)
	}
	if !decls[1].HasGetter || decls[3].Props.Accessible {
		t.Fatalf("unexpected declarations %+v", decls)
	}
}
