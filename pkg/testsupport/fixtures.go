// Package testsupport holds the Person and Address fixtures shared by the
// payload tests, in both the field mapped and the freeform flavour, plus
// golden file helpers.
package testsupport

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dto/pkg/payload"
)

//go:embed testdata/*.json
var testdata embed.FS

// Fixture names under testdata/.
const (
	PersonMapInput  = "person_map.json"
	PersonMapGolden = "person_map.golden.json"
	PersonInput     = "person_array.json"
)

// MustReadFixture returns the raw bytes of a bundled fixture.
func MustReadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := testdata.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// MustLoadValues decodes a bundled JSON fixture into ordered values.
func MustLoadValues(t *testing.T, name string) *payload.Values {
	t.Helper()
	values := payload.NewValues()
	if err := values.UnmarshalJSON(MustReadFixture(t, name)); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return values
}

// CanonicalPersonMap returns the canonical input of the PersonMap fixture.
func CanonicalPersonMap(t *testing.T) *payload.Values {
	t.Helper()
	return MustLoadValues(t, PersonMapInput)
}

// CanonicalPerson returns the canonical input of the Person fixture.
func CanonicalPerson(t *testing.T) *payload.Values {
	t.Helper()
	return MustLoadValues(t, PersonInput)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// CompareValues diffs two ordered values, key order included.
func CompareValues(want, got *payload.Values) string {
	if diff := cmp.Diff(want.Keys(), got.Keys()); diff != "" {
		return "key order:\n" + diff
	}
	return cmp.Diff(want.Map(), got.Map())
}
