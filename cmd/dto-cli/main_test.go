package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	schemaPath  = "../../pkg/schemafile/testdata/person.yaml"
	openapiPath = "../../pkg/openapi/testdata/contacts.yaml"

	personInput = `{"name":"  sarah connor ","email":"sarah@resistance.io","phone":"+1-202-555-0172","address":{"city":"los angeles","country":"us","postal_code":"90001"}}`
	personOut   = `{"name":"Sarah Connor","email":"sarah@resistance.io","phone":"+1-202-555-0172","role":"guest","notes":null,"address":{"city":"Los Angeles","country_id":"US","postal_code":"90001"}}` + "\n"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestRunImportsJSONInput(t *testing.T) {
	input := writeTemp(t, "person.json", personInput)
	out, err := runCLI(t, "", "-schema", schemaPath, "-payload", "SchemaPerson", "-input", input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff(personOut, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunImportsYAMLFromStdin(t *testing.T) {
	stdin := strings.Join([]string{
		"name: kyle reese",
		"email: kyle@resistance.io",
		`phone: "+1-202-555-0172"`,
		"address:",
		"  city: los angeles",
		"  country: us",
		`  postal_code: "90001"`,
	}, "\n")
	out, err := runCLI(t, stdin, "-schema", schemaPath, "-payload", "SchemaPerson", "-input", "-", "-accessible", "-sort")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := `{"address":{"city":"Los Angeles","country_id":"US","postal_code":"90001"},"email":"kyle@resistance.io","name":"Kyle Reese","phone":"+1-202-555-0172","role":"guest"}` + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRejections(t *testing.T) {
	unknown := writeTemp(t, "unknown.json", `{"name":"x","nickname":"y"}`)
	invalid := writeTemp(t, "invalid.json", `{"name":"sarah","phone":"+1-202-555-0172"}`)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: []string{"-payload", "SchemaPerson"}, want: "exactly one of"},
		{name: "two sources", args: []string{"-schema", schemaPath, "-openapi", openapiPath, "-payload", "X"}, want: "exactly one of"},
		{name: "no payload", args: []string{"-schema", schemaPath}, want: "-payload is required"},
		{name: "unknown payload", args: []string{"-schema", schemaPath, "-payload", "Nope"}, want: "unknown payload"},
		{name: "strict", args: []string{"-schema", schemaPath, "-payload", "SchemaPerson", "-input", unknown, "-strict"}, want: "nickname"},
		{name: "invalid", args: []string{"-schema", schemaPath, "-payload", "SchemaPerson", "-input", invalid}, want: "validate SchemaPerson"},
		{name: "input and restore", args: []string{"-schema", schemaPath, "-payload", "SchemaPerson", "-input", invalid, "-restore", invalid}, want: "mutually exclusive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, "", tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRunListAndDescribe(t *testing.T) {
	out, err := runCLI(t, "", "-schema", schemaPath, "-list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff("SchemaPerson\nSchemaAddress\n", out); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	out, err = runCLI(t, "", "-openapi", openapiPath, "-list")
	if err != nil {
		t.Fatalf("list openapi: %v", err)
	}
	if diff := cmp.Diff("Contact\nPlain\n", out); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	out, err = runCLI(t, "", "-schema", schemaPath, "-payload", "SchemaPerson", "-describe")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	for _, want := range []string{`"x-dto-order"`, `"required"`, `"email"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected describe output to contain %s:\n%s", want, out)
		}
	}
}

func TestRunOpenAPIComponent(t *testing.T) {
	input := writeTemp(t, "contact.json", `{"name":"Twilight","email":"twi@library.eq","tags":["books"]}`)
	out, err := runCLI(t, "", "-openapi", openapiPath, "-payload", "Contact", "-input", input, "-indent", "2")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{`"name": "Twilight"`, `"email": "twi@library.eq"`, `"score": 5`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %s:\n%s", want, out)
		}
	}

	bad := writeTemp(t, "bad.json", `{"name":"T","email":"twi@library.eq"}`)
	if _, err := runCLI(t, "", "-openapi", openapiPath, "-payload", "Contact", "-input", bad); err == nil {
		t.Fatalf("expected short name to be rejected")
	}
}

func TestRunSaveAndRestore(t *testing.T) {
	input := writeTemp(t, "person.json", personInput)
	blob := filepath.Join(t.TempDir(), "person.bin")

	if _, err := runCLI(t, "", "-schema", schemaPath, "-payload", "SchemaPerson", "-input", input, "-save", blob); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := runCLI(t, "", "-schema", schemaPath, "-payload", "SchemaPerson", "-restore", blob)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if diff := cmp.Diff(personOut, out); diff != "" {
		t.Fatalf("restored output mismatch (-want +got):\n%s", diff)
	}
}
