package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNormalizeText(t *testing.T) {
	out, err := run(t, "", "normalize", "-c", "1", "tel:+14155238886", "4155238886", "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "tel:+14155238886\t+14155238886\n" +
		"4155238886\t+14155238886\n" +
		"123\tunresolvable (too_short)\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNormalizeReadsStdin(t *testing.T) {
	out, err := run(t, "+31612345678\n\n612345678\n", "normalize", "--calling-code", "+31", "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var results []result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Number != "+31612345678" || r.Region != "NL" {
			t.Fatalf("unexpected result %+v", r)
		}
	}
}

func TestNormalizeYAMLAndStrict(t *testing.T) {
	out, err := run(t, "", "normalize", "-o", "yaml", "--strict", "+18002345678")
	if err == nil {
		t.Fatalf("expected strict mode to fail on a toll-free number")
	}

	var results []result
	if err := yaml.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Reason != "not_mobile" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestNormalizeUnknownOutput(t *testing.T) {
	if _, err := run(t, "", "normalize", "-o", "xml", "+14155238886"); err == nil {
		t.Fatalf("expected error for unknown output format")
	}
}

func TestLink(t *testing.T) {
	out, err := run(t, "", "link", "tel:+14155238886")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "https://wa.me/14155238886\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, "", "link", "--base-url", "https://wa.example/", "-c", "31", "612345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "https://wa.example/31612345678\n" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "", "link", "4155238886"); err == nil {
		t.Fatalf("expected error without calling code")
	}
}

func TestInvalidCallingCodeIsAFlagError(t *testing.T) {
	for _, args := range [][]string{
		{"normalize", "-c", "abc", "4155238886"},
		{"link", "--calling-code", "1684", "4155238886"},
	} {
		out, err := run(t, "", args...)
		if err == nil {
			t.Fatalf("%v: expected invalid calling code to fail", args)
		}
		if !strings.Contains(err.Error(), "--calling-code") {
			t.Fatalf("%v: expected flag error, got %v", args, err)
		}
		if out != "" {
			t.Fatalf("%v: expected no output, got %q", args, out)
		}
	}
}
