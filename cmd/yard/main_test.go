package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestREPL(t *testing.T) {
	out, err := execute(t, "3 + 4 * 5\n( 1 + 2\n1 + 2 )\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "> 3 4 5 MUL ADD\n> MALFORMED EQ\n> 1 2 ADD MALFORMED EQ\n> \n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestREPLFlags(t *testing.T) {
	out, err := execute(t, "2 ^ 3 ^ 2\n", "--prompt", "", "--evaluate", "--infix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2 3 2 POW POW\ninfix: (2 ^ (3 ^ 2))\n= 512\n\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestREPLMaxDepth(t *testing.T) {
	out, err := execute(t, "( ( 1 ) )\n( ( ( 1 ) ) )\n", "--max-depth", "2", "--prompt", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1\nMALFORMED EQ\n\n" {
		t.Errorf("got %q", out)
	}

	if _, err := execute(t, "", "--max-depth", "-1"); err == nil {
		t.Error("expected error for a negative depth")
	}
}

func TestMaxDepthFromEnv(t *testing.T) {
	t.Setenv("MAX_DEPTH", "1")
	out, err := execute(t, "( ( 1 ) )\n", "--prompt", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "MALFORMED EQ\n\n" {
		t.Errorf("got %q", out)
	}

	t.Setenv("MAX_DEPTH", "lots")
	if _, err := execute(t, ""); err == nil {
		t.Error("expected error for a non-numeric MAX_DEPTH")
	}
}

func writeSuite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeSuite(t, dir, "good.yaml", "- '1 + 2'\n- id: pow\n  input: '2 ^ 3'\n  wantValue: 8\n")

	out, err := execute(t, "", "batch", good)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	for _, want := range []string{"PASS good/case-1", "PASS good/pow", "2 passed, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	bad := writeSuite(t, dir, "bad.yaml", "name: bad\ncases:\n  - input: '1 + 2'\n    want: '1 2 SUB'\n")
	out, err = execute(t, "", "batch", good, bad)
	if err == nil {
		t.Fatal("expected failing batch to return an error")
	}
	if !strings.Contains(out, "FAIL bad/case-1") || !strings.Contains(out, "2 passed, 1 failed") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "", "batch", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := execute(t, "", "batch"); err == nil {
		t.Error("expected error without files")
	}
}

func TestPrimesCommand(t *testing.T) {
	out, err := execute(t, "", "primes", "20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2\n3\n5\n7\n11\n13\n17\n19\n" {
		t.Errorf("got %q", out)
	}

	for _, arg := range []string{"x", "-5", "100000000"} {
		if _, err := execute(t, "", "primes", arg); err == nil {
			t.Errorf("expected error for %q", arg)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("YARD_TEST_VALUE", "")
	if got := envOrDefault("YARD_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
	t.Setenv("YARD_TEST_VALUE", "set")
	if got := envOrDefault("YARD_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("got %q", got)
	}
}
