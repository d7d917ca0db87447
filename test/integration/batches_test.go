package integration

import (
	"net/http"
	"os"
	"strings"
	"testing"
)

func TestBatches_Suites(t *testing.T) {
	tests := []struct {
		file   string
		suite  string
		passed float64
	}{
		{"precedence.yaml", "precedence", 5},
		{"errors.yaml", "errors", 5},
		{"associativity.json", "associativity", 4},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			op := runBatch(t, loadSuite(t, tt.file))
			if op["done"] != true {
				t.Fatalf("expected a completed operation, got %v", op)
			}
			resp, ok := op["response"].(map[string]interface{})
			if !ok {
				t.Fatalf("expected response, got %v", op)
			}
			if resp["suite"] != tt.suite {
				t.Errorf("suite: got %v, want %s", resp["suite"], tt.suite)
			}
			if resp["state"] != "SUCCEEDED" {
				t.Errorf("state: got %v, failures: %v", resp["state"], resp["failures"])
			}
			if resp["passed"] != tt.passed || resp["failed"] != float64(0) {
				t.Errorf("expected %v passed and 0 failed, got %v/%v", tt.passed, resp["passed"], resp["failed"])
			}

			translations, _ := resp["translations"].([]interface{})
			if len(translations) != int(tt.passed) {
				t.Fatalf("expected %v translations, got %d", tt.passed, len(translations))
			}
			first, _ := translations[0].(string)
			if code, _ := getJSON(t, first); code != http.StatusOK {
				t.Errorf("expected batch translation %s to be stored, got %d", first, code)
			}

			name, _ := op["name"].(string)
			code, got := getJSON(t, name)
			if code != http.StatusOK {
				t.Fatalf("GET %s: expected 200, got %d", name, code)
			}
			if got["done"] != true {
				t.Errorf("expected stored operation to be done, got %v", got)
			}
		})
	}
}

func TestBatches_FailingCases(t *testing.T) {
	source := `name: mismatches
cases:
  - id: wrong-output
    input: "1 + 2"
    want: "1 2 SUB"
  - id: wrong-value
    input: "2 * 3"
    wantValue: 7
  - id: missing-error
    input: "1 + 2"
    wantError: UnbalancedOpenParen
  - id: fine
    input: "4 - 1"
    wantValue: 3
`
	op := runBatch(t, source)
	resp := op["response"].(map[string]interface{})
	if resp["state"] != "FAILED" {
		t.Fatalf("expected FAILED, got %v", resp["state"])
	}
	if resp["passed"] != float64(1) || resp["failed"] != float64(3) {
		t.Errorf("expected 1 passed and 3 failed, got %v/%v", resp["passed"], resp["failed"])
	}

	failures, _ := resp["failures"].([]interface{})
	joined := make([]string, len(failures))
	for i, f := range failures {
		joined[i], _ = f.(string)
	}
	all := strings.Join(joined, "\n")
	for _, want := range []string{"wrong-output", "wrong-value", "missing-error"} {
		if !strings.Contains(all, want) {
			t.Errorf("expected a failure for %s, got:\n%s", want, all)
		}
	}
	if strings.Contains(all, "fine") {
		t.Errorf("passing case reported as failure:\n%s", all)
	}
}

func TestBatches_MaxDepthOverride(t *testing.T) {
	source := `name: shallow
maxDepth: 2
cases:
  - input: "( ( 1 ) )"
    wantValue: 1
  - input: "( ( ( 1 ) ) )"
    wantError: CapacityExceeded
`
	op := runBatch(t, source)
	resp := op["response"].(map[string]interface{})
	if resp["state"] != "SUCCEEDED" {
		t.Errorf("expected SUCCEEDED, got %v: %v", resp["state"], resp["failures"])
	}
}

func TestBatches_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"not yaml", "cases: [unclosed"},
		{"unknown error kind", "- input: '1'\n  wantError: Oops\n"},
		{"multi-line input", "- input: \"1\\n2\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, result := postJSON(t, "batches", map[string]string{"sourceContents": tt.source})
			if code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
			assertErrorStatus(t, result, "INVALID_ARGUMENT")
		})
	}
}

func TestBatches_NotFound(t *testing.T) {
	code, result := getJSON(t, "operations/batch-999999")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	assertErrorStatus(t, result, "NOT_FOUND")
}

// TestStartup_SuitesLoaded checks that suites found in the suites directory
// at startup were run as batches.
func TestStartup_SuitesLoaded(t *testing.T) {
	if os.Getenv("YARD_URL") != "" {
		t.Skip("suites directory of an external server is unknown")
	}

	code, result := getJSON(t, "batches")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	ops, _ := result["operations"].([]interface{})

	suites := make(map[string]bool)
	for _, item := range ops {
		op := item.(map[string]interface{})
		if resp, ok := op["response"].(map[string]interface{}); ok {
			suites[resp["suite"].(string)] = true
		}
	}
	if len(suites) == 0 {
		t.Skip("server was started without suites")
	}
	for _, want := range []string{"precedence", "errors", "associativity"} {
		if !suites[want] {
			t.Errorf("expected suite %s to have run at startup, got %v", want, suites)
		}
	}
}
