// Package runtime drives the translator: it turns lines into stored
// translation records, runs batch suites, and hosts the interactive line
// driver.
package runtime

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lemonberrylabs/shunting-yard/pkg/ast"
	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// Sources recorded on translations.
const (
	SourceREPL  = "repl"
	SourceAPI   = "api"
	SourceGRPC  = "grpc"
	SourceUI    = "ui"
	SourceBatch = "batch"
)

// Engine translates lines and records them in a store.
type Engine struct {
	translator *expr.Translator
	store      *store.Store
}

// NewEngine creates an engine recording into s. s may be nil, in which case
// nothing is recorded.
func NewEngine(s *store.Store, opts ...expr.Option) *Engine {
	return &Engine{
		translator: expr.NewTranslator(opts...),
		store:      s,
	}
}

// Translator returns the engine's translator.
func (e *Engine) Translator() *expr.Translator {
	return e.translator
}

// Store returns the engine's store, which may be nil.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Translate translates a single in-memory line and records it.
func (e *Engine) Translate(input, source string) *store.Translation {
	// A strings.Reader cannot fail, so the error return is always nil.
	res, _ := e.translator.Translate(expr.NewLexer(strings.NewReader(input)))
	return e.Record(input, res, source)
}

// Record builds a translation record from res and stores it.
func (e *Engine) Record(input string, res expr.Result, source string) *store.Translation {
	tr := Describe(input, res)
	tr.Source = source
	if e.store != nil {
		e.store.CreateTranslation(tr)
	}
	return tr
}

// Describe builds an unsaved translation record. Well-formed non-empty
// results are also rendered in infix form and evaluated.
func Describe(input string, res expr.Result) *store.Translation {
	tr := &store.Translation{
		Input:  input,
		Output: res.String(),
		Tokens: expr.TokenStrings(res.Output),
		State:  store.TranslationSucceeded,
	}
	if res.Err != nil {
		tr.State = store.TranslationMalformed
		tr.Error = res.Err
		return tr
	}
	if len(res.Output) == 0 {
		return tr
	}

	if node, err := expr.FromPostfix(res.Output); err == nil {
		tr.Infix = expr.Infix(node)
	}
	v, err := expr.EvaluatePostfix(res.Output)
	if err != nil {
		ee, ok := types.AsExprError(err)
		if !ok {
			ee = types.NewValueError(err.Error())
		}
		// A postfix sequence that does not reduce to one value is a
		// structural error, not an evaluation error.
		if ee.Malformed() {
			tr.State = store.TranslationMalformed
			tr.Error = ee
			return tr
		}
		tr.EvalError = ee
		return tr
	}
	tr.Value = &v
	return tr
}

// CaseResult is the outcome of a single suite case.
type CaseResult struct {
	ID          string
	Input       string
	Output      string
	Passed      bool
	Failure     string
	Translation string
}

// Report summarizes a suite run.
type Report struct {
	Suite   string
	Batch   string
	Results []CaseResult
	Passed  int
	Failed  int
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// ToMap converts the report into a JSON-friendly map containing only
// types accepted by structpb.
func (r *Report) ToMap() map[string]interface{} {
	results := make([]interface{}, len(r.Results))
	for i, cr := range r.Results {
		m := map[string]interface{}{
			"id":     cr.ID,
			"input":  cr.Input,
			"output": cr.Output,
			"passed": cr.Passed,
		}
		if cr.Failure != "" {
			m["failure"] = cr.Failure
		}
		if cr.Translation != "" {
			m["translation"] = cr.Translation
		}
		results[i] = m
	}
	return map[string]interface{}{
		"suite":   r.Suite,
		"batch":   r.Batch,
		"passed":  r.Passed,
		"failed":  r.Failed,
		"results": results,
	}
}

// RunSuite translates every case of suite, checks its expectations and
// records the translations. When batchName is non-empty the named batch
// is completed (or failed) in the store. Cancellation is checked between
// cases.
func (e *Engine) RunSuite(ctx context.Context, suite *ast.Suite, batchName string) (*Report, error) {
	tr := e.translator
	if suite.MaxDepth > 0 {
		tr = expr.NewTranslator(expr.WithMaxDepth(suite.MaxDepth))
	}

	report := &Report{Suite: suite.Name, Batch: batchName}
	var names, failures []string

	for _, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			e.failBatch(batchName, err)
			return report, fmt.Errorf("suite %q cancelled: %w", suite.Name, err)
		}

		res, _ := tr.Translate(expr.NewLexer(strings.NewReader(c.Input)))
		rec := e.Record(c.Input, res, SourceBatch)

		cr := CaseResult{
			ID:          c.ID,
			Input:       c.Input,
			Output:      rec.Output,
			Translation: rec.Name,
			Failure:     checkCase(c, res, rec, suite.Verify),
		}
		cr.Passed = cr.Failure == ""
		if cr.Passed {
			report.Passed++
		} else {
			report.Failed++
			failures = append(failures, fmt.Sprintf("%s: %s", c.ID, cr.Failure))
		}
		if rec.Name != "" {
			names = append(names, rec.Name)
		}
		report.Results = append(report.Results, cr)
	}

	if batchName != "" && e.store != nil {
		if err := e.store.CompleteBatch(batchName, names, failures, report.Passed, report.Failed); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (e *Engine) failBatch(name string, err error) {
	if name != "" && e.store != nil {
		if ferr := e.store.FailBatch(name, err); ferr != nil {
			log.Printf("Warning: could not mark batch %s as failed: %v", name, ferr)
		}
	}
}

// checkCase returns "" when the case passed, otherwise a description of
// the first mismatch.
func checkCase(c *ast.Case, res expr.Result, rec *store.Translation, verify bool) string {
	if c.HasWant && rec.Output != c.Want {
		return fmt.Sprintf("output %q, want %q", rec.Output, c.Want)
	}

	if c.WantError != "" {
		switch {
		case res.Err != nil && res.Err.Kind == c.WantError:
			return ""
		case rec.EvalError != nil && rec.EvalError.Kind == c.WantError:
			return ""
		case res.Err != nil:
			return fmt.Sprintf("error %s, want %s", res.Err.Kind, c.WantError)
		case rec.EvalError != nil:
			return fmt.Sprintf("evaluation error %s, want %s", rec.EvalError.Kind, c.WantError)
		default:
			return fmt.Sprintf("translated cleanly, want error %s", c.WantError)
		}
	}

	if res.Err != nil {
		if c.HasWant {
			return ""
		}
		return fmt.Sprintf("unexpected %s", res.Err)
	}

	if c.WantValue != nil {
		if rec.Value == nil {
			return fmt.Sprintf("no value (%v), want %d", rec.EvalError, *c.WantValue)
		}
		if *rec.Value != *c.WantValue {
			return fmt.Sprintf("value %d, want %d", *rec.Value, *c.WantValue)
		}
	}

	if verify && len(res.Output) > 0 {
		return crossCheck(c.Input, rec)
	}
	return ""
}

// crossCheck compares the value of the postfix output with an independent
// recursive-descent evaluation of the input.
func crossCheck(input string, rec *store.Translation) string {
	node, err := expr.ParseExpression(input)
	if err != nil {
		return fmt.Sprintf("translated to %q but the input does not parse: %v", rec.Output, err)
	}
	want, err := expr.Evaluate(node)
	switch {
	case err != nil && rec.Value != nil:
		return fmt.Sprintf("postfix value %d, infix evaluation failed: %v", *rec.Value, err)
	case err == nil && rec.Value == nil:
		return fmt.Sprintf("postfix evaluation failed (%v), infix value %d", rec.EvalError, want)
	case err == nil && *rec.Value != want:
		return fmt.Sprintf("postfix value %d, infix value %d", *rec.Value, want)
	}
	return ""
}
