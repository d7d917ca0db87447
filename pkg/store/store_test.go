package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

func TestTranslationCRUD(t *testing.T) {
	s := New()

	a := s.CreateTranslation(&Translation{Input: "1 + 2", Output: "1 2 ADD", State: TranslationSucceeded})
	b := s.CreateTranslation(&Translation{Input: "( 1", Output: types.Diagnostic, State: TranslationMalformed})

	if a.Name != "translations/1" || b.Name != "translations/2" {
		t.Fatalf("unexpected names %q, %q", a.Name, b.Name)
	}
	if a.ID() != "1" {
		t.Errorf("expected ID 1, got %q", a.ID())
	}
	if a.CreateTime.IsZero() {
		t.Error("expected a creation time")
	}

	got, err := s.GetTranslation("translations/2")
	if err != nil || got != b {
		t.Fatalf("GetTranslation: %v", err)
	}

	list := s.ListTranslations()
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Errorf("expected creation order, got %v", list)
	}

	if err := s.DeleteTranslation(a.Name); err != nil {
		t.Fatalf("DeleteTranslation: %v", err)
	}
	if _, err := s.GetTranslation(a.Name); err == nil {
		t.Error("expected deleted translation to be gone")
	}
	if err := s.DeleteTranslation(a.Name); err == nil {
		t.Error("expected error deleting twice")
	}
	if len(s.ListTranslations()) != 1 {
		t.Error("expected one translation left")
	}

	// Names are never reused.
	c := s.CreateTranslation(&Translation{})
	if c.Name != "translations/3" {
		t.Errorf("expected translations/3, got %q", c.Name)
	}
}

func TestStats(t *testing.T) {
	s := New()
	s.CreateTranslation(&Translation{State: TranslationSucceeded})
	s.CreateTranslation(&Translation{State: TranslationSucceeded})
	s.CreateTranslation(&Translation{State: TranslationMalformed})
	s.CreateBatch("suite", "")

	st := s.Stats()
	want := Stats{Total: 3, Succeeded: 2, Malformed: 1, Batches: 1}
	if st != want {
		t.Errorf("got %+v, want %+v", st, want)
	}
}

func TestTranslationToMap(t *testing.T) {
	v := int64(3)
	tr := &Translation{
		Name:   "translations/1",
		Input:  "1 + 2",
		Output: "1 2 ADD",
		Tokens: []string{"1", "2", "ADD"},
		Infix:  "(1 + 2)",
		Value:  &v,
		State:  TranslationSucceeded,
		Source: "api",
	}
	m := tr.ToMap()
	tokens, ok := m["tokens"].([]interface{})
	if !ok || len(tokens) != 3 || tokens[2] != "ADD" {
		t.Errorf("unexpected tokens %v", m["tokens"])
	}
	if m["value"] != int64(3) {
		t.Errorf("expected value 3, got %v", m["value"])
	}
	if _, ok := m["error"]; ok {
		t.Error("expected no error key")
	}

	tr.Error = types.NewUnbalancedOpenParen(0)
	m = tr.ToMap()
	errMap, ok := m["error"].(map[string]interface{})
	if !ok || errMap["kind"] != types.KindUnbalancedOpenParen || errMap["position"] != 0 {
		t.Errorf("unexpected error map %v", m["error"])
	}
}

func TestBatchLifecycle(t *testing.T) {
	s := New()

	b := s.CreateBatch("basics", "- '1'\n")
	if b.Name != "operations/batch-1" || b.ID() != "batch-1" {
		t.Fatalf("unexpected batch name %q", b.Name)
	}
	if b.Done() {
		t.Error("new batch should be running")
	}

	if err := s.CompleteBatch(b.Name, []string{"translations/1"}, nil, 1, 0); err != nil {
		t.Fatalf("CompleteBatch: %v", err)
	}
	if b.Done() {
		t.Error("a returned batch is a snapshot and must not change")
	}
	done, err := s.GetBatch(b.Name)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if done.State != BatchSucceeded || !done.Done() || done.EndTime.IsZero() {
		t.Errorf("unexpected completed batch %+v", done)
	}
	if err := s.CompleteBatch(b.Name, nil, nil, 0, 0); err == nil {
		t.Error("expected error completing a finished batch")
	}

	failing := s.CreateBatch("failing", "")
	if err := s.CompleteBatch(failing.Name, nil, []string{"case-1: boom"}, 0, 1); err != nil {
		t.Fatalf("CompleteBatch: %v", err)
	}
	if got, _ := s.GetBatch(failing.Name); got.State != BatchFailed {
		t.Errorf("expected FAILED, got %s", got.State)
	}

	broken := s.CreateBatch("broken", "")
	if err := s.FailBatch(broken.Name, errors.New("cancelled")); err != nil {
		t.Fatalf("FailBatch: %v", err)
	}
	if got, _ := s.GetBatch(broken.Name); got.State != BatchFailed || got.Error != "cancelled" {
		t.Errorf("unexpected failed batch %+v", got)
	}

	list := s.ListBatches()
	if len(list) != 3 || list[0].Name != b.Name || list[2].Name != broken.Name {
		t.Errorf("expected creation order, got %v", list)
	}
	if _, err := s.GetBatch("operations/batch-9"); err == nil {
		t.Error("expected not found")
	}
	if err := s.CompleteBatch("operations/batch-9", nil, nil, 0, 0); err == nil {
		t.Error("expected not found completing unknown batch")
	}
}

func TestConcurrentCreate(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.CreateTranslation(&Translation{Input: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, tr := range s.ListTranslations() {
		if seen[tr.Name] {
			t.Fatalf("duplicate name %s", tr.Name)
		}
		seen[tr.Name] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 translations, got %d", len(seen))
	}
}

func TestBatchSnapshotsDuringUpdates(t *testing.T) {
	s := New()
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, s.CreateBatch(fmt.Sprintf("suite-%d", i), "").Name)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for _, b := range s.ListBatches() {
				_ = b.ToMap()
				_ = b.Metadata()
			}
			if b, err := s.GetBatch(names[0]); err == nil {
				_ = b.ToMap()
			}
		}
	}()

	for i, name := range names {
		if i%2 == 0 {
			s.CompleteBatch(name, []string{"translations/1"}, []string{"case-1: boom"}, 0, 1)
		} else {
			s.FailBatch(name, errors.New("cancelled"))
		}
	}
	wg.Wait()

	snap := s.ListBatches()
	snap[0].Failures[0] = "changed"
	if got, _ := s.GetBatch(names[0]); got.Failures[0] != "case-1: boom" {
		t.Errorf("snapshot shares failures with the store: %v", got.Failures)
	}
}
