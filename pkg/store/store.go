// Package store provides in-memory storage for translations and batch runs.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// TranslationState represents the outcome of a stored translation.
type TranslationState string

const (
	TranslationSucceeded TranslationState = "SUCCEEDED"
	TranslationMalformed TranslationState = "MALFORMED"
)

// BatchState represents the state of a batch run.
type BatchState string

const (
	BatchRunning   BatchState = "RUNNING"
	BatchSucceeded BatchState = "SUCCEEDED"
	BatchFailed    BatchState = "FAILED"
)

// Translation is the record of one translated line.
type Translation struct {
	Name       string           `json:"name"`
	Input      string           `json:"input"`
	Output     string           `json:"output"`
	Tokens     []string         `json:"tokens"`
	Infix      string           `json:"infix,omitempty"`
	Value      *int64           `json:"value,omitempty"`
	EvalError  *types.ExprError `json:"evalError,omitempty"`
	State      TranslationState `json:"state"`
	Error      *types.ExprError `json:"error,omitempty"`
	Source     string           `json:"source"`
	CreateTime time.Time        `json:"createTime"`
}

// ID returns the last segment of the translation name.
func (t *Translation) ID() string {
	return lastSegment(t.Name)
}

// ToMap converts the translation into a JSON-friendly map containing only
// types accepted by structpb.
func (t *Translation) ToMap() map[string]interface{} {
	tokens := make([]interface{}, len(t.Tokens))
	for i, tok := range t.Tokens {
		tokens[i] = tok
	}
	m := map[string]interface{}{
		"name":       t.Name,
		"input":      t.Input,
		"output":     t.Output,
		"tokens":     tokens,
		"state":      string(t.State),
		"source":     t.Source,
		"createTime": t.CreateTime.Format(time.RFC3339),
	}
	if t.Infix != "" {
		m["infix"] = t.Infix
	}
	if t.Value != nil {
		m["value"] = *t.Value
	}
	if t.EvalError != nil {
		m["evalError"] = t.EvalError.ToMap()
	}
	if t.Error != nil {
		m["error"] = t.Error.ToMap()
	}
	return m
}

// Batch is the record of one suite run.
type Batch struct {
	Name         string     `json:"name"`
	Suite        string     `json:"suite"`
	Source       string     `json:"sourceContents,omitempty"`
	State        BatchState `json:"state"`
	Passed       int        `json:"passed"`
	Failed       int        `json:"failed"`
	Translations []string   `json:"translations"`
	Failures     []string   `json:"failures,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime,omitempty"`
}

// ID returns the last segment of the batch name.
func (b *Batch) ID() string {
	return lastSegment(b.Name)
}

// Done reports whether the batch has finished.
func (b *Batch) Done() bool {
	return b.State != BatchRunning
}

// ToMap converts the batch outcome into a JSON-friendly map containing
// only types accepted by structpb.
func (b *Batch) ToMap() map[string]interface{} {
	translations := make([]interface{}, len(b.Translations))
	for i, name := range b.Translations {
		translations[i] = name
	}
	m := map[string]interface{}{
		"suite":        b.Suite,
		"state":        string(b.State),
		"passed":       b.Passed,
		"failed":       b.Failed,
		"translations": translations,
	}
	if len(b.Failures) > 0 {
		failures := make([]interface{}, len(b.Failures))
		for i, f := range b.Failures {
			failures[i] = f
		}
		m["failures"] = failures
	}
	return m
}

// Metadata returns the operation metadata of the batch.
func (b *Batch) Metadata() map[string]interface{} {
	m := map[string]interface{}{
		"suite":     b.Suite,
		"startTime": b.StartTime.Format(time.RFC3339),
	}
	if !b.EndTime.IsZero() {
		m["endTime"] = b.EndTime.Format(time.RFC3339)
	}
	return m
}

// Stats summarizes the stored translations.
type Stats struct {
	Total     int
	Succeeded int
	Malformed int
	Batches   int
}

// Store is a thread-safe in-memory storage for translations and batches.
type Store struct {
	mu           sync.RWMutex
	translations map[string]*Translation
	order        []string
	batches      map[string]*Batch
	batchOrder   []string

	// Counters for generating unique IDs
	trCounter    int64
	batchCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		translations: make(map[string]*Translation),
		batches:      make(map[string]*Batch),
	}
}

// CreateTranslation assigns a name and creation time to tr and stores it.
func (s *Store) CreateTranslation(tr *Translation) *Translation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trCounter++
	tr.Name = fmt.Sprintf("translations/%d", s.trCounter)
	tr.CreateTime = time.Now()
	s.translations[tr.Name] = tr
	s.order = append(s.order, tr.Name)
	return tr
}

// GetTranslation retrieves a translation by its full name.
func (s *Store) GetTranslation(name string) (*Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.translations[name]
	if !ok {
		return nil, fmt.Errorf("translation '%s' not found", name)
	}
	return tr, nil
}

// ListTranslations returns all translations in creation order.
func (s *Store) ListTranslations() []*Translation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Translation, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.translations[name])
	}
	return result
}

// DeleteTranslation removes a translation.
func (s *Store) DeleteTranslation(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.translations[name]; !ok {
		return fmt.Errorf("translation '%s' not found", name)
	}
	delete(s.translations, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Stats counts stored translations by state.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.translations), Batches: len(s.batches)}
	for _, tr := range s.translations {
		switch tr.State {
		case TranslationSucceeded:
			st.Succeeded++
		case TranslationMalformed:
			st.Malformed++
		}
	}
	return st
}

// CreateBatch creates a running batch record for the named suite.
func (s *Store) CreateBatch(suite, source string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchCounter++
	b := &Batch{
		Name:      fmt.Sprintf("operations/batch-%d", s.batchCounter),
		Suite:     suite,
		Source:    source,
		State:     BatchRunning,
		StartTime: time.Now(),
	}
	s.batches[b.Name] = b
	s.batchOrder = append(s.batchOrder, b.Name)
	return b.clone()
}

// GetBatch retrieves a snapshot of a batch by its full name.
func (s *Store) GetBatch(name string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[name]
	if !ok {
		return nil, fmt.Errorf("batch '%s' not found", name)
	}
	return b.clone(), nil
}

// ListBatches returns snapshots of all batches in creation order.
func (s *Store) ListBatches() []*Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Batch, 0, len(s.batchOrder))
	for _, name := range s.batchOrder {
		result = append(result, s.batches[name].clone())
	}
	return result
}

// clone copies b so callers can read it without holding the store lock.
func (b *Batch) clone() *Batch {
	cp := *b
	cp.Translations = append([]string(nil), b.Translations...)
	cp.Failures = append([]string(nil), b.Failures...)
	return &cp
}

// CompleteBatch records the results of a finished batch. The batch
// succeeds when no case failed.
func (s *Store) CompleteBatch(name string, translations, failures []string, passed, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[name]
	if !ok {
		return fmt.Errorf("batch '%s' not found", name)
	}
	if b.Done() {
		return fmt.Errorf("batch '%s' is not running (state: %s)", name, b.State)
	}

	b.Translations = translations
	b.Failures = failures
	b.Passed = passed
	b.Failed = failed
	b.State = BatchSucceeded
	if failed > 0 {
		b.State = BatchFailed
	}
	b.EndTime = time.Now()
	return nil
}

// FailBatch marks a batch as failed with an error.
func (s *Store) FailBatch(name string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[name]
	if !ok {
		return fmt.Errorf("batch '%s' not found", name)
	}
	b.State = BatchFailed
	b.Error = err.Error()
	b.EndTime = time.Now()
	return nil
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
