package testsupport

import (
	"context"
	"sort"
	"sync"
	"testing"

	"clippa/internal/config"
	"clippa/internal/jobs"
)

// MustOpenStore opens the sqlite job store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.SQLiteStore {
	t.Helper()

	store, err := jobs.OpenSQLite(cfg.JobDBPath())
	if err != nil {
		t.Fatalf("jobs.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MemoryStore is an in-memory jobs.Store that also records every update
// attempt, so tests can assert that exactly one terminal report happened.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[string]*jobs.Job
	updates   map[string][]jobs.Outcome
	InsertErr error
	UpdateErr error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*jobs.Job),
		updates: make(map[string][]jobs.Outcome),
	}
}

func (s *MemoryStore) Insert(_ context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	cp := job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, outcome jobs.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[id] = append(s.updates[id], outcome)
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	job, ok := s.jobs[id]
	if !ok {
		return jobs.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return jobs.ErrTerminal
	}
	job.Status = outcome.Status
	job.StoragePath = outcome.StoragePath
	job.PublicURL = outcome.PublicURL
	job.ErrorMessage = outcome.ErrorMessage
	job.ErrorKind = outcome.ErrorKind
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, statuses ...jobs.Status) ([]*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[jobs.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []*jobs.Job
	for _, job := range s.jobs {
		if len(want) > 0 && !want[job.Status] {
			continue
		}
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ResetOrphaned(_ context.Context, message string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, job := range s.jobs {
		if job.Status == jobs.StatusProcessing {
			job.Status = jobs.StatusError
			job.ErrorMessage = message
			job.ErrorKind = "Interrupted"
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

// Updates returns every outcome submitted for id, including rejected ones.
func (s *MemoryStore) Updates(id string) []jobs.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]jobs.Outcome(nil), s.updates[id]...)
}
