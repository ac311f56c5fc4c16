package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu          sync.RWMutex
	runs        map[string]store.Run
	points      map[string]map[int]store.SweepPoint
	phrases     map[string][]store.Phrase
	assignments map[string]map[int][]store.Assignment
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:        make(map[string]store.Run),
		points:      make(map[string]map[int]store.SweepPoint),
		phrases:     make(map[string][]store.Phrase),
		assignments: make(map[string]map[int][]store.Assignment),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun implements store.Store.
func (s *Store) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = store.NewRunID(r.CreatedAt)
	}
	if _, exists := s.runs[r.ID]; exists {
		return store.Run{}, fmt.Errorf("%w: run %s already exists", internalerr.ErrInvalidInput, r.ID)
	}
	s.runs[r.ID] = r
	return r, nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Store) requireRun(id string) error {
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// SavePoints implements store.Store.
func (s *Store) SavePoints(ctx context.Context, runID string, points []store.SweepPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRun(runID); err != nil {
		return err
	}
	byK := s.points[runID]
	if byK == nil {
		byK = make(map[int]store.SweepPoint)
		s.points[runID] = byK
	}
	for _, p := range points {
		p.PerTopic = append([]float64(nil), p.PerTopic...)
		byK[p.K] = p
	}
	return nil
}

// GetPoints implements store.Store.
func (s *Store) GetPoints(ctx context.Context, runID string) ([]store.SweepPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.SweepPoint, 0, len(s.points[runID]))
	for _, p := range s.points[runID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].K < out[j].K })
	return out, nil
}

// SavePhrases implements store.Store.
func (s *Store) SavePhrases(ctx context.Context, runID string, phrases []store.Phrase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRun(runID); err != nil {
		return err
	}
	s.phrases[runID] = append([]store.Phrase(nil), phrases...)
	return nil
}

// GetPhrases implements store.Store.
func (s *Store) GetPhrases(ctx context.Context, runID string) ([]store.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]store.Phrase(nil), s.phrases[runID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Text < out[j].Text
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// SaveAssignments implements store.Store.
func (s *Store) SaveAssignments(ctx context.Context, runID string, k int, rows []store.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRun(runID); err != nil {
		return err
	}
	byK := s.assignments[runID]
	if byK == nil {
		byK = make(map[int][]store.Assignment)
		s.assignments[runID] = byK
	}
	byK[k] = append([]store.Assignment(nil), rows...)
	return nil
}

// GetAssignments implements store.Store.
func (s *Store) GetAssignments(ctx context.Context, runID string, k int) ([]store.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]store.Assignment(nil), s.assignments[runID][k]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DocIndex < out[j].DocIndex })
	return out, nil
}

var _ store.Store = (*Store)(nil)
