package storage

import (
	"context"
	"sort"
	"sync"

	"dendra/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	snapshots   map[string]model.TreeSnapshot
	history     map[string][]model.EpochReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.snapshots = make(map[string]model.TreeSnapshot)
	s.history = make(map[string][]model.EpochReport)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.TreeSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := snapshot
	copied.Nodes = copyNodes(snapshot.Nodes)
	s.snapshots[snapshot.RunID] = copied
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string) (model.TreeSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[runID]
	if !ok {
		return model.TreeSnapshot{}, false, nil
	}
	copied := snapshot
	copied.Nodes = copyNodes(snapshot.Nodes)
	return copied, true, nil
}

func (s *MemoryStore) SaveEpochHistory(_ context.Context, runID string, history []model.EpochReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]model.EpochReport(nil), history...)
	return nil
}

func (s *MemoryStore) GetEpochHistory(_ context.Context, runID string) ([]model.EpochReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.EpochReport(nil), history...), true, nil
}

func copyNodes(nodes []model.NodeRecord) []model.NodeRecord {
	copied := make([]model.NodeRecord, len(nodes))
	for i, record := range nodes {
		copied[i] = record
		copied[i].Weights = append([]float64(nil), record.Weights...)
		copied[i].History = append([]model.Outcome(nil), record.History...)
	}
	return copied
}
