package ingest

import (
	"context"
	"sync"

	"coursesync/db"
	"coursesync/model"
	"coursesync/plugins/analytics"
)

type mockFetcher struct {
	doc   analytics.Document
	err   error
	calls int
}

func (f *mockFetcher) FetchStructure(context.Context) (analytics.Document, error) {
	f.calls++
	return f.doc, f.err
}

// mockStore records what the runner asked of it.
type mockStore struct {
	mu         sync.Mutex
	replaceErr error
	listErr    error
	replaced   []model.ModuleEntry
	listCalls  int
	closed     bool
}

func (s *mockStore) Ping(context.Context) error { return nil }

func (s *mockStore) ReplaceModules(_ context.Context, entries []model.ModuleEntry, onStage db.StageFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if onStage != nil {
			onStage(e)
		}
	}
	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	s.replaced = append(s.replaced, entries...)
	return len(entries), nil
}

func (s *mockStore) ListModules(context.Context) ([]model.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	modules := make([]model.Module, 0, len(s.replaced))
	for _, e := range s.replaced {
		modules = append(modules, model.Module{ModuleID: e.ID, ModuleName: e.Name})
	}
	return modules, nil
}

func (s *mockStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// countingOpener wraps store and counts how often the runner connected.
func countingOpener(store db.Store, err error) (OpenStoreFunc, *int) {
	calls := 0
	return func(context.Context) (db.Store, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return store, nil
	}, &calls
}
