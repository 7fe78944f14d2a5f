package importer_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/store"
)

// mockTxRunner satisfies importer.TxRunner without a database. It tracks
// how many transactions were opened and whether one is currently open, so
// tests can assert which writes shared a transaction.
type mockTxRunner struct {
	calls int
	open  bool
}

func (r *mockTxRunner) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	r.calls++
	r.open = true

	defer func() { r.open = false }()

	return fn(nil)
}

// mockTermStore implements importer.TermStore for testing.
type mockTermStore struct {
	insertBulkFn   func(ctx context.Context, inserts []store.TermInsert) (int, map[string]string, error)
	clearCatalogFn func(ctx context.Context) error
}

func (m *mockTermStore) InsertBulk(ctx context.Context, _ store.Tx, inserts []store.TermInsert) (int, map[string]string, error) {
	return m.insertBulkFn(ctx, inserts)
}

func (m *mockTermStore) ClearCatalog(ctx context.Context) error {
	return m.clearCatalogFn(ctx)
}

// mockCategoryStore implements importer.CategoryStore for testing.
type mockCategoryStore struct {
	getOrCreateFn       func(ctx context.Context, names []string) (map[string]string, int, error)
	getOrCreateSubcatFn func(ctx context.Context, keys []store.SubcatKey) (map[store.SubcatKey]string, error)
}

func (m *mockCategoryStore) GetOrCreateBulk(ctx context.Context, _ store.Tx, names []string) (map[string]string, int, error) {
	return m.getOrCreateFn(ctx, names)
}

func (m *mockCategoryStore) GetOrCreateSubcategoriesBulk(ctx context.Context, _ store.Tx, keys []store.SubcatKey) (map[store.SubcatKey]string, error) {
	return m.getOrCreateSubcatFn(ctx, keys)
}

// mockSectionStore implements importer.SectionStore for testing.
type mockSectionStore struct {
	insertBulkFn func(ctx context.Context, inserts []store.SectionInsert) (int, error)
}

func (m *mockSectionStore) InsertBulk(ctx context.Context, _ store.Tx, inserts []store.SectionInsert) (int, error) {
	return m.insertBulkFn(ctx, inserts)
}

// mockCheckpointStore implements importer.CheckpointStore for testing,
// tracking state in memory so resumability can be asserted.
type mockCheckpointStore struct {
	mu     sync.Mutex
	states map[string]models.CheckpointStatus

	statusesFn       func(ctx context.Context, keys []string) (map[string]models.CheckpointStatus, error)
	markDoneBulkFn   func(ctx context.Context, sourceID string, keys []string) error
	markFailedFn     func(ctx context.Context, sourceID, key, reason string) error
	markFailedBulkFn func(ctx context.Context, sourceID string, keys []string, reason string) error
	resetFn          func(ctx context.Context, sourceID string) (int, error)
}

func newMockCheckpointStore() *mockCheckpointStore {
	return &mockCheckpointStore{states: make(map[string]models.CheckpointStatus)}
}

func (m *mockCheckpointStore) Statuses(ctx context.Context, keys []string) (map[string]models.CheckpointStatus, error) {
	if m.statusesFn != nil {
		return m.statusesFn(ctx, keys)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]models.CheckpointStatus)
	for _, k := range keys {
		if st, ok := m.states[k]; ok {
			out[k] = st
		}
	}

	return out, nil
}

func (m *mockCheckpointStore) MarkDoneBulk(ctx context.Context, _ store.Tx, sourceID string, keys []string) error {
	if m.markDoneBulkFn != nil {
		return m.markDoneBulkFn(ctx, sourceID, keys)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		m.states[k] = models.CheckpointDone
	}

	return nil
}

func (m *mockCheckpointStore) MarkFailed(ctx context.Context, _ store.Tx, sourceID, key, reason string) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, sourceID, key, reason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[key] = models.CheckpointFailed

	return nil
}

func (m *mockCheckpointStore) MarkFailedBulk(ctx context.Context, sourceID string, keys []string, reason string) error {
	if m.markFailedBulkFn != nil {
		return m.markFailedBulkFn(ctx, sourceID, keys, reason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		m.states[k] = models.CheckpointFailed
	}

	return nil
}

func (m *mockCheckpointStore) Reset(ctx context.Context, sourceID string) (int, error) {
	if m.resetFn != nil {
		return m.resetFn(ctx, sourceID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.states)
	m.states = make(map[string]models.CheckpointStatus)

	return n, nil
}

// happyTermStore resolves every slug to a deterministic ID and reports every
// term as newly inserted.
func happyTermStore() *mockTermStore {
	return &mockTermStore{
		insertBulkFn: func(_ context.Context, inserts []store.TermInsert) (int, map[string]string, error) {
			ids := make(map[string]string, len(inserts))
			for _, ti := range inserts {
				ids[ti.Term.Slug] = "id-" + ti.Term.Slug
			}

			return len(inserts), ids, nil
		},
		clearCatalogFn: func(context.Context) error { return nil },
	}
}

// happyCategoryStore resolves every name to a deterministic ID, reporting
// each distinct normalized name as created once.
func happyCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{
		getOrCreateFn: func(_ context.Context, names []string) (map[string]string, int, error) {
			ids := make(map[string]string)
			for _, n := range names {
				key := models.NormalizeCategoryName(n)
				if _, ok := ids[key]; !ok {
					ids[key] = "cat-" + key
				}
			}

			return ids, len(ids), nil
		},
		getOrCreateSubcatFn: func(_ context.Context, keys []store.SubcatKey) (map[store.SubcatKey]string, error) {
			ids := make(map[store.SubcatKey]string)
			for _, k := range keys {
				norm := store.SubcatKey{CategoryID: k.CategoryID, Name: models.NormalizeCategoryName(k.Name)}
				ids[norm] = "sub-" + norm.Name
			}

			return ids, nil
		},
	}
}

func happySectionStore() *mockSectionStore {
	return &mockSectionStore{
		insertBulkFn: func(_ context.Context, inserts []store.SectionInsert) (int, error) {
			return len(inserts), nil
		},
	}
}

// makeTerm builds a validated term named "Term N" with one Definition section.
func makeTerm(n int) *models.Term {
	t := &models.Term{
		Name:         fmt.Sprintf("Term %d", n),
		CategoryName: "Machine Learning",
		Sections: []models.SectionContent{
			{SectionName: "Definition", Kind: models.KindMarkdown, Content: "some definition"},
		},
	}

	if err := t.Validate(); err != nil {
		panic(err)
	}

	return t
}
