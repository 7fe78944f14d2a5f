package api_test

import (
	"context"

	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/pipeline"
)

// mockTermRepo implements api.TermRepository for testing.
type mockTermRepo struct {
	listFn  func(ctx context.Context, categoryName string, limit, offset int) ([]models.TermSummary, error)
	getFn   func(ctx context.Context, slug string) (*models.Term, error)
	countFn func(ctx context.Context) (int, error)
}

func (m *mockTermRepo) List(ctx context.Context, categoryName string, limit, offset int) ([]models.TermSummary, error) {
	return m.listFn(ctx, categoryName, limit, offset)
}

func (m *mockTermRepo) GetBySlug(ctx context.Context, slug string) (*models.Term, error) {
	return m.getFn(ctx, slug)
}

func (m *mockTermRepo) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

// mockCategoryRepo implements api.CategoryRepository for testing.
type mockCategoryRepo struct {
	listFn func(ctx context.Context) ([]models.Category, error)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	return m.listFn(ctx)
}

// mockRunner implements api.ImportRunner for testing.
type mockRunner struct {
	startFn  func(ctx context.Context, req pipeline.Request) (*models.ImportRun, error)
	statusFn func(ctx context.Context, runID string) (*models.ImportRun, error)
	cancelFn func(runID string) error
	listFn   func(ctx context.Context, limit int) ([]models.ImportRun, error)
}

func (m *mockRunner) Start(ctx context.Context, req pipeline.Request) (*models.ImportRun, error) {
	return m.startFn(ctx, req)
}

func (m *mockRunner) Status(ctx context.Context, runID string) (*models.ImportRun, error) {
	return m.statusFn(ctx, runID)
}

func (m *mockRunner) Cancel(runID string) error {
	return m.cancelFn(runID)
}

func (m *mockRunner) List(ctx context.Context, limit int) ([]models.ImportRun, error) {
	return m.listFn(ctx, limit)
}

// mockCheckpointAdmin implements api.CheckpointAdmin for testing.
type mockCheckpointAdmin struct {
	resetFn func(ctx context.Context, sourceID string) (int, error)
}

func (m *mockCheckpointAdmin) Reset(ctx context.Context, sourceID string) (int, error) {
	return m.resetFn(ctx, sourceID)
}
