package api

import (
	"context"

	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/pipeline"
	"github.com/glossarion/glossarion/internal/store"
)

// TermRepository provides read access to the glossary catalog.
type TermRepository interface {
	List(ctx context.Context, categoryName string, limit, offset int) ([]models.TermSummary, error)
	GetBySlug(ctx context.Context, slug string) (*models.Term, error)
	Count(ctx context.Context) (int, error)
}

// CategoryRepository provides read access to categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
}

// ImportRunner starts, inspects, and cancels ingestion runs.
type ImportRunner interface {
	Start(ctx context.Context, req pipeline.Request) (*models.ImportRun, error)
	Status(ctx context.Context, runID string) (*models.ImportRun, error)
	Cancel(runID string) error
	List(ctx context.Context, limit int) ([]models.ImportRun, error)
}

// CheckpointAdmin exposes checkpoint maintenance operations.
type CheckpointAdmin interface {
	Reset(ctx context.Context, sourceID string) (int, error)
}

// Compile-time checks that the concrete implementations satisfy the
// handler-facing interfaces.
var (
	_ TermRepository     = (*store.TermStore)(nil)
	_ CategoryRepository = (*store.CategoryStore)(nil)
	_ ImportRunner       = (*pipeline.Runner)(nil)
	_ CheckpointAdmin    = (*store.CheckpointStore)(nil)
)
