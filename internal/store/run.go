package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glossarion/glossarion/internal/models"
)

// RunStore persists import run records so status polls survive process
// restart and are visible across runner processes.
type RunStore struct {
	Base
}

// NewRunStore creates a RunStore with the given shared base.
func NewRunStore(base Base) *RunStore {
	return &RunStore{Base: base}
}

// Create inserts a new run record.
func (s *RunStore) Create(ctx context.Context, run *models.ImportRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	enrichment, err := json.Marshal(run.Enrichment)
	if err != nil {
		return fmt.Errorf("marshaling enrichment config: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO import_runs
			(id, source_file, source_id, mode, state, enrichment)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.SourceFile, run.SourceID, string(run.Mode), string(run.State), enrichment)
	if err != nil {
		return fmt.Errorf("creating import run: %w", err)
	}

	return nil
}

// Update writes the run's current state and counters.
func (s *RunStore) Update(ctx context.Context, run *models.ImportRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx, `
		UPDATE import_runs
		SET state = $2, rows_processed = $3, entities_imported = $4,
		    entities_failed = $5, categories_created = $6, error = $7,
		    updated_at = NOW()
		WHERE id = $1
	`, run.ID, string(run.State), run.RowsProcessed, run.EntitiesImported,
		run.EntitiesFailed, run.CategoriesCreated, run.Error)
	if err != nil {
		return fmt.Errorf("updating import run: %w", err)
	}

	return nil
}

// Get returns one run by ID, or models.ErrRunNotFound.
func (s *RunStore) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var run models.ImportRun
	var mode, state string
	var enrichment []byte

	err := s.Pool.QueryRow(ctx, `
		SELECT id, source_file, source_id, mode, state,
		       rows_processed, entities_imported, entities_failed,
		       categories_created, error, enrichment, started_at, updated_at
		FROM import_runs WHERE id = $1
	`, id).Scan(
		&run.ID, &run.SourceFile, &run.SourceID, &mode, &state,
		&run.RowsProcessed, &run.EntitiesImported, &run.EntitiesFailed,
		&run.CategoriesCreated, &run.Error, &enrichment,
		&run.StartedAt, &run.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, models.ErrRunNotFound
		}

		return nil, fmt.Errorf("getting import run %q: %w", id, err)
	}

	run.Mode = models.ImportMode(mode)
	run.State = models.RunState(state)

	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &run.Enrichment); err != nil {
			return nil, fmt.Errorf("decoding enrichment config: %w", err)
		}
	}

	return &run, nil
}

// ListRecent returns the most recently started runs.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]models.ImportRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT id, source_file, source_id, mode, state,
		       rows_processed, entities_imported, entities_failed,
		       categories_created, error, started_at, updated_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ImportRun

	for rows.Next() {
		var run models.ImportRun
		var mode, state string

		if err := rows.Scan(
			&run.ID, &run.SourceFile, &run.SourceID, &mode, &state,
			&run.RowsProcessed, &run.EntitiesImported, &run.EntitiesFailed,
			&run.CategoriesCreated, &run.Error, &run.StartedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning import run: %w", err)
		}

		run.Mode = models.ImportMode(mode)
		run.State = models.RunState(state)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import runs: %w", err)
	}

	return runs, nil
}
