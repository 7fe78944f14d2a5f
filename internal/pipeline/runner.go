package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glossarion/glossarion/internal/models"
)

// ErrRunActive is returned when a new run is requested while another is
// still in progress. Imports are serialized: concurrent full imports would
// race each other's catalog clears.
var ErrRunActive = errors.New("an import run is already active")

// Runner starts pipeline runs in the background and answers status polls.
// Terminal run records come from the store, so status outlives the process
// that ran the import.
type Runner struct {
	coord *Coordinator

	mu     sync.Mutex
	active *activeRun
}

type activeRun struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a Runner around the given coordinator.
func NewRunner(coord *Coordinator) *Runner {
	return &Runner{coord: coord}
}

// Start validates the request, persists a new run record, and launches the
// pipeline in the background. The returned run snapshot carries the ID to
// poll. The caller's ctx bounds only the synchronous setup; the run itself
// is detached so an HTTP disconnect does not kill an import.
func (r *Runner) Start(ctx context.Context, req Request) (*models.ImportRun, error) {
	if !req.Mode.Valid() {
		return nil, models.ErrInvalidMode
	}

	if req.SourcePath == "" {
		return nil, fmt.Errorf("source path required")
	}

	if req.SourceID == "" {
		req.SourceID = filepath.Base(req.SourcePath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		select {
		case <-r.active.done:
			r.active = nil
		default:
			return nil, ErrRunActive
		}
	}

	now := time.Now().UTC()
	run := &models.ImportRun{
		ID:         uuid.NewString(),
		SourceFile: filepath.Base(req.SourcePath),
		SourceID:   req.SourceID,
		Mode:       req.Mode,
		State:      models.RunNotStarted,
		Enrichment: req.Enrichment,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.coord.Runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run record: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	active := &activeRun{
		id:     run.ID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.active = active

	snapshot := *run

	go func() {
		defer cancel()
		defer close(active.done)

		// Terminal state and error are persisted on the run record.
		_ = r.coord.Execute(runCtx, run, req) //nolint:errcheck
	}()

	return &snapshot, nil
}

// Status returns the current snapshot of a run. Reads always go through
// the store; the pipeline persists every state transition and batch, so the
// record is at most one batch behind the live run and never racy.
func (r *Runner) Status(ctx context.Context, runID string) (*models.ImportRun, error) {
	return r.coord.Runs.Get(ctx, runID)
}

// Cancel requests cooperative cancellation of the named active run. The run
// stops at the next batch boundary; already committed batches stay.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil || r.active.id != runID {
		return models.ErrRunNotFound
	}

	select {
	case <-r.active.done:
		return models.ErrRunNotFound
	default:
	}

	r.active.cancel()

	return nil
}

// List returns recent runs, newest first.
func (r *Runner) List(ctx context.Context, limit int) ([]models.ImportRun, error) {
	return r.coord.Runs.ListRecent(ctx, limit)
}
