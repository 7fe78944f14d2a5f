// Package pipeline coordinates the ingestion stages: format conversion,
// section parsing, and checkpointed batch import. It owns the run state
// machine and persists progress so that status polls survive restarts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/glossarion/glossarion/internal/convert"
	"github.com/glossarion/glossarion/internal/importer"
	"github.com/glossarion/glossarion/internal/metrics"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/parser"
	"github.com/glossarion/glossarion/internal/sections"
	"github.com/glossarion/glossarion/internal/store"
)

// RunStore persists pipeline run records.
type RunStore interface {
	Create(ctx context.Context, run *models.ImportRun) error
	Update(ctx context.Context, run *models.ImportRun) error
	Get(ctx context.Context, id string) (*models.ImportRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.ImportRun, error)
}

var _ RunStore = (*store.RunStore)(nil)

// Request describes one ingestion run.
type Request struct {
	// SourcePath is the file to ingest.
	SourcePath string

	// Format of the source file; FormatAuto sniffs it.
	Format convert.Format

	// Mode selects full or incremental import.
	Mode models.ImportMode

	// SourceID identifies the logical source for checkpointing. Defaults
	// to the source file's base name.
	SourceID string

	// Enrichment controls AI content enhancement during parsing.
	Enrichment models.EnrichmentConfig
}

// Coordinator executes ingestion runs. One Coordinator serves the whole
// process; per-run state lives in the run record and local variables, so
// sequential runs never interfere.
type Coordinator struct {
	Tx          importer.TxRunner
	Terms       importer.TermStore
	Categories  importer.CategoryStore
	Sections    importer.SectionStore
	Checkpoints importer.CheckpointStore
	Runs        RunStore
	Enricher    parser.Enricher
	Log         *logrus.Logger
	BatchSize   int

	// WorkDir receives normalized intermediate files. Empty means the
	// system temp directory.
	WorkDir string
}

// recordBuffer is the bound on the parse → import channel. Keeps the parser
// at most one batch ahead of the importer.
const recordBuffer = 128

// Execute runs the full pipeline for an already created run record,
// updating it as stages progress and setting its terminal state before
// returning. The returned error mirrors run.Error for the caller's log.
func (c *Coordinator) Execute(ctx context.Context, run *models.ImportRun, req Request) error {
	log := c.Log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"source": req.SourcePath,
		"mode":   req.Mode,
	})

	log.Info("Starting import run")

	summary, err := c.execute(ctx, run, req)

	switch {
	case err == nil && summary.Failed > 0:
		run.State = models.RunCompletedWithErrors
	case err == nil:
		run.State = models.RunCompleted
	case errors.Is(err, context.Canceled):
		run.State = models.RunCancelled
		run.Error = "cancelled"
	default:
		run.State = models.RunFailed
		run.Error = err.Error()
	}

	metrics.RunsByState.WithLabelValues(string(run.State)).Inc()

	// Terminal state must land even when ctx is already cancelled.
	if uerr := c.Runs.Update(context.WithoutCancel(ctx), run); uerr != nil {
		log.WithError(uerr).Error("Persisting terminal run state failed")
	}

	log.WithFields(logrus.Fields{
		"state":    run.State,
		"imported": run.EntitiesImported,
		"failed":   run.EntitiesFailed,
	}).Info("Import run finished")

	return err
}

func (c *Coordinator) execute(ctx context.Context, run *models.ImportRun, req Request) (models.ImportSummary, error) {
	var summary models.ImportSummary

	if !req.Mode.Valid() {
		return summary, models.ErrInvalidMode
	}

	normalized, rows, err := c.convertStage(ctx, run, req)
	if err != nil {
		return summary, err
	}

	defer os.Remove(normalized) //nolint:errcheck // best-effort temp cleanup.

	summary, err = c.importStage(ctx, run, req, normalized, rows)

	run.EntitiesImported = summary.Imported
	run.EntitiesFailed = summary.Failed
	run.CategoriesCreated = summary.CategoriesCreated

	return summary, err
}

// convertStage normalizes the source file into an intermediate CSV and
// returns its path and row count.
func (c *Coordinator) convertStage(ctx context.Context, run *models.ImportRun, req Request) (string, int, error) {
	if err := c.setState(ctx, run, models.RunConverting); err != nil {
		return "", 0, err
	}

	reader, err := convert.Open(req.SourcePath, req.Format)
	if err != nil {
		return "", 0, err
	}

	defer reader.Close() //nolint:errcheck // read-only source.

	dir := c.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}

	outPath := filepath.Join(dir, fmt.Sprintf("normalized-%s.csv", run.ID))

	rows, err := convert.WriteNormalized(reader, sections.AllSourceColumns(), outPath)
	if err != nil {
		os.Remove(outPath) //nolint:errcheck // best-effort temp cleanup.

		return "", 0, fmt.Errorf("normalizing %s: %w", filepath.Base(req.SourcePath), err)
	}

	run.RowsProcessed = rows

	c.Log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"rows":   rows,
	}).Info("Source normalized")

	return outPath, rows, nil
}

// importStage streams the normalized file through the parser into the
// checkpointed importer.
func (c *Coordinator) importStage(
	ctx context.Context,
	run *models.ImportRun,
	req Request,
	normalized string,
	totalRows int,
) (models.ImportSummary, error) {
	var summary models.ImportSummary

	if err := c.setState(ctx, run, models.RunImporting); err != nil {
		return summary, err
	}

	reader, err := convert.Open(normalized, convert.FormatCSV)
	if err != nil {
		return summary, err
	}

	defer reader.Close() //nolint:errcheck // read-only intermediate.

	p := parser.New(parserOptions(req.Enrichment), c.Enricher, c.Log)

	imp := importer.New(c.Tx, c.Terms, c.Categories, c.Sections, c.Checkpoints, c.Log, c.BatchSize)
	imp.Progress = func(s models.ImportSummary) {
		run.RowsProcessed = s.Imported + s.SkippedAlreadyDone + s.SkippedRows + s.Failed
		run.EntitiesImported = s.Imported
		run.EntitiesFailed = s.Failed
		run.CategoriesCreated = s.CategoriesCreated

		// Progress persistence is advisory; a failed write must not stall
		// the import.
		if err := c.Runs.Update(context.WithoutCancel(ctx), run); err != nil {
			c.Log.WithError(err).WithField("run_id", run.ID).Warn("Persisting run progress failed")
		}
	}

	records := make(chan importer.Record, recordBuffer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)

		return produce(gctx, reader, p, records)
	})

	var runErr error

	g.Go(func() error {
		summary, runErr = imp.Run(gctx, records, req.Mode, req.SourceID)

		return runErr
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}

	run.RowsProcessed = totalRows

	return summary, nil
}

// produce reads source rows, parses each, and hands records to the importer.
// Parse failures become skip records rather than errors; only read failures
// abort the stage.
func produce(ctx context.Context, reader convert.RowReader, p *parser.Parser, out chan<- importer.Record) error {
	rowNum := 0

	for {
		row, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading row %d: %w", rowNum+1, err)
		}

		rowNum++

		rec := importer.Record{Row: rowNum}

		term, perr := p.ParseRow(ctx, row)
		if perr != nil {
			rec.Err = perr
		} else {
			rec.Term = term
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func parserOptions(cfg models.EnrichmentConfig) parser.Options {
	opts := parser.Options{
		EnrichWithAI:        cfg.Enabled,
		MinAcceptableLength: cfg.MinAcceptableLength,
	}

	if cfg.TimeoutSeconds > 0 {
		opts.EnrichTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	if len(cfg.Sections) > 0 {
		opts.AISections = make(map[string]struct{}, len(cfg.Sections))
		for name, on := range cfg.Sections {
			if on {
				opts.AISections[name] = struct{}{}
			}
		}
	}

	return opts
}

func (c *Coordinator) setState(ctx context.Context, run *models.ImportRun, state models.RunState) error {
	run.State = state

	if err := c.Runs.Update(ctx, run); err != nil {
		return fmt.Errorf("persisting run state %s: %w", state, err)
	}

	return nil
}
