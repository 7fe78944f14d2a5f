// Package importer persists parsed glossary terms in checkpointed batches.
//
// Each record is identified by a checkpoint key derived from the source ID
// and the term slug. A batch's rows and its checkpoint advance commit in a
// single transaction, so a crash mid-batch leaves no partial rows, and the
// conflict-tolerant inserts in the store make re-importing a source
// idempotent.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/metrics"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/store"
)

// Record is one parsed source row handed to the importer. Err is set for
// rows the parser rejected; such records carry no term and are counted as
// skipped rows.
type Record struct {
	Term *models.Term
	Row  int
	Err  error
}

// TxRunner opens the per-batch transaction the write stores share.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx store.Tx) error) error
}

// TermStore is the subset of the term store the importer needs.
type TermStore interface {
	InsertBulk(ctx context.Context, tx store.Tx, inserts []store.TermInsert) (int, map[string]string, error)
	ClearCatalog(ctx context.Context) error
}

// CategoryStore resolves category and subcategory names to IDs.
type CategoryStore interface {
	GetOrCreateBulk(ctx context.Context, tx store.Tx, names []string) (map[string]string, int, error)
	GetOrCreateSubcategoriesBulk(ctx context.Context, tx store.Tx, keys []store.SubcatKey) (map[store.SubcatKey]string, error)
}

// SectionStore persists term section content.
type SectionStore interface {
	InsertBulk(ctx context.Context, tx store.Tx, inserts []store.SectionInsert) (int, error)
}

// CheckpointStore tracks per-record import progress.
type CheckpointStore interface {
	Statuses(ctx context.Context, keys []string) (map[string]models.CheckpointStatus, error)
	MarkDoneBulk(ctx context.Context, tx store.Tx, sourceID string, keys []string) error
	MarkFailed(ctx context.Context, tx store.Tx, sourceID, key, reason string) error
	MarkFailedBulk(ctx context.Context, sourceID string, keys []string, reason string) error
	Reset(ctx context.Context, sourceID string) (int, error)
}

// Compile-time interface checks against the concrete stores.
var (
	_ TxRunner        = (*store.Base)(nil)
	_ TermStore       = (*store.TermStore)(nil)
	_ CategoryStore   = (*store.CategoryStore)(nil)
	_ SectionStore    = (*store.SectionStore)(nil)
	_ CheckpointStore = (*store.CheckpointStore)(nil)
)

// Importer writes parsed terms to the store in batches. Each batch commits
// in one transaction that also advances the checkpoints it covers.
type Importer struct {
	tx          TxRunner
	terms       TermStore
	categories  CategoryStore
	sections    SectionStore
	checkpoints CheckpointStore
	log         *logrus.Logger
	batchSize   int

	// Progress, when set, receives the cumulative summary after every
	// committed batch.
	Progress func(models.ImportSummary)
}

// New creates an Importer. batchSize is clamped to [1, 1000].
func New(
	tx TxRunner,
	terms TermStore,
	categories CategoryStore,
	sections SectionStore,
	checkpoints CheckpointStore,
	log *logrus.Logger,
	batchSize int,
) *Importer {
	if batchSize < 1 {
		batchSize = 1
	}

	if batchSize > 1000 {
		batchSize = 1000
	}

	return &Importer{
		tx:          tx,
		terms:       terms,
		categories:  categories,
		sections:    sections,
		checkpoints: checkpoints,
		log:         log,
		batchSize:   batchSize,
	}
}

// Run consumes records until the channel closes or ctx is cancelled.
// Full mode clears the entire catalog and resets the source's checkpoints
// before importing; incremental mode skips records already checkpointed as
// done. Each batch is one transaction covering its category, term, section,
// and checkpoint writes, so the batch either commits fully or not at all.
//
// The returned summary is valid even when err is non-nil; it accounts for
// everything processed up to the failure.
func (im *Importer) Run(
	ctx context.Context,
	records <-chan Record,
	mode models.ImportMode,
	sourceID string,
) (models.ImportSummary, error) {
	var summary models.ImportSummary

	if !mode.Valid() {
		return summary, models.ErrInvalidMode
	}

	if mode == models.ModeFull {
		if err := im.prepareFullImport(ctx, sourceID); err != nil {
			return summary, err
		}
	}

	// Slugs already handled this run. Catches duplicate rows within one
	// source file, which checkpoints alone miss in full mode.
	seen := make(map[string]struct{})

	batch := make([]Record, 0, im.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := im.importBatch(ctx, batch, mode, sourceID, &summary); err != nil {
			return err
		}

		metrics.BatchesCommitted.Inc()
		batch = batch[:0]

		if im.Progress != nil {
			im.Progress(summary)
		}

		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case rec, ok := <-records:
			if !ok {
				return summary, flush()
			}

			metrics.RowsProcessed.Inc()

			if rec.Err != nil {
				summary.SkippedRows++
				im.log.WithError(rec.Err).WithField("row", rec.Row).Warn("Skipping unparseable row")

				continue
			}

			if _, dup := seen[rec.Term.Slug]; dup {
				summary.SkippedRows++
				im.log.WithFields(logrus.Fields{
					"row":  rec.Row,
					"slug": rec.Term.Slug,
				}).Warn("Skipping duplicate slug within source")

				continue
			}

			seen[rec.Term.Slug] = struct{}{}
			batch = append(batch, rec)

			if len(batch) >= im.batchSize {
				if err := flush(); err != nil {
					return summary, err
				}
			}
		}
	}
}

// prepareFullImport destructively clears the catalog and this source's
// checkpoints. Logged loudly since it drops every term in the database.
func (im *Importer) prepareFullImport(ctx context.Context, sourceID string) error {
	im.log.WithField("source_id", sourceID).Warn("Full import: clearing entire glossary catalog")

	if err := im.terms.ClearCatalog(ctx); err != nil {
		return fmt.Errorf("clearing catalog for full import: %w", err)
	}

	removed, err := im.checkpoints.Reset(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("resetting checkpoints for full import: %w", err)
	}

	im.log.WithFields(logrus.Fields{
		"source_id":           sourceID,
		"checkpoints_removed": removed,
	}).Info("Catalog cleared")

	return nil
}

func (im *Importer) importBatch(
	ctx context.Context,
	batch []Record,
	mode models.ImportMode,
	sourceID string,
	summary *models.ImportSummary,
) error {
	pending, err := im.filterDone(ctx, batch, mode, sourceID, summary)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	// Counters accumulate in delta and fold into summary only after the
	// transaction commits, so a rollback never inflates the totals.
	var delta models.ImportSummary

	inserted := 0

	err = im.tx.WithTx(ctx, func(tx store.Tx) error {
		categoryIDs, subcatIDs, err := im.resolveCategories(ctx, tx, pending, &delta)
		if err != nil {
			return err
		}

		inserts := make([]store.TermInsert, 0, len(pending))

		for _, rec := range pending {
			ti := store.TermInsert{Term: rec.Term}

			if rec.Term.CategoryName != "" {
				catID := categoryIDs[models.NormalizeCategoryName(rec.Term.CategoryName)]
				ti.CategoryID = catID

				if rec.Term.SubcategoryName != "" {
					key := store.SubcatKey{
						CategoryID: catID,
						Name:       models.NormalizeCategoryName(rec.Term.SubcategoryName),
					}
					ti.SubcategoryID = subcatIDs[key]
				}
			}

			inserts = append(inserts, ti)
		}

		n, termIDs, err := im.terms.InsertBulk(ctx, tx, inserts)
		if err != nil {
			return fmt.Errorf("inserting term batch: %w", err)
		}

		inserted = n

		var (
			sectionInserts []store.SectionInsert
			doneKeys       []string
		)

		for _, rec := range pending {
			key := models.CheckpointKey(sourceID, rec.Term.Slug)

			termID, ok := termIDs[rec.Term.Slug]
			if !ok {
				// Insert succeeded for the batch but this slug resolved to
				// no row. Record the failure and move on; the rest of the
				// batch is unaffected.
				delta.Failed++
				im.log.WithFields(logrus.Fields{
					"row":  rec.Row,
					"slug": rec.Term.Slug,
				}).Error("Term ID unresolved after insert")

				if err := im.checkpoints.MarkFailed(ctx, tx, sourceID, key, "term ID unresolved after insert"); err != nil {
					return fmt.Errorf("marking checkpoint failed: %w", err)
				}

				continue
			}

			for i, sec := range rec.Term.Sections {
				sectionInserts = append(sectionInserts, store.SectionInsert{
					TermID:       termID,
					DisplayOrder: i + 1,
					Section:      sec,
				})
			}

			doneKeys = append(doneKeys, key)
		}

		if _, err := im.sections.InsertBulk(ctx, tx, sectionInserts); err != nil {
			return fmt.Errorf("inserting section batch: %w", err)
		}

		// The advance commits atomically with the batch rows; a crash here
		// rolls back the whole batch for a clean retry.
		if err := im.checkpoints.MarkDoneBulk(ctx, tx, sourceID, doneKeys); err != nil {
			return fmt.Errorf("advancing checkpoints: %w", err)
		}

		delta.Imported += len(doneKeys)

		return nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			im.markBatchFailed(ctx, sourceID, pending, err)
		}

		return err
	}

	summary.Imported += delta.Imported
	summary.Failed += delta.Failed
	summary.CategoriesCreated += delta.CategoriesCreated
	metrics.EntitiesImported.Add(float64(inserted))

	im.log.WithFields(logrus.Fields{
		"batch_size": len(pending),
		"inserted":   inserted,
		"source_id":  sourceID,
	}).Debug("Batch committed")

	return nil
}

// markBatchFailed records every member of a rolled-back batch as failed so
// the checkpoint table reflects the aborted attempt. Best effort: when the
// database itself is down this fails too, and the keys simply stay absent,
// which later runs treat the same way.
func (im *Importer) markBatchFailed(ctx context.Context, sourceID string, pending []Record, cause error) {
	keys := make([]string, len(pending))
	for i, rec := range pending {
		keys[i] = models.CheckpointKey(sourceID, rec.Term.Slug)
	}

	if err := im.checkpoints.MarkFailedBulk(context.WithoutCancel(ctx), sourceID, keys, cause.Error()); err != nil {
		im.log.WithError(err).WithField("source_id", sourceID).Warn("Recording failed batch checkpoints failed")
	}
}

// filterDone drops records whose checkpoint is already done. Full mode
// checkpoints were reset up front, so every record passes through.
func (im *Importer) filterDone(
	ctx context.Context,
	batch []Record,
	mode models.ImportMode,
	sourceID string,
	summary *models.ImportSummary,
) ([]Record, error) {
	if mode == models.ModeFull {
		return batch, nil
	}

	keys := make([]string, len(batch))
	for i, rec := range batch {
		keys[i] = models.CheckpointKey(sourceID, rec.Term.Slug)
	}

	statuses, err := im.checkpoints.Statuses(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("querying checkpoints: %w", err)
	}

	pending := make([]Record, 0, len(batch))

	for i, rec := range batch {
		if statuses[keys[i]] == models.CheckpointDone {
			summary.SkippedAlreadyDone++

			continue
		}

		pending = append(pending, rec)
	}

	return pending, nil
}

// resolveCategories gets-or-creates every category and subcategory named in
// the batch, returning normalized-name lookup maps.
func (im *Importer) resolveCategories(
	ctx context.Context,
	tx store.Tx,
	pending []Record,
	summary *models.ImportSummary,
) (map[string]string, map[store.SubcatKey]string, error) {
	names := make([]string, 0, len(pending))

	for _, rec := range pending {
		if rec.Term.CategoryName != "" {
			names = append(names, rec.Term.CategoryName)
		}
	}

	categoryIDs, created, err := im.categories.GetOrCreateBulk(ctx, tx, names)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving categories: %w", err)
	}

	summary.CategoriesCreated += created

	var subcatKeys []store.SubcatKey

	for _, rec := range pending {
		if rec.Term.CategoryName == "" || rec.Term.SubcategoryName == "" {
			continue
		}

		catID, ok := categoryIDs[models.NormalizeCategoryName(rec.Term.CategoryName)]
		if !ok {
			continue
		}

		// Raw name here so the store keeps the original casing; the
		// returned map is keyed by the normalized form.
		subcatKeys = append(subcatKeys, store.SubcatKey{
			CategoryID: catID,
			Name:       rec.Term.SubcategoryName,
		})
	}

	subcatIDs := map[store.SubcatKey]string{}

	if len(subcatKeys) > 0 {
		subcatIDs, err = im.categories.GetOrCreateSubcategoriesBulk(ctx, tx, subcatKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving subcategories: %w", err)
		}
	}

	return categoryIDs, subcatIDs, nil
}
