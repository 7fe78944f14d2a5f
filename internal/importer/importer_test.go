package importer_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/importer"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/store"
)

const testSource = "glossary-2026-01"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// feed returns a closed channel pre-loaded with the given records.
func feed(recs ...importer.Record) <-chan importer.Record {
	ch := make(chan importer.Record, len(recs))
	for _, r := range recs {
		ch <- r
	}
	close(ch)

	return ch
}

func newImporter(
	terms *mockTermStore,
	cats *mockCategoryStore,
	secs *mockSectionStore,
	cps *mockCheckpointStore,
	batchSize int,
) *importer.Importer {
	return importer.New(&mockTxRunner{}, terms, cats, secs, cps, testLogger(), batchSize)
}

func TestRunImportsFreshRecords(t *testing.T) {
	cps := newMockCheckpointStore()
	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 2)

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
		importer.Record{Term: makeTerm(3), Row: 3},
	)

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Imported != 3 {
		t.Errorf("Imported = %d, want 3", summary.Imported)
	}
	if summary.Failed != 0 || summary.SkippedRows != 0 || summary.SkippedAlreadyDone != 0 {
		t.Errorf("unexpected skip/fail counts: %+v", summary)
	}

	// Every record's checkpoint is durably done.
	for i := 1; i <= 3; i++ {
		key := models.CheckpointKey(testSource, makeTerm(i).Slug)
		if cps.states[key] != models.CheckpointDone {
			t.Errorf("checkpoint for term %d = %q, want done", i, cps.states[key])
		}
	}
}

func TestRunIncrementalSkipsDoneCheckpoints(t *testing.T) {
	cps := newMockCheckpointStore()
	cps.states[models.CheckpointKey(testSource, makeTerm(1).Slug)] = models.CheckpointDone
	cps.states[models.CheckpointKey(testSource, makeTerm(2).Slug)] = models.CheckpointDone

	var inserted []string

	terms := happyTermStore()
	base := terms.insertBulkFn
	terms.insertBulkFn = func(ctx context.Context, inserts []store.TermInsert) (int, map[string]string, error) {
		for _, ti := range inserts {
			inserted = append(inserted, ti.Term.Slug)
		}

		return base(ctx, inserts)
	}

	im := newImporter(terms, happyCategoryStore(), happySectionStore(), cps, 10)

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
		importer.Record{Term: makeTerm(3), Row: 3},
	)

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.SkippedAlreadyDone != 2 {
		t.Errorf("SkippedAlreadyDone = %d, want 2", summary.SkippedAlreadyDone)
	}
	if summary.Imported != 1 {
		t.Errorf("Imported = %d, want 1", summary.Imported)
	}
	if len(inserted) != 1 || inserted[0] != makeTerm(3).Slug {
		t.Errorf("inserted slugs = %v, want only term 3", inserted)
	}
}

func TestRunFullModeClearsAndIgnoresCheckpoints(t *testing.T) {
	cps := newMockCheckpointStore()
	cps.states[models.CheckpointKey(testSource, makeTerm(1).Slug)] = models.CheckpointDone

	cleared := false
	terms := happyTermStore()
	terms.clearCatalogFn = func(context.Context) error {
		cleared = true

		return nil
	}

	im := newImporter(terms, happyCategoryStore(), happySectionStore(), cps, 10)

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
	)

	summary, err := im.Run(context.Background(), records, models.ModeFull, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cleared {
		t.Error("full mode did not clear the catalog")
	}
	if summary.SkippedAlreadyDone != 0 {
		t.Errorf("SkippedAlreadyDone = %d, want 0 in full mode", summary.SkippedAlreadyDone)
	}
	if summary.Imported != 2 {
		t.Errorf("Imported = %d, want 2", summary.Imported)
	}
}

func TestRunRecordFailureIsolated(t *testing.T) {
	cps := newMockCheckpointStore()

	// Term 2's ID never resolves; the rest of the batch must still commit.
	terms := happyTermStore()
	terms.insertBulkFn = func(_ context.Context, inserts []store.TermInsert) (int, map[string]string, error) {
		ids := make(map[string]string)
		n := 0

		for _, ti := range inserts {
			if ti.Term.Slug == makeTerm(2).Slug {
				continue
			}

			ids[ti.Term.Slug] = "id-" + ti.Term.Slug
			n++
		}

		return n, ids, nil
	}

	im := newImporter(terms, happyCategoryStore(), happySectionStore(), cps, 10)

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
		importer.Record{Term: makeTerm(3), Row: 3},
	)

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Imported != 2 {
		t.Errorf("Imported = %d, want 2", summary.Imported)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}

	failedKey := models.CheckpointKey(testSource, makeTerm(2).Slug)
	if cps.states[failedKey] != models.CheckpointFailed {
		t.Errorf("failed record checkpoint = %q, want failed", cps.states[failedKey])
	}

	okKey := models.CheckpointKey(testSource, makeTerm(1).Slug)
	if cps.states[okKey] != models.CheckpointDone {
		t.Errorf("healthy record checkpoint = %q, want done", cps.states[okKey])
	}
}

func TestRunStorageFailureAbortsWithoutAdvancing(t *testing.T) {
	cps := newMockCheckpointStore()

	storageErr := errors.New("connection refused")
	terms := happyTermStore()
	terms.insertBulkFn = func(context.Context, []store.TermInsert) (int, map[string]string, error) {
		return 0, nil, storageErr
	}

	im := newImporter(terms, happyCategoryStore(), happySectionStore(), cps, 10)

	records := feed(importer.Record{Term: makeTerm(1), Row: 1})

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if !errors.Is(err, storageErr) {
		t.Fatalf("error = %v, want wrapped storage error", err)
	}

	if summary.Imported != 0 {
		t.Errorf("Imported = %d, want 0", summary.Imported)
	}

	// The aborted batch's members are recorded as failed, never done, so a
	// later incremental run retries them.
	key := models.CheckpointKey(testSource, makeTerm(1).Slug)
	if cps.states[key] != models.CheckpointFailed {
		t.Errorf("checkpoint after aborted batch = %q, want failed", cps.states[key])
	}
}

func TestRunRerunAfterAbortIsIdempotent(t *testing.T) {
	// First run aborts when the checkpoint advance fails, rolling the
	// batch back and leaving its key marked failed. The rerun re-imports
	// the record over rows that may already exist (insert-or-skip resolves
	// IDs without inserting) and flips the checkpoint to done.
	cps := newMockCheckpointStore()

	advanceErr := errors.New("connection reset")
	cps.markDoneBulkFn = func(context.Context, string, []string) error { return advanceErr }

	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 10)

	_, err := im.Run(context.Background(),
		feed(importer.Record{Term: makeTerm(1), Row: 1}),
		models.ModeIncremental, testSource)
	if !errors.Is(err, advanceErr) {
		t.Fatalf("first run error = %v, want advance failure", err)
	}

	key := models.CheckpointKey(testSource, makeTerm(1).Slug)
	if cps.states[key] != models.CheckpointFailed {
		t.Fatalf("checkpoint after abort = %q, want failed", cps.states[key])
	}

	// Rerun with the advance working again. Insert reports zero new rows
	// but still resolves IDs.
	cps.markDoneBulkFn = nil

	terms := &mockTermStore{
		insertBulkFn: func(_ context.Context, inserts []store.TermInsert) (int, map[string]string, error) {
			ids := make(map[string]string)
			for _, ti := range inserts {
				ids[ti.Term.Slug] = "id-" + ti.Term.Slug
			}

			return 0, ids, nil
		},
		clearCatalogFn: func(context.Context) error { return nil },
	}

	im = newImporter(terms, happyCategoryStore(), happySectionStore(), cps, 10)

	summary, err := im.Run(context.Background(),
		feed(importer.Record{Term: makeTerm(1), Row: 1}),
		models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("rerun error: %v", err)
	}

	if summary.Imported != 1 {
		t.Errorf("rerun Imported = %d, want 1", summary.Imported)
	}

	if cps.states[key] != models.CheckpointDone {
		t.Errorf("checkpoint after rerun = %q, want done", cps.states[key])
	}
}

func TestRunBatchWritesShareOneTransaction(t *testing.T) {
	// Every write in a batch, checkpoint advance included, must land
	// inside the batch transaction so a crash never commits part of one.
	txr := &mockTxRunner{}
	cps := newMockCheckpointStore()

	inTx := make(map[string]bool)

	terms := happyTermStore()
	baseInsert := terms.insertBulkFn
	terms.insertBulkFn = func(ctx context.Context, inserts []store.TermInsert) (int, map[string]string, error) {
		inTx["terms"] = txr.open

		return baseInsert(ctx, inserts)
	}

	cats := happyCategoryStore()
	baseCats := cats.getOrCreateFn
	cats.getOrCreateFn = func(ctx context.Context, names []string) (map[string]string, int, error) {
		inTx["categories"] = txr.open

		return baseCats(ctx, names)
	}

	secs := &mockSectionStore{
		insertBulkFn: func(_ context.Context, inserts []store.SectionInsert) (int, error) {
			inTx["sections"] = txr.open

			return len(inserts), nil
		},
	}

	cps.markDoneBulkFn = func(_ context.Context, _ string, keys []string) error {
		inTx["checkpoints"] = txr.open

		for _, k := range keys {
			cps.states[k] = models.CheckpointDone
		}

		return nil
	}

	im := importer.New(txr, terms, cats, secs, cps, testLogger(), 2)

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
		importer.Record{Term: makeTerm(3), Row: 3},
	)

	if _, err := im.Run(context.Background(), records, models.ModeIncremental, testSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txr.calls != 2 {
		t.Errorf("transactions opened = %d, want one per batch (2)", txr.calls)
	}

	for _, stage := range []string{"categories", "terms", "sections", "checkpoints"} {
		if !inTx[stage] {
			t.Errorf("%s write ran outside the batch transaction", stage)
		}
	}
}

func TestRunSkipsUnparseableAndDuplicateRows(t *testing.T) {
	cps := newMockCheckpointStore()
	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 10)

	records := feed(
		importer.Record{Row: 1, Err: models.ErrMissingName},
		importer.Record{Term: makeTerm(1), Row: 2},
		importer.Record{Term: makeTerm(1), Row: 3}, // same slug again
	)

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.SkippedRows != 2 {
		t.Errorf("SkippedRows = %d, want 2", summary.SkippedRows)
	}
	if summary.Imported != 1 {
		t.Errorf("Imported = %d, want 1", summary.Imported)
	}
}

func TestRunCancelledBetweenBatches(t *testing.T) {
	cps := newMockCheckpointStore()

	ctx, cancel := context.WithCancel(context.Background())

	// Cancellation fires once the first batch commits.
	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 1)
	im.Progress = func(models.ImportSummary) { cancel() }

	// Unbuffered channel left open: after the first record the importer
	// must observe ctx.Done rather than block forever.
	ch := make(chan importer.Record)
	go func() {
		ch <- importer.Record{Term: makeTerm(1), Row: 1}
	}()

	summary, err := im.Run(ctx, ch, models.ModeIncremental, testSource)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	// The committed batch stays committed.
	if summary.Imported != 1 {
		t.Errorf("Imported = %d, want 1", summary.Imported)
	}

	key := models.CheckpointKey(testSource, makeTerm(1).Slug)
	if cps.states[key] != models.CheckpointDone {
		t.Errorf("checkpoint = %q, want done for committed batch", cps.states[key])
	}
}

func TestRunInvalidMode(t *testing.T) {
	cps := newMockCheckpointStore()
	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 10)

	_, err := im.Run(context.Background(), feed(), models.ImportMode("bulk"), testSource)
	if !errors.Is(err, models.ErrInvalidMode) {
		t.Fatalf("error = %v, want ErrInvalidMode", err)
	}
}

func TestRunCategoriesDeduplicated(t *testing.T) {
	cps := newMockCheckpointStore()

	calls := 0
	cats := happyCategoryStore()
	base := cats.getOrCreateFn
	cats.getOrCreateFn = func(ctx context.Context, names []string) (map[string]string, int, error) {
		calls++
		ids, created, err := base(ctx, names)

		// First batch creates the category; later batches resolve it.
		if calls > 1 {
			created = 0
		}

		return ids, created, err
	}

	im := newImporter(happyTermStore(), cats, happySectionStore(), cps, 2)

	// Four terms across two batches, all in the same category with varied
	// casing and spacing.
	t1, t2, t3, t4 := makeTerm(1), makeTerm(2), makeTerm(3), makeTerm(4)
	t2.CategoryName = "machine learning"
	t3.CategoryName = "Machine  Learning"
	t4.CategoryName = "MACHINE LEARNING"

	records := feed(
		importer.Record{Term: t1, Row: 1},
		importer.Record{Term: t2, Row: 2},
		importer.Record{Term: t3, Row: 3},
		importer.Record{Term: t4, Row: 4},
	)

	summary, err := im.Run(context.Background(), records, models.ModeIncremental, testSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.CategoriesCreated != 1 {
		t.Errorf("CategoriesCreated = %d, want 1", summary.CategoriesCreated)
	}
	if summary.Imported != 4 {
		t.Errorf("Imported = %d, want 4", summary.Imported)
	}
}

func TestRunProgressCallback(t *testing.T) {
	cps := newMockCheckpointStore()
	im := newImporter(happyTermStore(), happyCategoryStore(), happySectionStore(), cps, 2)

	var snapshots []models.ImportSummary
	im.Progress = func(s models.ImportSummary) { snapshots = append(snapshots, s) }

	records := feed(
		importer.Record{Term: makeTerm(1), Row: 1},
		importer.Record{Term: makeTerm(2), Row: 2},
		importer.Record{Term: makeTerm(3), Row: 3},
	)

	if _, err := im.Run(context.Background(), records, models.ModeIncremental, testSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("got %d progress snapshots, want 2", len(snapshots))
	}
	if snapshots[0].Imported != 2 || snapshots[1].Imported != 3 {
		t.Errorf("cumulative imports = %d then %d, want 2 then 3",
			snapshots[0].Imported, snapshots[1].Imported)
	}
}

func TestRunSectionOrderPreserved(t *testing.T) {
	cps := newMockCheckpointStore()

	var got []store.SectionInsert

	secs := &mockSectionStore{
		insertBulkFn: func(_ context.Context, inserts []store.SectionInsert) (int, error) {
			got = append(got, inserts...)

			return len(inserts), nil
		},
	}

	term := makeTerm(1)
	term.Sections = []models.SectionContent{
		{SectionName: "Introduction", Kind: models.KindMarkdown, Content: "a"},
		{SectionName: "Definition", Kind: models.KindMarkdown, Content: "b"},
		{SectionName: "Summary", Kind: models.KindMarkdown, Content: "c"},
	}

	im := newImporter(happyTermStore(), happyCategoryStore(), secs, cps, 10)

	if _, err := im.Run(context.Background(),
		feed(importer.Record{Term: term, Row: 1}),
		models.ModeIncremental, testSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d section inserts, want 3", len(got))
	}

	for i, si := range got {
		if si.DisplayOrder != i+1 {
			t.Errorf("section %d display order = %d, want %d", i, si.DisplayOrder, i+1)
		}
	}
}
