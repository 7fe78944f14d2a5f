package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/dbpool"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := dbpool.NewPool(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

func newBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)

	return store.Base{Pool: env.pool, Log: env.log}
}

// uniqueName returns a name unlikely to collide with other test runs.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// inTx runs fn inside a committed transaction, failing the test on error.
func inTx(t *testing.T, base store.Base, fn func(tx store.Tx) error) {
	t.Helper()

	if err := base.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestCategoryGetOrCreateBulk(t *testing.T) {
	base := newBase(t)
	s := store.NewCategoryStore(base)
	ctx := context.Background()

	name := uniqueName("Machine Learning")

	var (
		ids, ids2         map[string]string
		created, created2 int
	)

	// Same name in two casings plus a repeat: exactly one category row.
	inTx(t, base, func(tx store.Tx) error {
		var err error
		ids, created, err = s.GetOrCreateBulk(ctx, tx, []string{name, name, "  " + name + " "})

		return err
	})

	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
	if len(ids) != 1 {
		t.Fatalf("got %d resolved IDs, want 1", len(ids))
	}

	// Second call resolves without creating.
	inTx(t, base, func(tx store.Tx) error {
		var err error
		ids2, created2, err = s.GetOrCreateBulk(ctx, tx, []string{name})

		return err
	})

	if created2 != 0 {
		t.Errorf("second call created = %d, want 0", created2)
	}

	key := models.NormalizeCategoryName(name)
	if ids[key] != ids2[key] {
		t.Errorf("IDs differ across calls: %q vs %q", ids[key], ids2[key])
	}
}

func TestTermInsertBulkSkipsDuplicates(t *testing.T) {
	base := newBase(t)
	s := store.NewTermStore(base)
	ctx := context.Background()

	name := uniqueName("Gradient Descent")
	term := &models.Term{Name: name}
	if err := term.Validate(); err != nil {
		t.Fatalf("validating term: %v", err)
	}

	var (
		ids, ids2           map[string]string
		inserted, inserted2 int
	)

	inTx(t, base, func(tx store.Tx) error {
		var err error
		inserted, ids, err = s.InsertBulk(ctx, tx, []store.TermInsert{{Term: term}})

		return err
	})

	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
	if ids[term.Slug] == "" {
		t.Fatal("term ID not resolved")
	}

	// Re-inserting the same slug is a skip, not an error.
	inTx(t, base, func(tx store.Tx) error {
		var err error
		inserted2, ids2, err = s.InsertBulk(ctx, tx, []store.TermInsert{{Term: term}})

		return err
	})

	if inserted2 != 0 {
		t.Errorf("duplicate inserted = %d, want 0", inserted2)
	}
	if ids2[term.Slug] != ids[term.Slug] {
		t.Errorf("resolved ID changed on duplicate insert")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	base := newBase(t)
	s := store.NewTermStore(base)
	ctx := context.Background()

	term := &models.Term{Name: uniqueName("Dropout")}
	if err := term.Validate(); err != nil {
		t.Fatalf("validating term: %v", err)
	}

	boom := errors.New("abort after insert")

	err := base.WithTx(ctx, func(tx store.Tx) error {
		if _, _, err := s.InsertBulk(ctx, tx, []store.TermInsert{{Term: term}}); err != nil {
			return err
		}

		return boom
	})
	if err == nil {
		t.Fatal("expected the injected error")
	}

	// The insert rolled back with the transaction.
	if _, err := s.GetBySlug(ctx, term.Slug); !errors.Is(err, models.ErrTermNotFound) {
		t.Errorf("GetBySlug after rollback = %v, want ErrTermNotFound", err)
	}
}

func TestSectionInsertBulkIdempotent(t *testing.T) {
	base := newBase(t)
	terms := store.NewTermStore(base)
	secs := store.NewSectionStore(base)
	ctx := context.Background()

	term := &models.Term{Name: uniqueName("Backpropagation")}
	if err := term.Validate(); err != nil {
		t.Fatalf("validating term: %v", err)
	}

	var ids map[string]string

	inTx(t, base, func(tx store.Tx) error {
		var err error
		_, ids, err = terms.InsertBulk(ctx, tx, []store.TermInsert{{Term: term}})

		return err
	})

	insert := []store.SectionInsert{{
		TermID:       ids[term.Slug],
		DisplayOrder: 1,
		Section: models.SectionContent{
			SectionName: "Definition", Kind: models.KindMarkdown, Content: "def",
		},
	}}

	var n1, n2 int

	inTx(t, base, func(tx store.Tx) error {
		var err error
		n1, err = secs.InsertBulk(ctx, tx, insert)

		return err
	})

	if n1 != 1 {
		t.Errorf("first insert = %d, want 1", n1)
	}

	inTx(t, base, func(tx store.Tx) error {
		var err error
		n2, err = secs.InsertBulk(ctx, tx, insert)

		return err
	})

	if n2 != 0 {
		t.Errorf("second insert = %d, want 0 (conflict-tolerant skip)", n2)
	}
}

func TestCheckpointLifecycle(t *testing.T) {
	base := newBase(t)
	s := store.NewCheckpointStore(base)
	ctx := context.Background()

	sourceID := uniqueName("source")
	k1 := models.CheckpointKey(sourceID, "term-a")
	k2 := models.CheckpointKey(sourceID, "term-b")

	inTx(t, base, func(tx store.Tx) error {
		if err := s.MarkDoneBulk(ctx, tx, sourceID, []string{k1}); err != nil {
			return err
		}

		return s.MarkFailed(ctx, tx, sourceID, k2, "bad row")
	})

	statuses, err := s.Statuses(ctx, []string{k1, k2, "absent"})
	if err != nil {
		t.Fatalf("querying statuses: %v", err)
	}

	if statuses[k1] != models.CheckpointDone {
		t.Errorf("k1 status = %q, want done", statuses[k1])
	}
	if statuses[k2] != models.CheckpointFailed {
		t.Errorf("k2 status = %q, want failed", statuses[k2])
	}
	if _, ok := statuses["absent"]; ok {
		t.Error("unknown key should be absent from result")
	}

	// A failed key flips to done on retry success.
	inTx(t, base, func(tx store.Tx) error {
		return s.MarkDoneBulk(ctx, tx, sourceID, []string{k2})
	})

	statuses, err = s.Statuses(ctx, []string{k2})
	if err != nil {
		t.Fatalf("querying statuses: %v", err)
	}
	if statuses[k2] != models.CheckpointDone {
		t.Errorf("k2 status after retry = %q, want done", statuses[k2])
	}

	// An aborted batch marks its members failed outside any transaction.
	k3 := models.CheckpointKey(sourceID, "term-c")
	if err := s.MarkFailedBulk(ctx, sourceID, []string{k3, k2}, "connection refused"); err != nil {
		t.Fatalf("bulk marking failed: %v", err)
	}

	statuses, err = s.Statuses(ctx, []string{k2, k3})
	if err != nil {
		t.Fatalf("querying statuses: %v", err)
	}
	if statuses[k2] != models.CheckpointFailed || statuses[k3] != models.CheckpointFailed {
		t.Errorf("statuses after bulk fail = %q/%q, want failed/failed", statuses[k2], statuses[k3])
	}

	removed, err := s.Reset(ctx, sourceID)
	if err != nil {
		t.Fatalf("resetting: %v", err)
	}
	if removed != 3 {
		t.Errorf("reset removed = %d, want 3", removed)
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	s := store.NewRunStore(newBase(t))
	ctx := context.Background()

	run := &models.ImportRun{
		ID:         "00000000-0000-0000-0000-000000000000",
		SourceFile: "terms.csv",
		SourceID:   uniqueName("src"),
		Mode:       models.ModeIncremental,
		State:      models.RunNotStarted,
		Enrichment: models.EnrichmentConfig{Enabled: true, MinAcceptableLength: 40},
	}

	// Reuse of the zero UUID across runs keeps this test self-cleaning on
	// re-execution failure; a create conflict is acceptable here.
	_ = s.Create(ctx, run) //nolint:errcheck

	run.State = models.RunCompleted
	run.RowsProcessed = 10
	run.EntitiesImported = 9
	run.EntitiesFailed = 1

	if err := s.Update(ctx, run); err != nil {
		t.Fatalf("updating run: %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}

	if got.State != models.RunCompleted {
		t.Errorf("state = %q, want completed", got.State)
	}
	if got.RowsProcessed != 10 || got.EntitiesImported != 9 || got.EntitiesFailed != 1 {
		t.Errorf("counters = %d/%d/%d, want 10/9/1",
			got.RowsProcessed, got.EntitiesImported, got.EntitiesFailed)
	}
}
