// Package store provides focused, single-concern data access stores for the
// glossary catalog and the import pipeline's durable state.
//
// Each store owns one domain (categories, terms, sections, checkpoints,
// runs) and embeds shared helpers (Pool, logger) via the Base struct.
// Stores never import each other; shared logic lives in this file.
//
// All write paths use conflict-tolerant statements (INSERT ... ON CONFLICT)
// rather than check-then-insert, so concurrent import runs against the same
// database cannot race a uniqueness constraint into an error.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/dbpool"
)

const defaultQueryTimeout = 60 * time.Second

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// Tx is an open transaction handle threaded through the bulk write paths.
// The importer opens one per batch via WithTx so a batch's rows and its
// checkpoint advance commit together.
type Tx = pgx.Tx

// querier is the statement surface shared by the pool and an open
// transaction. Read helpers that serve both paths take this.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// WithTx runs fn inside a single read-write transaction, committing when fn
// returns nil and rolling back otherwise.
func (b *Base) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := b.beginTx(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
