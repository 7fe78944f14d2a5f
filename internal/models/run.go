package models

import "time"

// ImportMode selects how an import run treats previously persisted state.
type ImportMode string

// Import modes. Full clears the catalog and ignores checkpoints;
// Incremental skips checkpoint keys already marked done.
const (
	ModeFull        ImportMode = "full"
	ModeIncremental ImportMode = "incremental"
)

// Valid reports whether the mode is one of the recognized values.
func (m ImportMode) Valid() bool {
	return m == ModeFull || m == ModeIncremental
}

// RunState is the lifecycle state of one pipeline run.
type RunState string

// Pipeline run states. CompletedWithErrors is a terminal state distinct
// from Completed: the run finished but some records failed.
const (
	RunNotStarted          RunState = "not_started"
	RunConverting          RunState = "converting"
	RunImporting           RunState = "importing"
	RunCompleted           RunState = "completed"
	RunCompletedWithErrors RunState = "completed_with_errors"
	RunCancelled           RunState = "cancelled"
	RunFailed              RunState = "failed"
)

// Terminal reports whether the state is a terminal one.
func (s RunState) Terminal() bool {
	switch s {
	case RunCompleted, RunCompletedWithErrors, RunCancelled, RunFailed:
		return true
	}

	return false
}

// ImportSummary is the final accounting of one importer pass. Every run,
// successful or not, yields one so count discrepancies are visible instead
// of silently swallowed.
type ImportSummary struct {
	Imported           int `json:"imported"`
	SkippedAlreadyDone int `json:"skipped_already_done"`
	SkippedRows        int `json:"skipped_rows"`
	Failed             int `json:"failed"`
	CategoriesCreated  int `json:"categories_created"`
}

// EnrichmentConfig controls AI-backed content enrichment during parsing.
type EnrichmentConfig struct {
	Enabled             bool            `json:"enabled"`
	Sections            map[string]bool `json:"sections,omitempty"`
	MinAcceptableLength int             `json:"min_acceptable_length,omitempty"`
	TimeoutSeconds      int             `json:"timeout_seconds,omitempty"`
}

// ImportRun is the persisted record of one pipeline run. Stored so that
// status polls survive process restart and multiple runner processes share
// visibility.
type ImportRun struct {
	ID                string           `json:"id"`
	SourceFile        string           `json:"source_file"`
	SourceID          string           `json:"source_id"`
	Mode              ImportMode       `json:"mode"`
	State             RunState         `json:"state"`
	RowsProcessed     int              `json:"rows_processed"`
	EntitiesImported  int              `json:"entities_imported"`
	EntitiesFailed    int              `json:"entities_failed"`
	CategoriesCreated int              `json:"categories_created"`
	Error             string           `json:"error,omitempty"`
	Enrichment        EnrichmentConfig `json:"enrichment"`
	StartedAt         time.Time        `json:"started_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
