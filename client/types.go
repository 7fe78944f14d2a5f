package client

import "time"

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	Terms int `json:"terms"`
}

// SectionContent is one rendered section of a term.
type SectionContent struct {
	SectionName       string         `json:"section_name"`
	Kind              string         `json:"kind"`
	Content           string         `json:"content"`
	StructuredPayload map[string]any `json:"structured_payload,omitempty"`
}

// Term is a full glossary entry with its sections.
type Term struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Name            string           `json:"name"`
	ShortDefinition string           `json:"short_definition,omitempty"`
	Definition      string           `json:"definition,omitempty"`
	CategoryName    string           `json:"category_name,omitempty"`
	SubcategoryName string           `json:"subcategory_name,omitempty"`
	Difficulty      string           `json:"difficulty,omitempty"`
	HasCodeExamples bool             `json:"has_code_examples"`
	HasInteractive  bool             `json:"has_interactive"`
	Sections        []SectionContent `json:"sections,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TermSummary is the listing view of a term.
type TermSummary struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	ShortDefinition string `json:"short_definition,omitempty"`
	CategoryName    string `json:"category_name,omitempty"`
	Difficulty      string `json:"difficulty,omitempty"`
}

// Category is a top-level term grouping.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnrichmentConfig controls AI enrichment for an import run.
type EnrichmentConfig struct {
	Enabled             bool            `json:"enabled"`
	Sections            map[string]bool `json:"sections,omitempty"`
	MinAcceptableLength int             `json:"min_acceptable_length,omitempty"`
	TimeoutSeconds      int             `json:"timeout_seconds,omitempty"`
}

// ImportRun is the status record of one ingestion run.
type ImportRun struct {
	ID                string           `json:"id"`
	SourceFile        string           `json:"source_file"`
	SourceID          string           `json:"source_id"`
	Mode              string           `json:"mode"`
	State             string           `json:"state"`
	RowsProcessed     int              `json:"rows_processed"`
	EntitiesImported  int              `json:"entities_imported"`
	EntitiesFailed    int              `json:"entities_failed"`
	CategoriesCreated int              `json:"categories_created"`
	Error             string           `json:"error,omitempty"`
	Enrichment        EnrichmentConfig `json:"enrichment"`
	StartedAt         time.Time        `json:"started_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// StartImportRequest is the payload for starting an import run.
type StartImportRequest struct {
	SourceFile string           `json:"source_file"`
	Format     string           `json:"format,omitempty"`
	Mode       string           `json:"mode"`
	SourceID   string           `json:"source_id,omitempty"`
	Enrichment EnrichmentConfig `json:"enrichment"`
}
