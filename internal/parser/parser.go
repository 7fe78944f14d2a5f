// Package parser maps raw source rows into normalized glossary terms using
// the section catalog.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/convert"
	"github.com/glossarion/glossarion/internal/enrich"
	"github.com/glossarion/glossarion/internal/metrics"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/sections"
)

// Enricher is the external content-enhancement collaborator. Implemented by
// *enrich.Client; replaced by a mock in tests.
type Enricher interface {
	Enrich(ctx context.Context, req enrich.Request) (string, error)
}

// Options configures row parsing.
type Options struct {
	// EnrichWithAI requests replacement text for sections whose extracted
	// content is absent or shorter than MinAcceptableLength.
	EnrichWithAI bool

	// AISections limits enrichment to the named sections. Empty means all.
	AISections map[string]struct{}

	// MinAcceptableLength is the shortest extracted content (in bytes)
	// accepted without enrichment. Zero means only absent content is enriched.
	MinAcceptableLength int

	// EnrichTimeout bounds each enrichment call. Zero means no per-call
	// deadline beyond the client's own.
	EnrichTimeout time.Duration
}

// SkipError reports a row-scoped problem: the row is skipped and counted,
// never aborting the run.
type SkipError struct {
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("row skipped: %s", e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Parser converts source rows into terms. Safe for sequential reuse across
// a whole run; one Parser carries one configuration.
type Parser struct {
	opts     Options
	enricher Enricher
	log      *logrus.Logger
}

// New creates a Parser. enricher may be nil when Options.EnrichWithAI is false.
func New(opts Options, enricher Enricher, log *logrus.Logger) *Parser {
	return &Parser{opts: opts, enricher: enricher, log: log}
}

// ParseRow maps one source row to a term. Returns a *SkipError wrapping
// models.ErrMissingName when the row lacks a usable name.
func (p *Parser) ParseRow(ctx context.Context, row convert.SourceRow) (*models.Term, error) {
	name := strings.TrimSpace(row[sections.ColumnTerm])
	if name == "" {
		return nil, &SkipError{Reason: "missing term name", Err: models.ErrMissingName}
	}

	term := &models.Term{
		Name:            name,
		ShortDefinition: row[sections.ColumnShortDefinition],
		CategoryName:    row[sections.ColumnMainCategory],
		SubcategoryName: row[sections.ColumnSubCategory],
		Difficulty:      strings.ToLower(row[sections.ColumnDifficulty]),
	}

	for _, spec := range sections.Catalog() {
		content := extractContent(row, spec.SourceColumns)

		if p.shouldEnrich(spec.Name, content) {
			content = p.enrichSection(ctx, term, spec.Name, content)
		}

		if content == "" {
			continue
		}

		sc := models.SectionContent{
			SectionName: spec.Name,
			Kind:        sections.DetectKind(content, spec.DefaultKind),
			Content:     content,
		}

		if sc.Kind == models.KindDiagram || sc.Kind == models.KindInteractive {
			sc.StructuredPayload = decodePayload(content)
		}

		term.Sections = append(term.Sections, sc)
	}

	if term.Definition == "" {
		if def := findSection(term, "Definition"); def != "" {
			term.Definition = def
		}
	}

	if err := term.Validate(); err != nil {
		return nil, &SkipError{Reason: err.Error(), Err: err}
	}

	return term, nil
}

// extractContent joins the non-empty values of the section's source columns
// in declared order; the columns are supplementary paragraphs of one section.
func extractContent(row convert.SourceRow, columns []string) string {
	var parts []string

	for _, col := range columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, "\n\n")
}

func (p *Parser) shouldEnrich(sectionName, content string) bool {
	if !p.opts.EnrichWithAI || p.enricher == nil {
		return false
	}

	if len(p.opts.AISections) > 0 {
		if _, ok := p.opts.AISections[sectionName]; !ok {
			return false
		}
	}

	return len(content) < p.opts.MinAcceptableLength || content == ""
}

// enrichSection asks the collaborator for replacement text. Failure is
// section-scoped: it is logged and the original (possibly empty) content is
// kept; enrichment never fails a row.
func (p *Parser) enrichSection(ctx context.Context, term *models.Term, sectionName, content string) string {
	if p.opts.EnrichTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.opts.EnrichTimeout)
		defer cancel()
	}

	text, err := p.enricher.Enrich(ctx, enrich.Request{
		TermName:        term.Name,
		Category:        term.CategoryName,
		SectionName:     sectionName,
		ExistingContent: content,
	})
	if err != nil {
		metrics.EnrichmentFailures.Inc()
		p.log.WithError(err).WithFields(logrus.Fields{
			"term":    term.Name,
			"section": sectionName,
		}).Warn("enrichment failed, keeping original content")

		return content
	}

	return text
}

// decodePayload decodes structured specs (quiz and diagram kinds) when the
// content is a JSON object; otherwise the raw content stands alone.
func decodePayload(content string) map[string]any {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil
	}

	return payload
}

func findSection(term *models.Term, name string) string {
	for _, s := range term.Sections {
		if s.SectionName == name {
			return s.Content
		}
	}

	return ""
}
