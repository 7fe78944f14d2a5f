// Package models defines data types for the glossary catalog and the
// ingestion pipeline.
package models

import (
	"regexp"
	"strings"
	"time"
)

// ContentKind classifies the payload of a term section.
type ContentKind string

// Recognized section content kinds.
const (
	KindText        ContentKind = "text"
	KindMarkdown    ContentKind = "markdown"
	KindCode        ContentKind = "code"
	KindDiagram     ContentKind = "diagram"
	KindInteractive ContentKind = "interactive"
	KindMedia       ContentKind = "media"
)

// SectionContent is one populated content section of a term.
// StructuredPayload carries the decoded spec for diagram and interactive
// kinds; it is nil for plain text, markdown, and code.
type SectionContent struct {
	SectionName       string         `json:"section_name"`
	Kind              ContentKind    `json:"kind"`
	Content           string         `json:"content"`
	StructuredPayload map[string]any `json:"structured_payload,omitempty"`
}

// Term is the normalized representation of one glossary entry.
//
// Sections never contains two entries for the same section name, and
// sections with no extractable content are omitted rather than stored empty.
// HasCodeExamples and HasInteractive are derived from the populated section
// kinds; callers must not set them independently.
type Term struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Name            string           `json:"name"`
	ShortDefinition string           `json:"short_definition,omitempty"`
	Definition      string           `json:"definition,omitempty"`
	CategoryName    string           `json:"category,omitempty"`
	SubcategoryName string           `json:"subcategory,omitempty"`
	Difficulty      string           `json:"difficulty,omitempty"`
	HasCodeExamples bool             `json:"has_code_examples"`
	HasInteractive  bool             `json:"has_interactive"`
	Sections        []SectionContent `json:"sections,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TermSummary is a lightweight representation for list endpoints.
type TermSummary struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	ShortDefinition string `json:"short_definition,omitempty"`
	CategoryName    string `json:"category,omitempty"`
}

// maxSlugLength bounds slugs to the terms.slug column width.
const maxSlugLength = 255

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a stable URL-safe slug from a term name. Lowercases,
// replaces non-alphanumeric runs with a single hyphen, and trims hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLength {
		s = strings.Trim(s[:maxSlugLength], "-")
	}

	return s
}

// Validate checks required fields, derives the slug when absent, and
// recomputes the derived flags from the section kinds.
func (t *Term) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrMissingName
	}

	if len(t.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}

	if t.Slug == "" {
		return ErrMissingName
	}

	seen := make(map[string]struct{}, len(t.Sections))
	for _, s := range t.Sections {
		if s.SectionName == "" {
			return ErrMissingSectionName
		}

		if _, dup := seen[s.SectionName]; dup {
			return ErrDuplicateSection(s.SectionName)
		}

		seen[s.SectionName] = struct{}{}
	}

	t.RecomputeFlags()

	return nil
}

// RecomputeFlags derives HasCodeExamples and HasInteractive from the
// populated section kinds.
func (t *Term) RecomputeFlags() {
	t.HasCodeExamples = false
	t.HasInteractive = false

	for _, s := range t.Sections {
		switch s.Kind {
		case KindCode:
			t.HasCodeExamples = true
		case KindInteractive:
			t.HasInteractive = true
		}
	}
}
