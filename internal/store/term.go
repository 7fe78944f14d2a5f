package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/glossarion/glossarion/internal/models"
)

// TermStore handles glossary term persistence.
type TermStore struct {
	Base
}

// NewTermStore creates a TermStore with the given shared base.
func NewTermStore(base Base) *TermStore {
	return &TermStore{Base: base}
}

// TermInsert is one term prepared for insertion: the parsed record plus its
// resolved category references.
type TermInsert struct {
	Term          *models.Term
	CategoryID    string // empty when the row named no category
	SubcategoryID string
}

// InsertBulk inserts terms within tx with insert-or-skip semantics: a
// duplicate slug (already persisted, or repeated within the batch) is
// skipped, never an error. Returns the number of newly inserted terms and
// slug → term ID for every term in the batch, pre-existing ones included.
func (s *TermStore) InsertBulk(ctx context.Context, tx Tx, inserts []TermInsert) (int, map[string]string, error) {
	if len(inserts) == 0 {
		return 0, map[string]string{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inserted := 0
	slugs := make([]string, 0, len(inserts))

	// Process in batches to stay within parameter limits.
	for start := 0; start < len(inserts); start += maxBulkBatchSize {
		end := start + maxBulkBatchSize
		if end > len(inserts) {
			end = len(inserts)
		}

		batch := inserts[start:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*9)

		for j, ins := range batch {
			t := ins.Term
			base := j*9 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			))
			args = append(args,
				t.Slug, t.Name, t.ShortDefinition, t.Definition,
				nullable(ins.CategoryID), nullable(ins.SubcategoryID),
				t.Difficulty, t.HasCodeExamples, t.HasInteractive,
			)
			slugs = append(slugs, t.Slug)
		}

		sql := `INSERT INTO terms
			(slug, name, short_definition, definition,
			 category_id, subcategory_id, difficulty,
			 has_code_examples, has_interactive)
			VALUES ` + strings.Join(valueParts, ", ") + `
			ON CONFLICT (slug) DO NOTHING`

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, nil, fmt.Errorf("bulk inserting terms: %w", err)
		}

		inserted += int(tag.RowsAffected())
	}

	ids, err := s.resolveIDs(ctx, tx, slugs)
	if err != nil {
		return 0, nil, err
	}

	return inserted, ids, nil
}

// resolveIDs maps slugs to term IDs for the whole batch, including terms
// that already existed before the insert.
func (s *TermStore) resolveIDs(ctx context.Context, q querier, slugs []string) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT id, slug FROM terms WHERE slug = ANY($1)`, slugs)
	if err != nil {
		return nil, fmt.Errorf("resolving term IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string, len(slugs))

	for rows.Next() {
		var id, slug string
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, fmt.Errorf("scanning term ID: %w", err)
		}

		ids[slug] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term IDs: %w", err)
	}

	return ids, nil
}

// ClearCatalog removes all terms, sections, subcategories, and categories.
// Used by full-mode imports only; callers must log prominently before
// invoking it.
func (s *TermStore) ClearCatalog(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`TRUNCATE term_sections, terms, subcategories, categories`)
	if err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}

	return nil
}

// Count returns the number of persisted terms.
func (s *TermStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM terms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting terms: %w", err)
	}

	return n, nil
}

// List returns term summaries ordered by name.
func (s *TermStore) List(ctx context.Context, categoryName string, limit, offset int) ([]models.TermSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := `SELECT t.slug, t.name, t.short_definition, COALESCE(c.name, '')
		FROM terms t
		LEFT JOIN categories c ON c.id = t.category_id`
	args := []any{}

	if categoryName != "" {
		sql += ` WHERE c.name_key = $1`
		args = append(args, models.NormalizeCategoryName(categoryName))
	}

	sql += fmt.Sprintf(` ORDER BY t.name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}
	defer rows.Close()

	var terms []models.TermSummary

	for rows.Next() {
		var t models.TermSummary
		if err := rows.Scan(&t.Slug, &t.Name, &t.ShortDefinition, &t.CategoryName); err != nil {
			return nil, fmt.Errorf("scanning term summary: %w", err)
		}

		terms = append(terms, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}

	return terms, nil
}

// GetBySlug returns one term with its sections in display order.
// Returns models.ErrTermNotFound when the slug is unknown.
func (s *TermStore) GetBySlug(ctx context.Context, slug string) (*models.Term, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var t models.Term
	var categoryName, subcategoryName *string

	err := s.Pool.QueryRow(ctx, `
		SELECT t.id, t.slug, t.name, t.short_definition, t.definition,
		       c.name, sc.name, t.difficulty,
		       t.has_code_examples, t.has_interactive,
		       t.created_at, t.updated_at
		FROM terms t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN subcategories sc ON sc.id = t.subcategory_id
		WHERE t.slug = $1
	`, slug).Scan(
		&t.ID, &t.Slug, &t.Name, &t.ShortDefinition, &t.Definition,
		&categoryName, &subcategoryName, &t.Difficulty,
		&t.HasCodeExamples, &t.HasInteractive,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, models.ErrTermNotFound
		}

		return nil, fmt.Errorf("getting term %q: %w", slug, err)
	}

	if categoryName != nil {
		t.CategoryName = *categoryName
	}
	if subcategoryName != nil {
		t.SubcategoryName = *subcategoryName
	}

	sections, err := s.sectionsForTerm(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	t.Sections = sections

	return &t, nil
}

func (s *TermStore) sectionsForTerm(ctx context.Context, termID string) ([]models.SectionContent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT section_name, kind, content, structured_payload
		FROM term_sections
		WHERE term_id = $1
		ORDER BY display_order
	`, termID)
	if err != nil {
		return nil, fmt.Errorf("loading term sections: %w", err)
	}
	defer rows.Close()

	var out []models.SectionContent

	for rows.Next() {
		var sc models.SectionContent
		var payload []byte

		if err := rows.Scan(&sc.SectionName, &sc.Kind, &sc.Content, &payload); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}

		if len(payload) > 0 {
			sc.StructuredPayload = decodeJSONMap(payload)
		}

		out = append(out, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}

	return out, nil
}

// nullable maps an empty string to SQL NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
