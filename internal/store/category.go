package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/glossarion/glossarion/internal/models"
)

// CategoryStore handles category and subcategory persistence.
type CategoryStore struct {
	Base
}

// NewCategoryStore creates a CategoryStore with the given shared base.
func NewCategoryStore(base Base) *CategoryStore {
	return &CategoryStore{Base: base}
}

// SubcatKey identifies one subcategory to resolve: the parent category ID
// plus the display name.
type SubcatKey struct {
	CategoryID string
	Name       string
}

// GetOrCreateBulk resolves category names to IDs, creating missing ones.
// Uniqueness is on the case-normalized name key, and the insert is
// conflict-tolerant: two entities in one batch (or two concurrent runs)
// introducing the same new name produce exactly one category row.
// Returns name-key → category ID and the number of categories created.
func (s *CategoryStore) GetOrCreateBulk(ctx context.Context, tx Tx, names []string) (map[string]string, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Deduplicate on the normalized key; first spelling seen wins.
	byKey := make(map[string]string, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		key := models.NormalizeCategoryName(name)
		if _, seen := byKey[key]; !seen {
			byKey[key] = name
		}
	}

	if len(byKey) == 0 {
		return map[string]string{}, 0, nil
	}

	valueParts := make([]string, 0, len(byKey))
	args := make([]any, 0, len(byKey)*2)
	keys := make([]string, 0, len(byKey))

	i := 0
	for key, name := range byKey {
		valueParts = append(valueParts, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, name, key)
		keys = append(keys, key)
		i++
	}

	sql := `INSERT INTO categories (name, name_key)
		VALUES ` + strings.Join(valueParts, ", ") + `
		ON CONFLICT (name_key) DO NOTHING`

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("bulk inserting categories: %w", err)
	}

	created := int(tag.RowsAffected())

	ids := make(map[string]string, len(keys))

	rows, err := tx.Query(ctx,
		`SELECT id, name_key FROM categories WHERE name_key = ANY($1)`, keys)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving category IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, 0, fmt.Errorf("scanning category row: %w", err)
		}

		ids[key] = id
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating category rows: %w", err)
	}

	return ids, created, nil
}

// GetOrCreateSubcategoriesBulk resolves subcategory (category, name) pairs
// to IDs with the same conflict-tolerant semantics as GetOrCreateBulk.
// Returns a map keyed by SubcatKey with the name normalized.
func (s *CategoryStore) GetOrCreateSubcategoriesBulk(ctx context.Context, tx Tx, keys []SubcatKey) (map[SubcatKey]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	type pending struct {
		categoryID string
		name       string
		nameKey    string
	}

	byKey := make(map[SubcatKey]pending, len(keys))

	for _, k := range keys {
		name := strings.TrimSpace(k.Name)
		if name == "" || k.CategoryID == "" {
			continue
		}

		norm := SubcatKey{CategoryID: k.CategoryID, Name: models.NormalizeCategoryName(name)}
		if _, seen := byKey[norm]; !seen {
			byKey[norm] = pending{categoryID: k.CategoryID, name: name, nameKey: norm.Name}
		}
	}

	if len(byKey) == 0 {
		return map[SubcatKey]string{}, nil
	}

	valueParts := make([]string, 0, len(byKey))
	args := make([]any, 0, len(byKey)*3)

	i := 0
	for _, p := range byKey {
		base := i*3 + 1
		valueParts = append(valueParts, fmt.Sprintf("($%d, $%d, $%d)", base, base+1, base+2))
		args = append(args, p.categoryID, p.name, p.nameKey)
		i++
	}

	sql := `INSERT INTO subcategories (category_id, name, name_key)
		VALUES ` + strings.Join(valueParts, ", ") + `
		ON CONFLICT (category_id, name_key) DO NOTHING`

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("bulk inserting subcategories: %w", err)
	}

	categoryIDs := make([]string, 0, len(byKey))
	nameKeys := make([]string, 0, len(byKey))

	for norm := range byKey {
		categoryIDs = append(categoryIDs, norm.CategoryID)
		nameKeys = append(nameKeys, norm.Name)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, category_id, name_key FROM subcategories
		 WHERE category_id = ANY($1) AND name_key = ANY($2)`,
		categoryIDs, nameKeys)
	if err != nil {
		return nil, fmt.Errorf("resolving subcategory IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[SubcatKey]string, len(byKey))

	for rows.Next() {
		var id, categoryID, nameKey string
		if err := rows.Scan(&id, &categoryID, &nameKey); err != nil {
			return nil, fmt.Errorf("scanning subcategory row: %w", err)
		}

		norm := SubcatKey{CategoryID: categoryID, Name: nameKey}
		if _, wanted := byKey[norm]; wanted {
			ids[norm] = id
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subcategory rows: %w", err)
	}

	return ids, nil
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, name_key, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category

	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NameKey, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return cats, nil
}
