package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/glossarion/glossarion/internal/models"
)

// SectionStore handles per-term section content persistence.
type SectionStore struct {
	Base
}

// NewSectionStore creates a SectionStore with the given shared base.
func NewSectionStore(base Base) *SectionStore {
	return &SectionStore{Base: base}
}

// SectionInsert is one section row prepared for insertion.
type SectionInsert struct {
	TermID       string
	DisplayOrder int
	Section      models.SectionContent
}

// InsertBulk inserts section content within tx with insert-or-skip
// semantics on (term id, section name). A section that already exists for a
// term is left untouched, which makes batch retries idempotent.
func (s *SectionStore) InsertBulk(ctx context.Context, tx Tx, inserts []SectionInsert) (int, error) {
	if len(inserts) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inserted := 0

	for start := 0; start < len(inserts); start += maxBulkBatchSize {
		end := start + maxBulkBatchSize
		if end > len(inserts) {
			end = len(inserts)
		}

		batch := inserts[start:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*6)

		for j, ins := range batch {
			var payload []byte

			if ins.Section.StructuredPayload != nil {
				var err error

				payload, err = json.Marshal(ins.Section.StructuredPayload)
				if err != nil {
					return inserted, fmt.Errorf("marshaling payload for section %q: %w", ins.Section.SectionName, err)
				}
			}

			base := j*6 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5,
			))
			args = append(args,
				ins.TermID, ins.Section.SectionName, ins.DisplayOrder,
				string(ins.Section.Kind), ins.Section.Content, payload,
			)
		}

		sql := `INSERT INTO term_sections
			(term_id, section_name, display_order, kind, content, structured_payload)
			VALUES ` + strings.Join(valueParts, ", ") + `
			ON CONFLICT (term_id, section_name) DO NOTHING`

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return inserted, fmt.Errorf("bulk inserting sections: %w", err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}
