package store

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// isNoRows reports whether err is pgx's no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// decodeJSONMap decodes a JSONB column into a map, returning nil on any
// decode failure rather than surfacing it; structured payloads are
// best-effort presentation data.
func decodeJSONMap(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}

	return m
}
