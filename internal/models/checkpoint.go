package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CheckpointStatus is the processing state of one checkpoint key.
type CheckpointStatus string

// Checkpoint statuses. Once a key is Done it is never reprocessed by a
// resumed incremental run; Failed keys are retried.
const (
	CheckpointPending CheckpointStatus = "pending"
	CheckpointDone    CheckpointStatus = "done"
	CheckpointFailed  CheckpointStatus = "failed"
)

// Checkpoint is one durable progress marker for an import source.
type Checkpoint struct {
	Key       string           `json:"key"`
	SourceID  string           `json:"source_id"`
	Status    CheckpointStatus `json:"status"`
	Reason    string           `json:"reason,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CheckpointKey derives the content-addressable checkpoint key for one
// entity of one source. Keyed by slug rather than row position so a
// re-ordered source file still resumes correctly.
func CheckpointKey(sourceID, slug string) string {
	h := sha256.Sum256([]byte(sourceID + "\x00" + slug))

	return hex.EncodeToString(h[:])
}
