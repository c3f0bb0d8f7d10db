// Package checkpoint describes the saved progress of a cursor export.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// Checkpoint records how far an export got so it can resume from CursorMark.
type Checkpoint struct {
	ID          string    `json:"id"`
	Core        string    `json:"core"`
	Fingerprint string    `json:"fingerprint"`
	CursorMark  string    `json:"cursor_mark"`
	Exported    int64     `json:"exported"`
	Finished    bool      `json:"finished"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the fields needed to resume.
func (c Checkpoint) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("checkpoint id is required: %w", domain.ErrInvalidArgument)
	}
	if c.CursorMark == "" {
		return fmt.Errorf("checkpoint %s has no cursor mark: %w", c.ID, domain.ErrInvalidArgument)
	}
	if c.Exported < 0 {
		return fmt.Errorf("checkpoint %s has negative count: %w", c.ID, domain.ErrInvalidArgument)
	}
	return nil
}

// Matches reports whether the checkpoint was taken for the same core and request.
func (c Checkpoint) Matches(core, fingerprint string) bool {
	return c.Core == core && c.Fingerprint == fingerprint
}

// Fingerprint hashes an encoded request so a checkpoint is only resumed for
// the request it was taken from. The encoding must not include the cursor mark.
func Fingerprint(encoded string) string {
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:16])
}
