package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─── Identifier Generator ───────────────────────────────────────────────────

const idPrefix = "VIP"

// NextMemberID produces a fresh membership id: a second-resolution timestamp
// plus a 6-character hash-derived suffix, retried until it does not collide
// with an existing id. The retry loop is a correctness guarantee, not an
// optimization — ids are immutable and absolutely unique once assigned.
func NextMemberID(exists func(id string) bool) string {
	for {
		ts := time.Now().Format("20060102150405")
		suffix := SHA256Hex([]byte(uuid.NewString()))[:6]
		id := strings.ToUpper(idPrefix + ts + suffix)
		if !exists(id) {
			return id
		}
	}
}
