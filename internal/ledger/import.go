package ledger

import (
	"fmt"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/observability"
)

// MergeFunc reconciles candidate members against the live collection. It
// receives the set of phones held by non-cancelled members, an id factory,
// and the default tier name, and returns the members to admit plus the
// count of rejected candidates. The importer package provides the
// implementation; the engine supplies atomicity.
type MergeFunc func(candidates []*domain.Member, livePhones map[string]bool, newID func() string, defaultTier string) (admitted []*domain.Member, rejected int)

// ImportBatch admits an external candidate set under the ledger lock: the
// merge decision, the insertions and the save happen as one step from the
// caller's point of view. Bad candidates are skipped and counted, never
// aborting the batch.
func (e *Engine) ImportBatch(candidates []*domain.Member, merge MergeFunc) (admitted, rejected int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	livePhones := make(map[string]bool)
	for _, m := range e.members {
		if m.Active() {
			livePhones[m.Phone] = true
		}
	}

	newID := func() string { return domain.NextMemberID(e.idExistsLocked) }
	keep, rejected := merge(candidates, livePhones, newID, e.cfg.Tiers.Lowest())

	for _, m := range keep {
		e.members[m.ID] = m
	}
	observability.ImportRecords.WithLabelValues("admitted").Add(float64(len(keep)))
	observability.ImportRecords.WithLabelValues("rejected").Add(float64(rejected))

	if len(keep) > 0 {
		e.dirty = true
		e.persistLocked()
		observability.Members.Set(float64(len(e.members)))
	}
	e.notify(fmt.Sprintf("import merged: %d admitted, %d rejected", len(keep), rejected))
	return len(keep), rejected, nil
}
