// Package importer reconciles external member sets against the live
// ledger. Two entry points share the merge logic: an interactive
// user-selected file and a background scan of a watched directory.
package importer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/observability"
	"github.com/clubledger/clubledger/internal/ledger"
)

// importFile mirrors the import file format: {"members": {<any-key>: ...}}.
// Keys are ignored; only values matter.
type importFile struct {
	Members map[string]*domain.Member `json:"members"`
}

// ReadFile parses an import file into candidate members.
func ReadFile(path string) ([]*domain.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	var f importFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, path, err)
	}
	out := make([]*domain.Member, 0, len(f.Members))
	for _, m := range f.Members {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Merge decides, candidate by candidate, what to admit. A candidate is
// rejected when its name or phone is empty, its phone is malformed, or its
// phone collides with a non-cancelled live member or with a candidate
// admitted earlier in the same pass. Admitted members are re-registered:
// fresh id, current timestamp, defaults for fields the source omitted.
// Each record is all-or-nothing; the batch never aborts on a bad record.
func Merge(candidates []*domain.Member, livePhones map[string]bool, newID func() string, defaultTier string) (admitted []*domain.Member, rejected int) {
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		phone := strings.TrimSpace(c.Phone)

		if name == "" || phone == "" || !domain.ValidPhone(phone) || livePhones[phone] {
			rejected++
			continue
		}

		m := &domain.Member{
			ID:           newID(),
			Name:         name,
			Phone:        phone,
			Birthday:     strings.TrimSpace(c.Birthday),
			Level:        c.Level,
			Balance:      c.Balance,
			Points:       c.Points,
			TotalSpent:   c.TotalSpent,
			Status:       c.Status,
			CreatedTime:  domain.Now(), // source created_time is discarded
			Transactions: c.Transactions,
		}
		if m.Level == "" {
			m.Level = defaultTier
		}
		if m.Status == "" {
			m.Status = domain.StatusNormal
		}
		if m.Transactions == nil {
			m.Transactions = []domain.Transaction{}
		}

		livePhones[phone] = true // duplicates within one batch must not double-admit
		admitted = append(admitted, m)
	}
	return admitted, rejected
}

// ─── Merger ─────────────────────────────────────────────────────────────────

// Merger runs file imports against an engine.
type Merger struct {
	eng *ledger.Engine
	log *slog.Logger
}

// NewMerger creates a Merger.
func NewMerger(eng *ledger.Engine, log *slog.Logger) *Merger {
	if log == nil {
		log = slog.Default()
	}
	return &Merger{eng: eng, log: log}
}

// ImportFile merges one file into the ledger.
func (m *Merger) ImportFile(path string) (admitted, rejected int, err error) {
	candidates, err := ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	admitted, rejected, err = m.eng.ImportBatch(candidates, Merge)
	if err != nil {
		return 0, 0, err
	}
	observability.ImportFiles.Inc()
	m.log.Info("import file merged", "path", path, "admitted", admitted, "rejected", rejected)
	return admitted, rejected, nil
}
