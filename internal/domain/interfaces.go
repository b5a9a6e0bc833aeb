package domain

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the ledger engine depends on them.

// Gateway abstracts durable storage of the member collection.
type Gateway interface {
	// Load reads the member collection. A missing file yields an empty
	// collection; a malformed one yields ErrCorrupt.
	Load() (map[string]*Member, error)

	// Save writes the member collection, refusing to write if any member
	// has an empty name or a malformed phone (ErrWriteFailed).
	Save(members map[string]*Member) error
}

// Notifier receives single-line human-readable status messages, the way a
// status bar would.
type Notifier interface {
	Notify(msg string)
}

// Confirmer asks the operator to approve an irreversible operation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// JournalEntry is one audited ledger mutation.
type JournalEntry struct {
	Time         string
	MemberID     string
	Action       string
	Amount       Amount
	PointsChange Amount
	BalanceAfter Amount
}

// Journal records completed ledger mutations to an audit log. Journal
// failures are reported but never veto the mutation itself.
type Journal interface {
	Record(e JournalEntry) error
}
