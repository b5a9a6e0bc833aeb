// Package ledger implements the membership ledger engine: the single owner
// of the member collection. Every mutation funnels through the Engine's
// mutex, so the periodic auto tasks and direct caller actions preserve the
// at-most-one-writer invariant.
package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/observability"
)

// Config holds the ledger's business parameters.
type Config struct {
	Tiers        domain.TierTable
	PointsRate   domain.Amount // points earned per currency unit spent
	ExchangeRate domain.Amount // points per currency unit credited on redemption
	RedeemUnit   domain.Amount // redemptions must be a multiple of this
	RedeemFloor  domain.Amount // minimum points before any redemption
}

// DefaultConfig returns the standard ledger parameters.
func DefaultConfig() Config {
	return Config{
		Tiers:        domain.DefaultTierTable(),
		PointsRate:   domain.AmountFromFloat(0.1),
		ExchangeRate: domain.AmountFromInt(100),
		RedeemUnit:   domain.AmountFromInt(100),
		RedeemFloor:  domain.AmountFromInt(100),
	}
}

// Engine owns the member collection and enforces its invariants.
type Engine struct {
	mu      sync.Mutex
	members map[string]*domain.Member
	dirty   bool

	cfg      Config
	store    domain.Gateway
	notifier domain.Notifier
	journal  domain.Journal
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the status-message sink.
func WithNotifier(n domain.Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithJournal sets the audit journal for completed mutations.
func WithJournal(j domain.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// New creates an engine over the given persistence gateway. Call Load before
// use.
func New(cfg Config, store domain.Gateway, opts ...Option) *Engine {
	e := &Engine{
		members: make(map[string]*domain.Member),
		cfg:     cfg,
		store:   store,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads the member collection from the gateway, backfills optional
// fields missing from older data files, and flags members whose stored
// phone fails current validation as needs-review instead of rejecting the
// whole load.
func (e *Engine) Load() error {
	members, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}

	flagged := 0
	for _, m := range members {
		if m.Transactions == nil {
			m.Transactions = []domain.Transaction{}
		}
		if m.Level == "" {
			m.Level = e.cfg.Tiers.Lowest()
		}
		if m.Status == "" {
			m.Status = domain.StatusNormal
		}
		if !domain.ValidPhone(m.Phone) {
			m.Status = domain.StatusNeedsReview
			flagged++
			observability.LoadRepairs.Inc()
		}
	}

	e.mu.Lock()
	e.members = members
	e.dirty = false
	e.mu.Unlock()
	observability.Members.Set(float64(len(members)))

	e.notify(fmt.Sprintf("loaded %d members", len(members)))
	if flagged > 0 {
		e.notify(fmt.Sprintf("%d members flagged needs-review (invalid phone)", flagged))
		e.log.Warn("flagged members during load", "count", flagged)
	}
	return nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Get returns a copy of one member.
func (e *Engine) Get(id string) (*domain.Member, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return m.Clone(), nil
}

// List returns copies of all members, ordered by creation time then id.
func (e *Engine) List() []*domain.Member {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listLocked()
}

func (e *Engine) listLocked() []*domain.Member {
	out := make([]*domain.Member, 0, len(e.members))
	for _, m := range e.members {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedTime != out[j].CreatedTime {
			return out[i].CreatedTime < out[j].CreatedTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Search returns members whose name, phone or id contains the query,
// case-insensitively. An empty query returns all members.
func (e *Engine) Search(query string) []*domain.Member {
	q := strings.ToLower(strings.TrimSpace(query))
	all := e.List()
	if q == "" {
		return all
	}
	var out []*domain.Member
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(m.Phone, q) ||
			strings.Contains(strings.ToLower(m.ID), q) {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the collection size.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.members)
}

// Snapshot returns a deep copy of the whole collection keyed by id, for
// export.
func (e *Engine) Snapshot() map[string]*domain.Member {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]*domain.Member, len(e.members))
	for id, m := range e.members {
		out[id] = m.Clone()
	}
	return out
}

// ─── Persistence ────────────────────────────────────────────────────────────

// Save writes the collection through the gateway. The in-memory ledger is
// unchanged whether or not the write succeeds; a failure leaves the engine
// dirty so the next auto-save tick retries.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

// AutoSave persists only when there are unsaved changes.
func (e *Engine) AutoSave() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return nil
	}
	if err := e.saveLocked(); err != nil {
		return err
	}
	e.notify("auto-saved")
	return nil
}

// Dirty reports whether there are unsaved changes.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Engine) saveLocked() error {
	// The gateway receives the live map for the duration of this call only
	// and must not retain it.
	if err := e.store.Save(e.members); err != nil {
		e.dirty = true
		observability.Saves.WithLabelValues(observability.OutcomeError).Inc()
		e.notify(fmt.Sprintf("save failed: %v", err))
		e.log.Error("save failed", "err", err)
		return err
	}
	e.dirty = false
	observability.Saves.WithLabelValues(observability.OutcomeOK).Inc()
	return nil
}

// persistLocked saves after a completed mutation. Persistence failures do
// not unwind the mutation; they are surfaced and retried on the next tick.
func (e *Engine) persistLocked() {
	_ = e.saveLocked()
}

// ─── Internal helpers ───────────────────────────────────────────────────────

func (e *Engine) notify(msg string) {
	if e.notifier != nil {
		e.notifier.Notify(msg)
	}
}

// recordLocked journals one completed mutation. Journal failures never veto
// the mutation.
func (e *Engine) recordLocked(m *domain.Member, t domain.Transaction) {
	if e.journal == nil {
		return
	}
	err := e.journal.Record(domain.JournalEntry{
		Time:         t.Time,
		MemberID:     m.ID,
		Action:       t.Action,
		Amount:       t.Amount,
		PointsChange: t.PointsChange,
		BalanceAfter: t.BalanceAfter,
	})
	if err != nil {
		e.log.Warn("journal write failed", "member", m.ID, "action", t.Action, "err", err)
	}
}

// phoneInUseLocked reports whether phone belongs to a non-cancelled member
// other than exceptID.
func (e *Engine) phoneInUseLocked(phone, exceptID string) bool {
	for id, m := range e.members {
		if id != exceptID && m.Phone == phone && m.Active() {
			return true
		}
	}
	return false
}

func (e *Engine) idExistsLocked(id string) bool {
	_, ok := e.members[id]
	return ok
}
