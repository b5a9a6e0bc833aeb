// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TimeLayout is the timestamp encoding used throughout the persisted file
// format (created_time, transaction time, last_updated).
const TimeLayout = "2006-01-02 15:04:05"

// ─── Status ─────────────────────────────────────────────────────────────────

// Status is a member's account status. It is a permission predicate, not a
// state machine: balance and points mutations require StatusNormal, but any
// status may be set to any other through an update.
type Status string

const (
	StatusNormal      Status = "normal"
	StatusFrozen      Status = "frozen"
	StatusCancelled   Status = "cancelled"
	StatusNeedsReview Status = "needs-review"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusFrozen, StatusCancelled, StatusNeedsReview:
		return true
	}
	return false
}

// ─── Transaction ────────────────────────────────────────────────────────────

// Transaction action labels.
const (
	ActionRecharge    = "recharge"
	ActionConsumption = "consumption"
	ActionRedemption  = "points-redemption"
	ActionAdjustment  = "points-adjustment"
)

// AdjustmentAction builds the action label for a points adjustment,
// embedding the operator-supplied reason.
func AdjustmentAction(reason string) string {
	return fmt.Sprintf("%s (%s)", ActionAdjustment, reason)
}

// Transaction is one row of a member's history. Immutable once appended;
// insertion order is chronological order.
type Transaction struct {
	Time         string `json:"time"`
	Action       string `json:"action"`
	Amount       Amount `json:"amount"`
	PointsChange Amount `json:"points_change"`
	BalanceAfter Amount `json:"balance_after"`
}

// ─── Member ─────────────────────────────────────────────────────────────────

// Member is one customer account.
type Member struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Phone        string        `json:"phone"`
	Birthday     string        `json:"birthday"` // "YYYY-MM-DD" or empty
	Level        string        `json:"level"`
	Balance      Amount        `json:"balance"`
	Points       Amount        `json:"points"`
	TotalSpent   Amount        `json:"total_spent"`
	Status       Status        `json:"status"`
	CreatedTime  string        `json:"created_time"`
	Transactions []Transaction `json:"transactions"`
}

// Active reports whether the member participates in phone-uniqueness checks.
// Cancelled members release their phone number for reuse.
func (m *Member) Active() bool { return m.Status != StatusCancelled }

// Clone returns a deep copy. The engine hands out clones so callers can
// never mutate ledger state behind its back.
func (m *Member) Clone() *Member {
	c := *m
	c.Transactions = make([]Transaction, len(m.Transactions))
	copy(c.Transactions, m.Transactions)
	return &c
}

// Now returns the current time in the persisted timestamp encoding.
func Now() string { return time.Now().Format(TimeLayout) }

// SHA256Hex computes SHA-256 hash and returns hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
