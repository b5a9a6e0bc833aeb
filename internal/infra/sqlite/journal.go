package sqlite

import (
	"fmt"

	"github.com/clubledger/clubledger/internal/domain"
)

// ─── Audit Journal ──────────────────────────────────────────────────────────

// AuditRow is one journaled ledger mutation.
type AuditRow struct {
	ID           int64
	Time         string
	MemberID     string
	Action       string
	Amount       string
	PointsChange string
	BalanceAfter string
}

// Record appends one completed mutation. Implements domain.Journal.
func (db *DB) Record(e domain.JournalEntry) error {
	_, err := db.db.Exec(`
		INSERT INTO audit_log (ts, member_id, action, amount, points_change, balance_after)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Time, e.MemberID, e.Action, e.Amount.String(), e.PointsChange.String(), e.BalanceAfter.String())
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// ListByMember returns a member's journal rows, oldest first.
func (db *DB) ListByMember(memberID string, limit int) ([]AuditRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(`
		SELECT id, ts, member_id, action, amount, points_change, balance_after
		FROM audit_log WHERE member_id = ? ORDER BY id LIMIT ?
	`, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var r AuditRow
		if err := rows.Scan(&r.ID, &r.Time, &r.MemberID, &r.Action, &r.Amount, &r.PointsChange, &r.BalanceAfter); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of journal rows.
func (db *DB) Count() (int64, error) {
	var n int64
	err := db.db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&n)
	return n, err
}
