package sqlite

import (
	"testing"

	"github.com/clubledger/clubledger/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func entry(memberID, action string, amount, points, balance float64) domain.JournalEntry {
	return domain.JournalEntry{
		Time:         "2026-03-10 12:00:00",
		MemberID:     memberID,
		Action:       action,
		Amount:       domain.AmountFromFloat(amount),
		PointsChange: domain.AmountFromFloat(points),
		BalanceAfter: domain.AmountFromFloat(balance),
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	// Reopening the same directory must not trip the migrations.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	db.Close()
}

func TestRecordAndListByMember(t *testing.T) {
	db := newTestDB(t)

	if err := db.Record(entry("VIP1", domain.ActionRecharge, 200, 0, 200)); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(entry("VIP1", domain.ActionConsumption, 100, 10, 100)); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(entry("VIP2", domain.ActionRecharge, 50, 0, 50)); err != nil {
		t.Fatal(err)
	}

	rows, err := db.ListByMember("VIP1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Action != domain.ActionRecharge || rows[1].Action != domain.ActionConsumption {
		t.Errorf("row order wrong: %q then %q", rows[0].Action, rows[1].Action)
	}
	if rows[1].Amount != "100.00" || rows[1].PointsChange != "10.00" || rows[1].BalanceAfter != "100.00" {
		t.Errorf("row values = %+v", rows[1])
	}
}

func TestListByMember_Limit(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 5; i++ {
		if err := db.Record(entry("VIP1", domain.ActionRecharge, 10, 0, float64(10*(i+1)))); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.ListByMember("VIP1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
}

func TestCount(t *testing.T) {
	db := newTestDB(t)

	n, err := db.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	if err := db.Record(entry("VIP1", domain.ActionRecharge, 10, 0, 10)); err != nil {
		t.Fatal(err)
	}
	n, err = db.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
