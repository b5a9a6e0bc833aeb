package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

// ─── Phone Validation ───────────────────────────────────────────────────────

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"13800000000", true},
		{"19999999999", true},
		{"15012345678", true},
		{"12800000000", false}, // second digit out of range
		{"10000000000", false},
		{"23800000000", false}, // does not start with 1
		{"1380000000", false},  // 10 digits
		{"138000000000", false}, // 12 digits
		{"1380000000a", false},
		{"", false},
		{" 13800000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := ValidPhone(tt.phone); got != tt.want {
				t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestValidPhone_Generated(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Valid class: 1, [3-9], then 9 digits.
	for i := 0; i < 200; i++ {
		var b strings.Builder
		b.WriteByte('1')
		b.WriteByte(byte('3' + rng.Intn(7)))
		for j := 0; j < 9; j++ {
			b.WriteByte(byte('0' + rng.Intn(10)))
		}
		if !ValidPhone(b.String()) {
			t.Fatalf("ValidPhone(%q) = false, want true", b.String())
		}
	}

	// Invalid class: wrong length or wrong second digit.
	for i := 0; i < 200; i++ {
		s := fmt.Sprintf("1%d%09d", rng.Intn(3), rng.Intn(1_000_000_000))
		if ValidPhone(s) {
			t.Fatalf("ValidPhone(%q) = true, want false", s)
		}
	}
}

// ─── Date Validation ────────────────────────────────────────────────────────

func TestValidDate(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"", true},
		{"1990-01-01", true},
		{"2024-02-31", true}, // format-valid, calendar-invalid: accepted here
		{"1990-1-1", false},
		{"1990/01/01", false},
		{"January 1", false},
	}
	for _, tt := range tests {
		if got := ValidDate(tt.date); got != tt.want {
			t.Errorf("ValidDate(%q) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

// ─── Amount Parsing ─────────────────────────────────────────────────────────

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount(" 12.50 ")
	if err != nil {
		t.Fatalf("ParseAmount() error: %v", err)
	}
	if a.String() != "12.50" {
		t.Errorf("amount = %s, want 12.50", a)
	}

	for _, raw := range []string{"", "abc", "0", "-5", "0.00"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", raw, err)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	a := AmountFromFloat(100.5)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"100.50"` {
		t.Errorf("marshal = %s, want %q", data, `"100.50"`)
	}

	// Accepts quoted strings and bare numbers.
	for _, in := range []string{`"7.25"`, `7.25`} {
		var got Amount
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !got.Equal(AmountFromFloat(7.25)) {
			t.Errorf("unmarshal %s = %s, want 7.25", in, got)
		}
	}
}

func TestAmountIsMultipleOf(t *testing.T) {
	unit := AmountFromInt(100)
	if !AmountFromInt(200).IsMultipleOf(unit) {
		t.Error("200 should be a multiple of 100")
	}
	if AmountFromInt(150).IsMultipleOf(unit) {
		t.Error("150 should not be a multiple of 100")
	}
	if AmountFromInt(100).IsMultipleOf(Zero) {
		t.Error("zero unit must never match")
	}
}

// ─── Identifier Generator ───────────────────────────────────────────────────

func TestNextMemberID(t *testing.T) {
	id := NextMemberID(func(string) bool { return false })
	if !strings.HasPrefix(id, "VIP") {
		t.Errorf("id %q missing VIP prefix", id)
	}
	if len(id) != len("VIP")+14+6 {
		t.Errorf("id %q length = %d, want %d", id, len(id), len("VIP")+20)
	}
	if id != strings.ToUpper(id) {
		t.Errorf("id %q not uppercased", id)
	}
}

func TestNextMemberID_RetriesOnCollision(t *testing.T) {
	seen := make(map[string]bool)
	calls := 0
	id := NextMemberID(func(candidate string) bool {
		calls++
		// Force the first two candidates to collide.
		if calls <= 2 {
			seen[candidate] = true
			return true
		}
		return seen[candidate]
	})
	if calls < 3 {
		t.Errorf("expected at least 3 candidate checks, got %d", calls)
	}
	if seen[id] {
		t.Errorf("returned id %q was marked as existing", id)
	}
}

// ─── Tier Resolver ──────────────────────────────────────────────────────────

func TestTierTableResolve(t *testing.T) {
	table := DefaultTierTable()
	tests := []struct {
		spent float64
		want  string
	}{
		{0, TierBase},
		{999.99, TierBase},
		{1000, TierSilver},
		{4999, TierSilver},
		{5000, TierGold},
		{20000, TierDiamond},
		{1_000_000, TierDiamond},
	}
	for _, tt := range tests {
		if got := table.Resolve(AmountFromFloat(tt.spent)); got != tt.want {
			t.Errorf("Resolve(%.2f) = %q, want %q", tt.spent, got, tt.want)
		}
	}
}

func TestTierTableResolve_SharedThreshold(t *testing.T) {
	table := NewTierTable(map[string]float64{
		"Base":  0,
		"Alpha": 500,
		"Beta":  500,
	})
	// Deterministic tie-break: first in descending iteration order wins.
	got := table.Resolve(AmountFromInt(600))
	if got != "Alpha" {
		t.Errorf("Resolve(600) = %q, want %q", got, "Alpha")
	}
}

func TestTierTableLowest(t *testing.T) {
	if got := DefaultTierTable().Lowest(); got != TierBase {
		t.Errorf("Lowest() = %q, want %q", got, TierBase)
	}
	if got := (TierTable{}).Lowest(); got != TierBase {
		t.Errorf("empty Lowest() = %q, want %q", got, TierBase)
	}
}

// ─── Member ─────────────────────────────────────────────────────────────────

func TestMemberClone(t *testing.T) {
	m := &Member{
		ID:     "VIP1",
		Name:   "Wang",
		Status: StatusNormal,
		Transactions: []Transaction{
			{Action: ActionRecharge, Amount: AmountFromInt(100)},
		},
	}
	c := m.Clone()
	c.Transactions[0].Action = ActionConsumption
	c.Name = "changed"

	if m.Transactions[0].Action != ActionRecharge {
		t.Error("clone shares transaction backing array with original")
	}
	if m.Name != "Wang" {
		t.Error("clone shares scalar state with original")
	}
}

func TestMemberActive(t *testing.T) {
	for _, tt := range []struct {
		status Status
		want   bool
	}{
		{StatusNormal, true},
		{StatusFrozen, true},
		{StatusNeedsReview, true},
		{StatusCancelled, false},
	} {
		m := &Member{Status: tt.status}
		if got := m.Active(); got != tt.want {
			t.Errorf("Active() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAdjustmentAction(t *testing.T) {
	got := AdjustmentAction("goodwill")
	if got != "points-adjustment (goodwill)" {
		t.Errorf("AdjustmentAction = %q", got)
	}
}
