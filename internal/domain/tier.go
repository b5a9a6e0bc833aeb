package domain

import "sort"

// ─── Tier Resolver ──────────────────────────────────────────────────────────

// Default tier names.
const (
	TierBase    = "Base"
	TierSilver  = "Silver"
	TierGold    = "Gold"
	TierDiamond = "Diamond"
)

// Tier is a named cumulative-spend bracket.
type Tier struct {
	Name     string
	MinSpent Amount
}

// TierTable holds tiers pre-sorted by threshold descending, which makes
// resolution deterministic when two tiers share a threshold (the first in
// descending order wins).
type TierTable []Tier

// NewTierTable builds a table from a tier→minimum-spend mapping.
func NewTierTable(rules map[string]float64) TierTable {
	t := make(TierTable, 0, len(rules))
	for name, min := range rules {
		t = append(t, Tier{Name: name, MinSpent: AmountFromFloat(min)})
	}
	sort.Slice(t, func(i, j int) bool {
		if c := t[i].MinSpent.Cmp(t[j].MinSpent); c != 0 {
			return c > 0
		}
		return t[i].Name < t[j].Name
	})
	return t
}

// DefaultTierTable returns the standard four-tier ladder.
func DefaultTierTable() TierTable {
	return NewTierTable(map[string]float64{
		TierBase:    0,
		TierSilver:  1000,
		TierGold:    5000,
		TierDiamond: 20000,
	})
}

// Resolve maps cumulative spend to a tier name: the first tier (descending
// by threshold) whose minimum is ≤ totalSpent, falling back to the lowest.
func (t TierTable) Resolve(totalSpent Amount) string {
	for _, tier := range t {
		if tier.MinSpent.Cmp(totalSpent) <= 0 {
			return tier.Name
		}
	}
	return t.Lowest()
}

// Lowest returns the zero-threshold fallback tier name.
func (t TierTable) Lowest() string {
	if len(t) == 0 {
		return TierBase
	}
	return t[len(t)-1].Name
}
