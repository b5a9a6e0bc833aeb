package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ─── Validators ─────────────────────────────────────────────────────────────

var (
	// 11-digit mobile number: leading 1, second digit 3-9.
	phoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)

	// Format check only. A calendar-invalid date such as 2024-02-31 passes
	// here and is skipped later when birthday computation fails to parse it.
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidPhone reports whether s is a well-formed mobile number.
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }

// ValidDate reports whether s is empty or formatted YYYY-MM-DD.
func ValidDate(s string) bool { return s == "" || dateRe.MatchString(s) }

// ParseAmount parses a user-supplied numeric string into a positive Amount.
// Returns ErrInvalidAmount when the input is not parseable or not > 0.
func ParseAmount(raw string) (Amount, error) {
	a, err := ParseAmountString(strings.TrimSpace(raw))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !a.IsPositive() {
		return Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, a)
	}
	return a, nil
}
