package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/domain"
)

// ─── Statistics ─────────────────────────────────────────────────────────────

// Stats is an aggregate snapshot of the collection.
type Stats struct {
	Members      int                   `json:"members"`
	TotalBalance domain.Amount         `json:"total_balance"`
	TotalPoints  domain.Amount         `json:"total_points"`
	ByLevel      map[string]int        `json:"by_level"`
	ByStatus     map[domain.Status]int `json:"by_status"`
}

// Stats aggregates member counts, balances and points.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		ByLevel:  make(map[string]int),
		ByStatus: make(map[domain.Status]int),
	}
	for _, m := range e.members {
		s.Members++
		s.TotalBalance = s.TotalBalance.Add(m.Balance)
		s.TotalPoints = s.TotalPoints.Add(m.Points)
		s.ByLevel[m.Level]++
		s.ByStatus[m.Status]++
	}
	return s
}

// ─── Birthday Reminders ─────────────────────────────────────────────────────

// BirthdayReminder is one upcoming member birthday.
type BirthdayReminder struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Date     string `json:"date"` // MM-DD of the next occurrence
	Days     int    `json:"days"` // days until it, 0 = today
}

// UpcomingBirthdays lists members in normal status whose next birthday
// falls within windowDays of today. Birthdays that passed format validation
// but fail to parse as calendar dates are skipped silently.
func (e *Engine) UpcomingBirthdays(windowDays int, today time.Time) []BirthdayReminder {
	e.mu.Lock()
	defer e.mu.Unlock()

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var out []BirthdayReminder
	for _, m := range e.members {
		if m.Status != domain.StatusNormal || m.Birthday == "" {
			continue
		}
		bday, err := time.Parse(time.DateOnly, m.Birthday)
		if err != nil {
			continue
		}
		next := time.Date(day.Year(), bday.Month(), bday.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(day) {
			next = time.Date(day.Year()+1, bday.Month(), bday.Day(), 0, 0, 0, 0, time.UTC)
		}
		days := int(next.Sub(day).Hours() / 24)
		if days <= windowDays {
			out = append(out, BirthdayReminder{
				MemberID: m.ID,
				Name:     m.Name,
				Date:     next.Format("01-02"),
				Days:     days,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Days != out[j].Days {
			return out[i].Days < out[j].Days
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ─── Text Receipts ──────────────────────────────────────────────────────────
// Plain-text rendering only; print hardware backends live outside the
// engine.

const receiptWidth = 38

// TransactionReceipt renders the member's most recent transaction as a
// printable text slip.
func (e *Engine) TransactionReceipt(id string) (string, error) {
	m, err := e.Get(id)
	if err != nil {
		return "", err
	}
	if len(m.Transactions) == 0 {
		return "", fmt.Errorf("%w: member %s has no transactions", domain.ErrNotFound, id)
	}
	t := m.Transactions[len(m.Transactions)-1]

	var b strings.Builder
	receiptHeader(&b, "TRANSACTION RECEIPT")
	fmt.Fprintf(&b, "Member:   %s\n", m.Name)
	fmt.Fprintf(&b, "ID:       %s\n", m.ID)
	fmt.Fprintf(&b, "Time:     %s\n", t.Time)
	fmt.Fprintf(&b, "Action:   %s\n", t.Action)
	fmt.Fprintf(&b, "Amount:   %s\n", t.Amount)
	fmt.Fprintf(&b, "Points:   %s\n", signed(t.PointsChange))
	fmt.Fprintf(&b, "Balance:  %s\n", t.BalanceAfter)
	receiptFooter(&b)
	return b.String(), nil
}

// MemberReceipt renders a member summary slip.
func (e *Engine) MemberReceipt(id string) (string, error) {
	m, err := e.Get(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	receiptHeader(&b, "MEMBER SUMMARY")
	fmt.Fprintf(&b, "Member:   %s\n", m.Name)
	fmt.Fprintf(&b, "ID:       %s\n", m.ID)
	fmt.Fprintf(&b, "Phone:    %s\n", m.Phone)
	fmt.Fprintf(&b, "Level:    %s\n", m.Level)
	fmt.Fprintf(&b, "Status:   %s\n", m.Status)
	fmt.Fprintf(&b, "Balance:  %s\n", m.Balance)
	fmt.Fprintf(&b, "Points:   %s\n", m.Points)
	fmt.Fprintf(&b, "Spent:    %s\n", m.TotalSpent)
	fmt.Fprintf(&b, "Since:    %s\n", m.CreatedTime)
	receiptFooter(&b)
	return b.String(), nil
}

func receiptHeader(b *strings.Builder, title string) {
	rule := strings.Repeat("=", receiptWidth)
	pad := (receiptWidth - len(title)) / 2
	b.WriteString(rule + "\n")
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(rule + "\n")
}

func receiptFooter(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", receiptWidth) + "\n")
	fmt.Fprintf(b, "Printed:  %s\n", domain.Now())
	b.WriteString(strings.Repeat("=", receiptWidth) + "\n")
}
