package ledger

import (
	"fmt"
	"strings"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/observability"
)

// BalanceOp selects the direction of a balance change.
type BalanceOp string

const (
	Credit BalanceOp = "credit"
	Debit  BalanceOp = "debit"
)

// ─── Member CRUD ────────────────────────────────────────────────────────────

// Create registers a new member. Level and status default to the lowest
// tier and StatusNormal when empty. The id is always engine-assigned.
func (e *Engine) Create(name, phone, birthday, level string, status domain.Status) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	birthday = strings.TrimSpace(birthday)

	if name == "" {
		return nil, e.reject("create", domain.ErrInvalidName)
	}
	if !domain.ValidPhone(phone) {
		return nil, e.reject("create", fmt.Errorf("%w: %q", domain.ErrInvalidPhone, phone))
	}
	if !domain.ValidDate(birthday) {
		return nil, e.reject("create", fmt.Errorf("%w: %q", domain.ErrInvalidDate, birthday))
	}
	if level == "" {
		level = e.cfg.Tiers.Lowest()
	}
	if status == "" {
		status = domain.StatusNormal
	}
	if !status.Valid() {
		return nil, e.reject("create", fmt.Errorf("unknown status %q", status))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phoneInUseLocked(phone, "") {
		return nil, e.reject("create", fmt.Errorf("%w: %s", domain.ErrDuplicatePhone, phone))
	}

	m := &domain.Member{
		ID:           domain.NextMemberID(e.idExistsLocked),
		Name:         name,
		Phone:        phone,
		Birthday:     birthday,
		Level:        level,
		Status:       status,
		CreatedTime:  domain.Now(),
		Transactions: []domain.Transaction{},
	}
	e.members[m.ID] = m
	e.dirty = true
	e.persistLocked()

	observability.RecordOp("create", observability.OutcomeOK)
	observability.Members.Set(float64(len(e.members)))
	e.notify(fmt.Sprintf("member added: %s (%s)", m.Name, m.ID))
	return m.Clone(), nil
}

// Update edits a member's profile fields. Balance, points, total spent and
// history are never touched here. Empty level or status keeps the current
// value, so a needs-review member can be repaired by fixing only the phone.
func (e *Engine) Update(id, name, phone, birthday, level string, status domain.Status) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	birthday = strings.TrimSpace(birthday)

	if name == "" {
		return nil, e.reject("update", domain.ErrInvalidName)
	}
	if !domain.ValidPhone(phone) {
		return nil, e.reject("update", fmt.Errorf("%w: %q", domain.ErrInvalidPhone, phone))
	}
	if !domain.ValidDate(birthday) {
		return nil, e.reject("update", fmt.Errorf("%w: %q", domain.ErrInvalidDate, birthday))
	}
	if status != "" && !status.Valid() {
		return nil, e.reject("update", fmt.Errorf("unknown status %q", status))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.members[id]
	if !ok {
		return nil, e.reject("update", fmt.Errorf("%w: %s", domain.ErrNotFound, id))
	}
	// The member's own prior phone is excluded from the duplicate check.
	if e.phoneInUseLocked(phone, id) {
		return nil, e.reject("update", fmt.Errorf("%w: %s", domain.ErrDuplicatePhone, phone))
	}

	m.Name = name
	m.Phone = phone
	m.Birthday = birthday
	if level != "" {
		m.Level = level
	}
	if status != "" {
		m.Status = status
	}
	e.dirty = true
	e.persistLocked()

	observability.RecordOp("update", observability.OutcomeOK)
	e.notify(fmt.Sprintf("member updated: %s (%s)", m.Name, m.ID))
	return m.Clone(), nil
}

// Delete removes a member entirely. Irreversible within the live
// collection; confirmation is the caller's concern.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.members[id]
	if !ok {
		return e.reject("delete", fmt.Errorf("%w: %s", domain.ErrNotFound, id))
	}
	delete(e.members, id)
	e.dirty = true
	e.persistLocked()

	observability.RecordOp("delete", observability.OutcomeOK)
	observability.Members.Set(float64(len(e.members)))
	e.notify(fmt.Sprintf("member deleted: %s (%s)", m.Name, id))
	return nil
}

// ─── Balance & Points ───────────────────────────────────────────────────────

// ApplyBalanceChange credits or debits a member's stored-value balance. A
// debit earns points at the configured rate, raises total spent by the
// debited amount, and re-resolves the tier (a manual tier override is
// overwritten here without warning — longstanding product behavior).
func (e *Engine) ApplyBalanceChange(id string, op BalanceOp, amount domain.Amount) (*domain.Member, error) {
	action := string(op)
	if op != Credit && op != Debit {
		return nil, e.reject(action, fmt.Errorf("unknown balance operation %q", op))
	}
	if !amount.IsPositive() {
		return nil, e.reject(action, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.activeLocked(id)
	if err != nil {
		return nil, e.reject(action, err)
	}

	var t domain.Transaction
	switch op {
	case Credit:
		m.Balance = m.Balance.Add(amount)
		t = domain.Transaction{
			Time:         domain.Now(),
			Action:       domain.ActionRecharge,
			Amount:       amount,
			BalanceAfter: m.Balance,
		}
	case Debit:
		if amount.Cmp(m.Balance) > 0 {
			return nil, e.reject(action, fmt.Errorf("%w: balance %s, debit %s",
				domain.ErrInsufficientBalance, m.Balance, amount))
		}
		earned := amount.Mul(e.cfg.PointsRate)
		m.Balance = m.Balance.Sub(amount)
		m.Points = m.Points.Add(earned)
		m.TotalSpent = m.TotalSpent.Add(amount)
		m.Level = e.cfg.Tiers.Resolve(m.TotalSpent)
		t = domain.Transaction{
			Time:         domain.Now(),
			Action:       domain.ActionConsumption,
			Amount:       amount,
			PointsChange: earned,
			BalanceAfter: m.Balance,
		}
	}

	m.Transactions = append(m.Transactions, t)
	e.dirty = true
	e.recordLocked(m, t)
	e.persistLocked()

	observability.RecordOp(action, observability.OutcomeOK)
	e.notify(fmt.Sprintf("%s %s: balance %s", t.Action, m.Name, m.Balance))
	return m.Clone(), nil
}

// ExchangePoints converts points into balance at the configured exchange
// rate. The request must be positive, a multiple of the redemption unit,
// and no more than the current points; the member must also hold at least
// the redemption floor before any exchange is allowed.
func (e *Engine) ExchangePoints(id string, points domain.Amount) (*domain.Member, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.activeLocked(id)
	if err != nil {
		return nil, e.reject("exchange", err)
	}
	if m.Points.Cmp(e.cfg.RedeemFloor) < 0 {
		return nil, e.reject("exchange", fmt.Errorf("%w: have %s, floor %s",
			domain.ErrInsufficientPoints, m.Points, e.cfg.RedeemFloor))
	}
	if !points.IsPositive() || !points.IsMultipleOf(e.cfg.RedeemUnit) || points.Cmp(m.Points) > 0 {
		return nil, e.reject("exchange", fmt.Errorf("%w: %s points", domain.ErrInvalidRedemption, points))
	}

	credited := points.Div(e.cfg.ExchangeRate)
	m.Balance = m.Balance.Add(credited)
	m.Points = m.Points.Sub(points)

	t := domain.Transaction{
		Time:         domain.Now(),
		Action:       domain.ActionRedemption,
		Amount:       credited,
		PointsChange: points.Neg(),
		BalanceAfter: m.Balance,
	}
	m.Transactions = append(m.Transactions, t)
	e.dirty = true
	e.recordLocked(m, t)
	e.persistLocked()

	observability.RecordOp("exchange", observability.OutcomeOK)
	e.notify(fmt.Sprintf("redeemed %s points for %s: %s", points, credited, m.Name))
	return m.Clone(), nil
}

// AdjustPoints applies a signed points delta with an operator-supplied
// reason. The result may not go negative.
func (e *Engine) AdjustPoints(id string, delta domain.Amount, reason string) (*domain.Member, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, e.reject("adjust", domain.ErrEmptyReason)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.activeLocked(id)
	if err != nil {
		return nil, e.reject("adjust", err)
	}
	next := m.Points.Add(delta)
	if next.IsNegative() {
		return nil, e.reject("adjust", fmt.Errorf("%w: %s%s would yield %s",
			domain.ErrNegativeResult, m.Points, signed(delta), next))
	}

	m.Points = next
	t := domain.Transaction{
		Time:         domain.Now(),
		Action:       domain.AdjustmentAction(reason),
		Amount:       domain.Zero,
		PointsChange: delta,
		BalanceAfter: m.Balance,
	}
	m.Transactions = append(m.Transactions, t)
	e.dirty = true
	e.recordLocked(m, t)
	e.persistLocked()

	observability.RecordOp("adjust", observability.OutcomeOK)
	e.notify(fmt.Sprintf("points adjusted for %s: %s (%s)", m.Name, m.Points, reason))
	return m.Clone(), nil
}

// ClearTransactions truncates a member's history. Balance, points and total
// spent are untouched. Confirmation is the caller's concern.
func (e *Engine) ClearTransactions(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.members[id]
	if !ok {
		return e.reject("clear", fmt.Errorf("%w: %s", domain.ErrNotFound, id))
	}
	m.Transactions = []domain.Transaction{}
	e.dirty = true
	e.persistLocked()

	observability.RecordOp("clear", observability.OutcomeOK)
	e.notify(fmt.Sprintf("transactions cleared: %s", id))
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// activeLocked fetches a member and checks the permission gate: balance and
// points mutations require StatusNormal.
func (e *Engine) activeLocked(id string) (*domain.Member, error) {
	m, ok := e.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if m.Status != domain.StatusNormal {
		return nil, fmt.Errorf("%w: status is %q", domain.ErrMemberNotActive, m.Status)
	}
	return m, nil
}

func (e *Engine) reject(action string, err error) error {
	observability.RecordOp(action, observability.OutcomeRejected)
	return err
}

func signed(a domain.Amount) string {
	if a.IsNegative() {
		return a.String()
	}
	return "+" + a.String()
}
