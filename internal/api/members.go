package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/ledger"
)

// ─── Member CRUD ────────────────────────────────────────────────────────────

// memberRequest is the create/update payload.
type memberRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Birthday string `json:"birthday"`
	Level    string `json:"level"`
	Status   string `json:"status"`
}

// HandleListMembers: GET /api/members?q=
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members := s.eng.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// GET /api/members/{id}
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /api/members
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := s.eng.Create(req.Name, req.Phone, req.Birthday, req.Level, domain.Status(req.Status))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// PUT /api/members/{id}
func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := s.eng.Update(chi.URLParam(r, "id"), req.Name, req.Phone, req.Birthday, req.Level, domain.Status(req.Status))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DELETE /api/members/{id}?confirm=true
// Deletion is irreversible; the explicit confirm parameter stands in for
// the UI confirmation prompt.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "deletion requires confirm=true")
		return
	}
	if err := s.eng.Delete(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")})
}

// ─── Transactions ───────────────────────────────────────────────────────────

// GET /api/members/{id}/transactions
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id":    m.ID,
		"transactions": m.Transactions,
		"count":        len(m.Transactions),
	})
}

// DELETE /api/members/{id}/transactions?confirm=true
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "clearing history requires confirm=true")
		return
	}
	if err := s.eng.ClearTransactions(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cleared": chi.URLParam(r, "id")})
}

// ─── Balance & Points ───────────────────────────────────────────────────────

// POST /api/members/{id}/balance {"operation":"credit|debit","amount":"50.00"}
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation string `json:"operation"`
		Amount    string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	m, err := s.eng.ApplyBalanceChange(chi.URLParam(r, "id"), ledger.BalanceOp(req.Operation), amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /api/members/{id}/points/exchange {"points":"200"}
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points string `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	points, err := domain.ParseAmount(req.Points)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	m, err := s.eng.ExchangePoints(chi.URLParam(r, "id"), points)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /api/members/{id}/points/adjust {"delta":"-10","reason":"..."}
func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta  string `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	delta, err := domain.ParseAmountString(req.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := s.eng.AdjustPoints(chi.URLParam(r, "id"), delta, req.Reason)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ─── Reports ────────────────────────────────────────────────────────────────

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

// GET /api/birthdays?days=7
func (s *Server) handleBirthdays(w http.ResponseWriter, r *http.Request) {
	days := s.birthdayWindow
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			days = n
		}
	}
	upcoming := s.eng.UpcomingBirthdays(days, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"window_days": days,
		"upcoming":    upcoming,
		"count":       len(upcoming),
	})
}

// GET /api/status — recent status-bar lines for the presentation layer.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var lines []StatusLine
	if s.status != nil {
		lines = s.status.Recent()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": lines,
		"count":    len(lines),
	})
}
