// Package api provides the localhost HTTP surface for clubledger. The
// graphical presentation layer is an external collaborator; this is its
// attachment point. The server is meant to bind loopback only — there is
// no authentication.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/ledger"
)

// Version reported by /api/version.
const Version = "1.0.0"

// Server is the clubledger HTTP API server.
type Server struct {
	eng            *ledger.Engine
	status         *StatusRing
	birthdayWindow int
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(eng *ledger.Engine, status *StatusRing, birthdayWindow int) *Server {
	if birthdayWindow <= 0 {
		birthdayWindow = 7
	}
	return &Server{eng: eng, status: status, birthdayWindow: birthdayWindow}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/stats", s.handleStats)
		r.Get("/birthdays", s.handleBirthdays)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMember)
				r.Put("/", s.handleUpdateMember)
				r.Delete("/", s.handleDeleteMember)
				r.Get("/transactions", s.handleTransactions)
				r.Delete("/transactions", s.handleClearTransactions)
				r.Post("/balance", s.handleBalance)
				r.Post("/points/exchange", s.handleExchange)
				r.Post("/points/adjust", s.handleAdjust)
			})
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeLedgerError maps domain sentinels onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrMemberNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidRedemption),
		errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrNegativeResult),
		errors.Is(err, domain.ErrEmptyReason):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
