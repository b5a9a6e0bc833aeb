package api

import (
	"log/slog"
	"sync"

	"github.com/clubledger/clubledger/internal/domain"
)

// ─── Status Ring ────────────────────────────────────────────────────────────
// The engine's status-notification sink. Messages are logged and kept in a
// bounded ring so the presentation layer can poll the most recent ones.

// StatusLine is one status message with its timestamp.
type StatusLine struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// StatusRing implements domain.Notifier over a fixed-size ring buffer.
type StatusRing struct {
	mu    sync.Mutex
	lines []StatusLine
	next  int
	full  bool
	log   *slog.Logger
}

var _ domain.Notifier = (*StatusRing)(nil)

// NewStatusRing creates a ring holding the latest size messages.
func NewStatusRing(size int, log *slog.Logger) *StatusRing {
	if size <= 0 {
		size = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &StatusRing{lines: make([]StatusLine, size), log: log}
}

// Notify records one status line.
func (r *StatusRing) Notify(msg string) {
	r.log.Info(msg)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = StatusLine{Time: domain.Now(), Message: msg}
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the buffered messages, newest first.
func (r *StatusRing) Recent() []StatusLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.lines)
	}
	out := make([]StatusLine, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.next - 1 - i + len(r.lines)) % len(r.lines)
		if r.lines[idx].Message != "" {
			out = append(out, r.lines[idx])
		}
	}
	return out
}
