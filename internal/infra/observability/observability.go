// Package observability exposes Prometheus metrics for the ledger engine,
// importer and persistence gateway. Counters are registered on the default
// registry and served at /metrics by the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// LedgerOps counts ledger mutations by action and outcome.
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubledger_ledger_operations_total",
		Help: "Ledger operations by action and outcome.",
	}, []string{"action", "outcome"})

	// ImportRecords counts import-merge record decisions.
	ImportRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubledger_import_records_total",
		Help: "Import records by result (admitted or rejected).",
	}, []string{"result"})

	// ImportFiles counts merged import files.
	ImportFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubledger_import_files_total",
		Help: "Import files merged (manual and auto).",
	})

	// Saves counts persistence attempts by outcome.
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubledger_saves_total",
		Help: "Member collection saves by outcome.",
	}, []string{"outcome"})

	// BackupsPruned counts backups removed by rotation.
	BackupsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubledger_backups_pruned_total",
		Help: "Old backups deleted by rotation.",
	})

	// LoadRepairs counts members flagged needs-review during load.
	LoadRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubledger_load_flagged_members_total",
		Help: "Members flagged needs-review while loading the data file.",
	})

	// Members tracks the current collection size.
	Members = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clubledger_members",
		Help: "Members currently in the ledger.",
	})
)

// RecordOp increments the operation counter for one ledger action.
func RecordOp(action, outcome string) {
	LedgerOps.WithLabelValues(action, outcome).Inc()
}
