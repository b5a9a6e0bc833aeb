package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clubledger/clubledger/internal/api"
	"github.com/clubledger/clubledger/internal/daemon"
	"github.com/clubledger/clubledger/internal/importer"
	"github.com/clubledger/clubledger/internal/infra/jsonstore"
	"github.com/clubledger/clubledger/internal/infra/logging"
	"github.com/clubledger/clubledger/internal/infra/sqlite"
	"github.com/clubledger/clubledger/internal/ledger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger daemon",
	Long: `Run the long-lived process: the localhost API for a presentation layer,
the periodic auto-save, and the auto-import directory scan. Stop with
Ctrl-C; unsaved changes are flushed on shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log)

	if err := os.MkdirAll(cfg.Data.Dir, 0700); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Data.AutoImportPath(), 0700); err != nil {
		return err
	}

	dataFile := cfg.Data.DataFile()
	if override, _ := cmd.Flags().GetString("file"); override != "" {
		dataFile = override
	}
	store := jsonstore.New(dataFile, cfg.Data.BackupPath(), cfg.Data.KeepBackups, log)

	status := api.NewStatusRing(50, log)
	opts := []ledger.Option{
		ledger.WithNotifier(status),
		ledger.WithLogger(log),
	}
	if cfg.Journal.Enabled {
		db, err := sqlite.Open(cfg.Data.Dir)
		if err != nil {
			log.Warn("journal disabled", "err", err)
		} else {
			defer db.Close()
			opts = append(opts, ledger.WithJournal(db))
		}
	}

	eng := ledger.New(cfg.LedgerConfig(), store, opts...)
	if err := eng.Load(); err != nil {
		return err
	}

	merger := importer.NewMerger(eng, log)
	watcher := importer.NewWatcher(cfg.Data.AutoImportPath(), merger, log)

	server := api.NewServer(eng, status, cfg.Ledger.BirthdayReminderDays)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg, eng, watcher, server.Handler(), log)
	return d.Run(ctx)
}
