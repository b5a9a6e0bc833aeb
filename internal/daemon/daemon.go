package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clubledger/clubledger/internal/importer"
	"github.com/clubledger/clubledger/internal/ledger"
)

// Daemon ties together the engine, the periodic tasks and the API server.
type Daemon struct {
	cfg     Config
	eng     *ledger.Engine
	watcher *importer.Watcher
	handler http.Handler
	log     *slog.Logger
}

// New creates a daemon. handler is the fully routed API handler.
func New(cfg Config, eng *ledger.Engine, watcher *importer.Watcher, handler http.Handler, log *slog.Logger) *Daemon {
	if log == nil {
		log = slog.Default()
	}
	return &Daemon{cfg: cfg, eng: eng, watcher: watcher, handler: handler, log: log}
}

// Run starts the scheduler and the API server, then blocks until ctx is
// cancelled. Shutdown is graceful: the server drains, the scheduler stops
// with a timeout, and a final save flushes unsaved changes.
func (d *Daemon) Run(ctx context.Context) error {
	saveEvery := parseInterval(d.cfg.Auto.SaveInterval, 5*time.Minute)
	importEvery := parseInterval(d.cfg.Auto.ImportInterval, time.Minute)

	sched := cron.New()
	if _, err := sched.AddFunc("@every "+saveEvery.String(), d.autoSave); err != nil {
		return err
	}
	if _, err := sched.AddFunc("@every "+importEvery.String(), d.autoImport); err != nil {
		return err
	}
	sched.Start()
	d.log.Info("auto tasks started", "save_every", saveEvery, "import_every", importEvery)

	srv := &http.Server{
		Addr:    d.cfg.API.Addr(),
		Handler: d.handler,
	}
	errCh := make(chan error, 1)
	go func() {
		d.log.Info("api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Scan once at startup so files dropped while offline import promptly.
	d.autoImport()

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case <-ctx.Done():
	}

	d.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	stopCtx := sched.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		d.log.Warn("auto tasks forced to stop after timeout")
	}

	if err := d.eng.AutoSave(); err != nil {
		d.log.Error("final save failed", "err", err)
		return err
	}
	return nil
}

func (d *Daemon) autoSave() {
	if err := d.eng.AutoSave(); err != nil {
		d.log.Error("auto-save failed", "err", err)
	}
}

func (d *Daemon) autoImport() {
	if d.watcher == nil {
		return
	}
	admitted, rejected, err := d.watcher.Scan()
	if err != nil {
		d.log.Error("auto-import scan failed", "err", err)
		return
	}
	if admitted > 0 || rejected > 0 {
		d.log.Info("auto-import", "admitted", admitted, "rejected", rejected)
	}
}
