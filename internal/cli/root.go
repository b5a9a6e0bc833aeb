// Package cli implements the clubledger command line interface.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clubledger/clubledger/internal/daemon"
	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/jsonstore"
	"github.com/clubledger/clubledger/internal/infra/logging"
	"github.com/clubledger/clubledger/internal/infra/sqlite"
	"github.com/clubledger/clubledger/internal/ledger"
)

var rootCmd = &cobra.Command{
	Use:   "clubledger",
	Short: "Membership ledger for a small business",
	Long: `clubledger manages a membership program: customer records, stored-value
balances, loyalty points, tier levels and transaction history, persisted
to a local JSON file with rotated backups.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default <data-dir>/config.toml)")
	rootCmd.PersistentFlags().String("file", "", "Data file to operate on (overrides config)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Assume yes for confirmation prompts")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ─── Shared wiring ──────────────────────────────────────────────────────────

// app holds the wired-up engine plus everything a command needs to run
// one operation and exit.
type app struct {
	cfg     daemon.Config
	store   *jsonstore.Store
	eng     *ledger.Engine
	journal *sqlite.DB
}

// newApp loads config, opens the store and journal, and loads the ledger.
func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logging.New(cfg.Log)

	dataFile := cfg.Data.DataFile()
	if override, _ := cmd.Flags().GetString("file"); override != "" {
		dataFile = override
	}

	store := jsonstore.New(dataFile, cfg.Data.BackupPath(), cfg.Data.KeepBackups, nil)

	opts := []ledger.Option{ledger.WithNotifier(stderrNotifier{})}
	a := &app{cfg: cfg, store: store}
	if cfg.Journal.Enabled {
		if err := os.MkdirAll(cfg.Data.Dir, 0700); err == nil {
			if db, err := sqlite.Open(cfg.Data.Dir); err == nil {
				a.journal = db
				opts = append(opts, ledger.WithJournal(db))
			}
		}
	}

	a.eng = ledger.New(cfg.LedgerConfig(), store, opts...)
	if err := a.eng.Load(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the journal handle.
func (a *app) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// stderrNotifier prints engine status messages to stderr so they never
// pollute command output on stdout.
type stderrNotifier struct{}

func (stderrNotifier) Notify(msg string) { fmt.Fprintf(os.Stderr, "• %s\n", msg) }

// confirm asks for explicit approval unless --yes was given.
func confirm(cmd *cobra.Command, prompt string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	fmt.Fprintf(os.Stdout, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printMember renders one member in detail.
func printMember(m *domain.Member) {
	fmt.Fprintf(os.Stdout, "ID:        %s\n", m.ID)
	fmt.Fprintf(os.Stdout, "Name:      %s\n", m.Name)
	fmt.Fprintf(os.Stdout, "Phone:     %s\n", m.Phone)
	if m.Birthday != "" {
		fmt.Fprintf(os.Stdout, "Birthday:  %s\n", m.Birthday)
	}
	fmt.Fprintf(os.Stdout, "Level:     %s\n", m.Level)
	fmt.Fprintf(os.Stdout, "Status:    %s\n", m.Status)
	fmt.Fprintf(os.Stdout, "Balance:   %s\n", m.Balance)
	fmt.Fprintf(os.Stdout, "Points:    %s\n", m.Points)
	fmt.Fprintf(os.Stdout, "Spent:     %s\n", m.TotalSpent)
	fmt.Fprintf(os.Stdout, "Created:   %s\n", m.CreatedTime)
	fmt.Fprintf(os.Stdout, "History:   %d transactions\n", len(m.Transactions))
}
