package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubledger/clubledger/internal/importer"
)

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(birthdaysCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(receiptCmd)

	importCmd.Flags().Bool("scan", false, "Scan the auto-import directory instead of a single file")
	birthdaysCmd.Flags().Int("days", 0, "Reminder window in days (default from config)")
	transactionsCmd.Flags().Bool("clear", false, "Clear the member's transaction history")
	receiptCmd.Flags().Bool("member", false, "Print a member summary instead of the last transaction")
	receiptCmd.Flags().StringP("output", "o", "", "Write the receipt to a file instead of stdout")
}

// ─── import / export ────────────────────────────────────────────────────────

var importCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Merge members from an import file",
	Long: `Merge an external member file into the ledger. Records with a missing
name, a malformed phone, or a phone already held by an active member are
skipped and counted; the rest are re-registered with fresh ids.

With --scan, every unconsumed .json file in the auto-import directory is
merged instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	merger := importer.NewMerger(a.eng, nil)

	scan, _ := cmd.Flags().GetBool("scan")
	if scan {
		watcher := importer.NewWatcher(a.cfg.Data.AutoImportPath(), merger, nil)
		admitted, rejected, err := watcher.Scan()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Scan of %s complete: %d admitted, %d rejected\n",
			watcher.Dir(), admitted, rejected)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("import requires a file argument (or --scan)")
	}
	admitted, rejected, err := merger.ImportFile(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Import complete: %d admitted, %d rejected\n", admitted, rejected)
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export all members to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snapshot := a.eng.Snapshot()
		if len(snapshot) == 0 {
			fmt.Fprintln(os.Stdout, "No members to export.")
			return nil
		}
		if err := a.store.ExportTo(args[0], snapshot); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Exported %d members to %s\n", len(snapshot), args[0])
		return nil
	},
}

// ─── stats / birthdays ──────────────────────────────────────────────────────

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.eng.Stats()
		fmt.Fprintf(os.Stdout, "Members:       %d\n", s.Members)
		fmt.Fprintf(os.Stdout, "Total balance: %s\n", s.TotalBalance)
		fmt.Fprintf(os.Stdout, "Total points:  %s\n", s.TotalPoints)

		fmt.Fprintln(os.Stdout, "\nBy level:")
		for _, level := range sortedKeys(s.ByLevel) {
			fmt.Fprintf(os.Stdout, "  %-12s %d\n", level, s.ByLevel[level])
		}
		fmt.Fprintln(os.Stdout, "\nBy status:")
		statuses := make(map[string]int, len(s.ByStatus))
		for k, v := range s.ByStatus {
			statuses[string(k)] = v
		}
		for _, st := range sortedKeys(statuses) {
			fmt.Fprintf(os.Stdout, "  %-12s %d\n", st, statuses[st])
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var birthdaysCmd = &cobra.Command{
	Use:   "birthdays",
	Short: "List upcoming member birthdays",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = a.cfg.Ledger.BirthdayReminderDays
		}
		upcoming := a.eng.UpcomingBirthdays(days, time.Now())
		if len(upcoming) == 0 {
			fmt.Fprintf(os.Stdout, "No member birthdays in the next %d days.\n", days)
			return nil
		}
		for _, b := range upcoming {
			when := fmt.Sprintf("in %d days", b.Days)
			if b.Days == 0 {
				when = "today"
			}
			fmt.Fprintf(os.Stdout, "%s — %s (%s)\n", b.Name, b.Date, when)
		}
		return nil
	},
}

// ─── transactions / receipt ─────────────────────────────────────────────────

var transactionsCmd = &cobra.Command{
	Use:   "transactions MEMBER_ID",
	Short: "Show or clear a member's transaction history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		clear, _ := cmd.Flags().GetBool("clear")
		if clear {
			if !confirm(cmd, "Clear all transaction records? This cannot be undone.") {
				fmt.Fprintln(os.Stdout, "Aborted.")
				return nil
			}
			if err := a.eng.ClearTransactions(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Transaction history cleared.")
			return nil
		}

		m, err := a.eng.Get(args[0])
		if err != nil {
			return err
		}
		if len(m.Transactions) == 0 {
			fmt.Fprintln(os.Stdout, "No transactions.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-20s %-28s %10s %10s %10s\n",
			"TIME", "ACTION", "AMOUNT", "POINTS", "BALANCE")
		for _, t := range m.Transactions {
			fmt.Fprintf(os.Stdout, "%-20s %-28s %10s %10s %10s\n",
				t.Time, t.Action, t.Amount, t.PointsChange, t.BalanceAfter)
		}
		return nil
	},
}

var receiptCmd = &cobra.Command{
	Use:   "receipt MEMBER_ID",
	Short: "Render a text receipt",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("receipt requires a member id")
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		memberSummary, _ := cmd.Flags().GetBool("member")
		var text string
		if memberSummary {
			text, err = a.eng.MemberReceipt(args[0])
		} else {
			text, err = a.eng.TransactionReceipt(args[0])
		}
		if err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			if err := os.WriteFile(out, []byte(text), 0600); err != nil {
				return fmt.Errorf("write receipt: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Receipt written to %s\n", out)
			return nil
		}
		fmt.Fprint(os.Stdout, text)
		return nil
	},
}
