package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/ledger"
)

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.AddCommand(balanceCreditCmd)
	balanceCmd.AddCommand(balanceDebitCmd)

	rootCmd.AddCommand(pointsCmd)
	pointsCmd.AddCommand(pointsExchangeCmd)
	pointsCmd.AddCommand(pointsAdjustCmd)
	pointsAdjustCmd.Flags().String("reason", "", "Reason for the adjustment (required)")
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Credit or debit a member's stored-value balance",
}

var balanceCreditCmd = &cobra.Command{
	Use:   "credit MEMBER_ID AMOUNT",
	Short: "Add to a member's balance (recharge)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBalanceChange(cmd, args, ledger.Credit)
	},
}

var balanceDebitCmd = &cobra.Command{
	Use:   "debit MEMBER_ID AMOUNT",
	Short: "Deduct from a member's balance (consumption, earns points)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBalanceChange(cmd, args, ledger.Debit)
	},
}

func runBalanceChange(cmd *cobra.Command, args []string, op ledger.BalanceOp) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	amount, err := domain.ParseAmount(args[1])
	if err != nil {
		return err
	}
	m, err := a.eng.ApplyBalanceChange(args[0], op, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s of %s applied to %s\n", op, amount, m.Name)
	fmt.Fprintf(os.Stdout, "Balance: %s   Points: %s   Level: %s\n", m.Balance, m.Points, m.Level)
	return nil
}

// ─── points ─────────────────────────────────────────────────────────────────

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Exchange or adjust loyalty points",
}

var pointsExchangeCmd = &cobra.Command{
	Use:   "exchange MEMBER_ID POINTS",
	Short: "Redeem points for balance",
	Long:  `Redeem points for stored-value balance. The request must be a multiple of the configured exchange unit.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		points, err := domain.ParseAmount(args[1])
		if err != nil {
			return err
		}
		m, err := a.eng.ExchangePoints(args[0], points)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Redeemed %s points for %s\n", args[1], m.Name)
		fmt.Fprintf(os.Stdout, "Balance: %s   Points: %s\n", m.Balance, m.Points)
		return nil
	},
}

var pointsAdjustCmd = &cobra.Command{
	Use:   "adjust MEMBER_ID DELTA",
	Short: "Adjust points by a signed delta, with a reason",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		delta, err := domain.ParseAmountString(args[1])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		m, err := a.eng.AdjustPoints(args[0], delta, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Points adjusted for %s: now %s\n", m.Name, m.Points)
		return nil
	},
}
