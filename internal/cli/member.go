package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clubledger/clubledger/internal/domain"
)

func init() {
	rootCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberUpdateCmd)
	memberCmd.AddCommand(memberRemoveCmd)
	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberShowCmd)

	for _, c := range []*cobra.Command{memberAddCmd, memberUpdateCmd} {
		c.Flags().String("name", "", "Member name")
		c.Flags().String("phone", "", "11-digit mobile number")
		c.Flags().String("birthday", "", "Birthday as YYYY-MM-DD (optional)")
		c.Flags().String("level", "", "Tier level (default: lowest tier)")
		c.Flags().String("status", "", "Status: normal, frozen, cancelled")
	}
	memberListCmd.Flags().StringP("query", "q", "", "Filter by name, phone or id substring")
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage member records",
}

// ─── member add ─────────────────────────────────────────────────────────────

var memberAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new member",
	RunE:  runMemberAdd,
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name, _ := cmd.Flags().GetString("name")
	phone, _ := cmd.Flags().GetString("phone")
	birthday, _ := cmd.Flags().GetString("birthday")
	level, _ := cmd.Flags().GetString("level")
	status, _ := cmd.Flags().GetString("status")

	m, err := a.eng.Create(name, phone, birthday, level, domain.Status(status))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Member registered: %s\n", m.ID)
	printMember(m)
	return nil
}

// ─── member update ──────────────────────────────────────────────────────────

var memberUpdateCmd = &cobra.Command{
	Use:   "update MEMBER_ID",
	Short: "Edit a member's profile",
	Long: `Edit name, phone, birthday, level or status. Balance, points and
history are never touched by an update.`,
	Args: cobra.ExactArgs(1),
	RunE: runMemberUpdate,
}

func runMemberUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.eng.Get(args[0])
	if err != nil {
		return err
	}

	// Unset flags keep the current value.
	name := flagOr(cmd, "name", current.Name)
	phone := flagOr(cmd, "phone", current.Phone)
	birthday := flagOr(cmd, "birthday", current.Birthday)
	level := flagOr(cmd, "level", current.Level)
	status := flagOr(cmd, "status", string(current.Status))

	m, err := a.eng.Update(args[0], name, phone, birthday, level, domain.Status(status))
	if err != nil {
		return err
	}
	printMember(m)
	return nil
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// ─── member remove ──────────────────────────────────────────────────────────

var memberRemoveCmd = &cobra.Command{
	Use:   "remove MEMBER_ID",
	Short: "Delete a member permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberRemove,
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.eng.Get(args[0])
	if err != nil {
		return err
	}
	if !confirm(cmd, fmt.Sprintf("Delete member %s (%s)? This cannot be undone.", m.Name, m.ID)) {
		fmt.Fprintln(os.Stdout, "Aborted.")
		return nil
	}
	if err := a.eng.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Member %s removed.\n", args[0])
	return nil
}

// ─── member list / show ─────────────────────────────────────────────────────

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	RunE:  runMemberList,
}

func runMemberList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	query, _ := cmd.Flags().GetString("query")
	members := a.eng.Search(query)
	if len(members) == 0 {
		fmt.Fprintln(os.Stdout, "No members found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s %-12s %-12s %-8s %10s %10s  %s\n",
		"ID", "NAME", "PHONE", "LEVEL", "BALANCE", "POINTS", "STATUS")
	for _, m := range members {
		fmt.Fprintf(os.Stdout, "%-24s %-12s %-12s %-8s %10s %10s  %s\n",
			m.ID, m.Name, m.Phone, m.Level, m.Balance, m.Points, m.Status)
	}
	fmt.Fprintf(os.Stdout, "\n%d members\n", len(members))
	return nil
}

var memberShowCmd = &cobra.Command{
	Use:   "show MEMBER_ID",
	Short: "Show one member in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.eng.Get(args[0])
		if err != nil {
			return err
		}
		printMember(m)
		return nil
	},
}
