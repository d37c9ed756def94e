package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerkit/ledgerkit/internal/client"
	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

func apiClient() *client.Client {
	return client.New(flagServer, flagCompany, flagUser)
}

// account create
var (
	acctCreateCode    string
	acctCreateName    string
	acctCreateParent  string
	acctCreateType    string
	acctCreateControl bool
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		created, err := c.CreateAccount(context.Background(), service.CreateAccountRequest{
			Code:             acctCreateCode,
			Name:             acctCreateName,
			ParentID:         acctCreateParent,
			Type:             ledger.AccountType(acctCreateType),
			IsControlAccount: acctCreateControl,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Account created: %s %s (%s, %s-normal) id=%s\n",
			created.Code, created.Name, created.Type, created.Nature, created.ID)
		return nil
	},
}

// account list
var acctListType string

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the account tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		tree, err := c.ListAccountTree(context.Background(), acctListType)
		if err != nil {
			return err
		}
		if len(tree) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-12s %-40s %-10s %-6s %s\n", "CODE", "NAME", "TYPE", "SIDE", "FLAGS")
		for _, n := range tree {
			printAccountNode(n, 0)
		}
		return nil
	},
}

func printAccountNode(n *service.AccountNode, depth int) {
	flags := ""
	if n.IsControlAccount {
		flags += "control "
	}
	if !n.AllowDirectPosting {
		flags += "no-post "
	}
	if !n.Active {
		flags += "inactive"
	}
	name := strings.Repeat("  ", depth) + n.Name
	if len(name) > 38 {
		name = name[:38] + ".."
	}
	fmt.Printf("%-12s %-40s %-10s %-6s %s\n", n.Code, name, n.Type, n.Nature, strings.TrimSpace(flags))
	for _, child := range n.Children {
		printAccountNode(child, depth+1)
	}
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		acct, err := c.GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:       %s\n", acct.ID)
		fmt.Printf("Code:     %s\n", acct.Code)
		fmt.Printf("Name:     %s\n", acct.Name)
		fmt.Printf("Type:     %s (%s-normal)\n", acct.Type, acct.Nature)
		fmt.Printf("Level:    %d\n", acct.Level)
		fmt.Printf("Path:     %s\n", acct.Path)
		fmt.Printf("Control:  %v\n", acct.IsControlAccount)
		fmt.Printf("Posting:  %v\n", acct.AllowDirectPosting)
		fmt.Printf("Active:   %v\n", acct.Active)
		fmt.Printf("Created:  %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account move
var acctMoveParent string

var accountMoveCmd = &cobra.Command{
	Use:   "move [id]",
	Short: "Move an account (and its subtree) under a new parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		acct, err := c.MoveAccount(context.Background(), args[0], acctMoveParent)
		if err != nil {
			return err
		}
		fmt.Printf("Account %s moved, new path %s\n", acct.Code, acct.Path)
		return nil
	},
}

// account update
var (
	acctUpdateName   string
	acctUpdateActive bool
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an account's name or active flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		var req service.UpdateAccountRequest
		if cmd.Flags().Changed("name") {
			req.Name = &acctUpdateName
		}
		if cmd.Flags().Changed("active") {
			req.Active = &acctUpdateActive
		}

		acct, err := c.UpdateAccount(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Printf("Account %s updated: %s active=%v\n", acct.Code, acct.Name, acct.Active)
		return nil
	},
}

// account reorder
var accountReorderCmd = &cobra.Command{
	Use:   "reorder [id...]",
	Short: "Set the display order of sibling accounts",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		if err := c.ReorderAccounts(context.Background(), args); err != nil {
			return err
		}
		fmt.Println("Accounts reordered.")
		return nil
	},
}

// account delete
var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an account with no children and no posted entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		if err := c.DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Account deleted.")
		return nil
	},
}

// account ledger
var (
	acctLedgerFrom string
	acctLedgerTo   string
)

var accountLedgerCmd = &cobra.Command{
	Use:   "ledger [id]",
	Short: "Show posted movements on an account with a running balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		al, err := c.GetAccountLedger(context.Background(), args[0], acctLedgerFrom, acctLedgerTo)
		if err != nil {
			return err
		}

		fmt.Printf("Account %s %s, %s to %s\n", al.AccountCode, al.AccountName,
			al.FromDate.Format("2006-01-02"), al.ToDate.Format("2006-01-02"))
		fmt.Printf("Opening balance: %s\n\n", al.OpeningBalance)
		fmt.Printf("%-12s %8s %-10s %12s %12s %12s\n", "DATE", "NO", "TYPE", "DEBIT", "CREDIT", "BALANCE")
		for _, l := range al.Lines {
			fmt.Printf("%-12s %8d %-10s %12s %12s %12s\n",
				l.Date.Format("2006-01-02"), l.VoucherNo, l.VoucherType, l.Debit, l.Credit, l.Balance)
		}
		fmt.Printf("\nClosing balance: %s\n", al.ClosingBalance)
		return nil
	},
}

// account balance
var (
	acctBalYear  int
	acctBalMonth int
)

var accountBalanceCmd = &cobra.Command{
	Use:   "balance [id]",
	Short: "Show the monthly balance row for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		bal, err := c.GetBalance(context.Background(), args[0], acctBalYear, acctBalMonth)
		if err != nil {
			return err
		}

		fmt.Printf("Account %s, period %d-%02d\n", bal.AccountID, bal.Year, bal.Month)
		fmt.Printf("Opening: %s dr / %s cr\n", bal.OpeningDebit, bal.OpeningCredit)
		fmt.Printf("Period:  %s dr / %s cr\n", bal.PeriodDebit, bal.PeriodCredit)
		fmt.Printf("Closing: %s dr / %s cr\n", bal.ClosingDebit, bal.ClosingCredit)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Numeric account code (3-10 digits)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateParent, "parent", "", "Parent account ID")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Account type (asset|liability|equity|revenue|expense)")
	accountCreateCmd.Flags().BoolVar(&acctCreateControl, "control", false, "Mark as control account (no direct posting)")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")
	accountCreateCmd.MarkFlagRequired("type")

	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by account type")

	accountUpdateCmd.Flags().StringVar(&acctUpdateName, "name", "", "New account name")
	accountUpdateCmd.Flags().BoolVar(&acctUpdateActive, "active", true, "Whether the account accepts new postings")

	accountMoveCmd.Flags().StringVar(&acctMoveParent, "parent", "", "New parent account ID (empty for root)")

	accountLedgerCmd.Flags().StringVar(&acctLedgerFrom, "from", "", "Start date (YYYY-MM-DD)")
	accountLedgerCmd.Flags().StringVar(&acctLedgerTo, "to", "", "End date (YYYY-MM-DD)")
	accountLedgerCmd.MarkFlagRequired("from")
	accountLedgerCmd.MarkFlagRequired("to")

	accountBalanceCmd.Flags().IntVar(&acctBalYear, "year", 0, "Fiscal year")
	accountBalanceCmd.Flags().IntVar(&acctBalMonth, "month", 0, "Fiscal month (1-12)")
	accountBalanceCmd.MarkFlagRequired("year")
	accountBalanceCmd.MarkFlagRequired("month")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountReorderCmd)
	accountCmd.AddCommand(accountMoveCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountLedgerCmd)
	accountCmd.AddCommand(accountBalanceCmd)

	rootCmd.AddCommand(accountCmd)
}
