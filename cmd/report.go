package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate financial reports",
}

// report trial-balance
var (
	tbYear  int
	tbMonth int
)

var trialBalanceCmd = &cobra.Command{
	Use:   "trial-balance",
	Short: "Trial balance for a fiscal period",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		tb, err := c.TrialBalance(context.Background(), tbYear, tbMonth)
		if err != nil {
			return err
		}

		fmt.Printf("Trial balance %d-%02d\n\n", tb.Year, tb.Month)
		fmt.Printf("%-10s %-32s %12s %12s %12s %12s %12s %12s\n",
			"CODE", "ACCOUNT", "OPEN DR", "OPEN CR", "PERIOD DR", "PERIOD CR", "CLOSE DR", "CLOSE CR")
		for _, l := range tb.Lines {
			name := strings.Repeat("  ", l.Level-1) + l.AccountName
			if len(name) > 30 {
				name = name[:28] + ".."
			}
			fmt.Printf("%-10s %-32s %12s %12s %12s %12s %12s %12s\n",
				l.AccountCode, name,
				l.OpeningDebit, l.OpeningCredit,
				l.PeriodDebit, l.PeriodCredit,
				l.ClosingDebit, l.ClosingCredit)
		}
		fmt.Printf("\nTotals: %s dr / %s cr", tb.TotalDebit, tb.TotalCredit)
		if tb.Balanced {
			fmt.Println(" (balanced)")
		} else {
			fmt.Println(" (OUT OF BALANCE)")
		}
		return nil
	},
}

// report balance-sheet
var bsAsOf string

var balanceSheetCmd = &cobra.Command{
	Use:   "balance-sheet",
	Short: "Balance sheet as of a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		bs, err := c.BalanceSheet(context.Background(), bsAsOf)
		if err != nil {
			return err
		}

		fmt.Printf("Balance sheet as of %s\n", bs.AsOf.Format("2006-01-02"))
		printSection("ASSETS", bs.Assets)
		fmt.Printf("%-44s %14s\n", "Total assets", bs.TotalAssets)
		printSection("LIABILITIES", bs.Liabilities)
		fmt.Printf("%-44s %14s\n", "Total liabilities", bs.TotalLiabilities)
		printSection("EQUITY", bs.Equity)
		fmt.Printf("%-44s %14s\n", "Current earnings", bs.CurrentEarnings)
		fmt.Printf("%-44s %14s\n", "Total equity", bs.TotalEquity)
		if !bs.Balanced {
			fmt.Println("\nWARNING: balance sheet does not balance")
		}
		return nil
	},
}

// report income-statement
var (
	isFrom string
	isTo   string
)

var incomeStatementCmd = &cobra.Command{
	Use:   "income-statement",
	Short: "Income statement for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		is, err := c.IncomeStatement(context.Background(), isFrom, isTo)
		if err != nil {
			return err
		}

		fmt.Printf("Income statement %s to %s\n",
			is.FromDate.Format("2006-01-02"), is.ToDate.Format("2006-01-02"))
		printSection("REVENUE", is.Revenue)
		fmt.Printf("%-44s %14s\n", "Total revenue", is.TotalRevenue)
		printSection("EXPENSES", is.Expenses)
		fmt.Printf("%-44s %14s\n", "Total expenses", is.TotalExpense)
		fmt.Printf("\n%-44s %14s\n", "NET INCOME", is.NetIncome)
		return nil
	},
}

func printSection(title string, lines []ledger.StatementLine) {
	fmt.Printf("\n%s\n", title)
	for _, l := range lines {
		name := strings.Repeat("  ", l.Level-1) + l.AccountCode + " " + l.AccountName
		if len(name) > 42 {
			name = name[:40] + ".."
		}
		fmt.Printf("  %-42s %14s\n", name, l.Amount)
	}
}

func init() {
	trialBalanceCmd.Flags().IntVar(&tbYear, "year", 0, "Fiscal year")
	trialBalanceCmd.Flags().IntVar(&tbMonth, "month", 0, "Fiscal month (1-12)")
	trialBalanceCmd.MarkFlagRequired("year")
	trialBalanceCmd.MarkFlagRequired("month")

	balanceSheetCmd.Flags().StringVar(&bsAsOf, "as-of", "", "Report date (YYYY-MM-DD)")
	balanceSheetCmd.MarkFlagRequired("as-of")

	incomeStatementCmd.Flags().StringVar(&isFrom, "from", "", "Start date (YYYY-MM-DD)")
	incomeStatementCmd.Flags().StringVar(&isTo, "to", "", "End date (YYYY-MM-DD)")
	incomeStatementCmd.MarkFlagRequired("from")
	incomeStatementCmd.MarkFlagRequired("to")

	reportCmd.AddCommand(trialBalanceCmd)
	reportCmd.AddCommand(balanceSheetCmd)
	reportCmd.AddCommand(incomeStatementCmd)

	rootCmd.AddCommand(reportCmd)
}
