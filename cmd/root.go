package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagServer  string
	flagDB      string
	flagCompany string
	flagUser    string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerkit",
	Short: "Double-entry ledger core with voucher workflow and period closing",
	Long: "A multi-tenant double-entry bookkeeping core backed by SQLite: hierarchical " +
		"chart of accounts, voucher lifecycle with approval workflow, monthly ledger " +
		"balances, trial balance and financial statements, and fiscal period closing.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8787", "Server address")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "ledgerkit.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagCompany, "company", "", "Company (tenant) ID")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "Acting user recorded in audit fields")
}

func Execute() error {
	return rootCmd.Execute()
}
