package cmd

import (
	"fmt"

	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/spf13/cobra"
)

// init talks to the database directly rather than the API so a chart can
// be seeded before any server is running.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database and seed the default chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagCompany == "" {
			return fmt.Errorf("--company is required")
		}

		st, err := store.Open(flagDB)
		if err != nil {
			return err
		}
		defer st.Close()

		accounts := service.NewAccountService(st, newLogger(true))
		created, err := accounts.SeedDefaultChart(cmd.Context(), flagCompany)
		if err != nil {
			return err
		}

		fmt.Printf("Database %s ready: %d accounts created for company %s\n", flagDB, created, flagCompany)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
