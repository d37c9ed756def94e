package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recalcAccount string

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Rebuild monthly balances from posted entries",
	Long: `Rebuild the stored monthly balance rows from the posted voucher
entries, carrying closings forward month by month. Use after a repair or
data import; normal posting keeps balances current on its own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		n, err := c.RecalculateBalances(context.Background(), recalcAccount)
		if err != nil {
			return err
		}
		fmt.Printf("Recalculated %d balance rows.\n", n)
		return nil
	},
}

func init() {
	recalcCmd.Flags().StringVar(&recalcAccount, "account", "", "Limit to one account ID (default: all accounts)")
	rootCmd.AddCommand(recalcCmd)
}
