package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Manage fiscal periods",
}

// period list
var periodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fiscal periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		periods, err := c.ListPeriods(context.Background())
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			fmt.Println("No fiscal periods yet.")
			return nil
		}

		fmt.Printf("%-10s %-12s %-12s %-8s %s\n", "PERIOD", "START", "END", "STATUS", "CLOSED AT")
		for _, p := range periods {
			closedAt := "-"
			if p.ClosedAt != nil {
				closedAt = p.ClosedAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%-10s %-12s %-12s %-8s %s\n",
				p.Name,
				p.StartDate.Format("2006-01-02"),
				p.EndDate.Format("2006-01-02"),
				p.Status, closedAt)
		}
		return nil
	},
}

// period close
var (
	periodCloseYear  int
	periodCloseMonth int
)

var periodCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Close a fiscal period",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		p, err := c.ClosePeriod(context.Background(), periodCloseYear, periodCloseMonth)
		if err != nil {
			return err
		}
		fmt.Printf("Period %s closed.\n", p.Name)
		return nil
	},
}

// period year-end-close
var (
	yecYear            int
	yecRetainedAccount string
)

var yearEndCloseCmd = &cobra.Command{
	Use:   "year-end-close",
	Short: "Close the fiscal year and sweep earnings into retained earnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		v, err := c.YearEndClose(context.Background(), yecYear, yecRetainedAccount)
		if err != nil {
			return err
		}
		fmt.Printf("Year %d closed: closing voucher %s (no %d) posted.\n", yecYear, v.ID, v.VoucherNo)
		return nil
	},
}

func init() {
	periodCloseCmd.Flags().IntVar(&periodCloseYear, "year", 0, "Fiscal year")
	periodCloseCmd.Flags().IntVar(&periodCloseMonth, "month", 0, "Fiscal month (1-12)")
	periodCloseCmd.MarkFlagRequired("year")
	periodCloseCmd.MarkFlagRequired("month")

	yearEndCloseCmd.Flags().IntVar(&yecYear, "year", 0, "Fiscal year to close")
	yearEndCloseCmd.Flags().StringVar(&yecRetainedAccount, "retained-earnings", "", "Retained earnings account ID")
	yearEndCloseCmd.MarkFlagRequired("year")
	yearEndCloseCmd.MarkFlagRequired("retained-earnings")

	periodCmd.AddCommand(periodListCmd)
	periodCmd.AddCommand(periodCloseCmd)
	periodCmd.AddCommand(yearEndCloseCmd)

	rootCmd.AddCommand(periodCmd)
}
