package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerkit/ledgerkit/internal/client"
	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var voucherCmd = &cobra.Command{
	Use:   "voucher",
	Short: "Manage vouchers through their lifecycle",
}

// voucher create
var (
	vchDate        string
	vchType        string
	vchDescription string
	vchReference   string
	vchEntries     []string // format: "account_id:dr|cr:amount"
)

func parseEntries(raw []string) ([]service.EntryRequest, error) {
	entries := make([]service.EntryRequest, 0, len(raw))
	for _, e := range raw {
		parts := strings.SplitN(e, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid entry format %q, expected account_id:dr|cr:amount", e)
		}
		amount, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q in entry %q: %w", parts[2], e, err)
		}
		req := service.EntryRequest{AccountID: parts[0]}
		switch strings.ToLower(parts[1]) {
		case "dr", "debit":
			req.Debit = amount
		case "cr", "credit":
			req.Credit = amount
		default:
			return nil, fmt.Errorf("invalid side %q in entry %q, expected dr or cr", parts[1], e)
		}
		entries = append(entries, req)
	}
	return entries, nil
}

var voucherCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft voucher",
	Long: `Create a draft voucher with double-entry lines.
Each --entry is formatted as "account_id:dr|cr:amount" (e.g. "a1b2:dr:150.00").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		entries, err := parseEntries(vchEntries)
		if err != nil {
			return err
		}

		created, err := c.CreateVoucher(context.Background(), client.VoucherRequest{
			Date:        vchDate,
			Type:        vchType,
			Description: vchDescription,
			Reference:   vchReference,
			Entries:     entries,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Voucher created: %s (%s, %s)\n", created.ID, created.Type, created.Status)
		printVoucherEntries(created)
		return nil
	},
}

// voucher list
var vchListStatus string

var voucherListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vouchers",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		vouchers, err := c.ListVouchers(context.Background(), vchListStatus)
		if err != nil {
			return err
		}
		if len(vouchers) == 0 {
			fmt.Println("No vouchers found.")
			return nil
		}

		fmt.Printf("%-38s %8s %-12s %-10s %-9s %12s %s\n", "ID", "NO", "DATE", "TYPE", "STATUS", "TOTAL", "DESCRIPTION")
		for _, v := range vouchers {
			desc := v.Description
			if len(desc) > 32 {
				desc = desc[:30] + ".."
			}
			no := "-"
			if v.VoucherNo > 0 {
				no = fmt.Sprintf("%d", v.VoucherNo)
			}
			fmt.Printf("%-38s %8s %-12s %-10s %-9s %12s %s\n",
				v.ID, no, v.Date.Format("2006-01-02"), v.Type, v.Status, v.TotalDebit, desc)
		}
		return nil
	},
}

// voucher get
var voucherGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get voucher details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		v, err := c.GetVoucher(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", v.ID)
		if v.VoucherNo > 0 {
			fmt.Printf("Number:      %d\n", v.VoucherNo)
		}
		fmt.Printf("Date:        %s\n", v.Date.Format("2006-01-02"))
		fmt.Printf("Type:        %s\n", v.Type)
		fmt.Printf("Status:      %s\n", v.Status)
		fmt.Printf("Description: %s\n", v.Description)
		if v.Reference != "" {
			fmt.Printf("Reference:   %s\n", v.Reference)
		}
		if v.ReversalOf != "" {
			fmt.Printf("Reverses:    %s\n", v.ReversalOf)
		}
		if v.ReversedBy != "" {
			fmt.Printf("Reversed by: %s\n", v.ReversedBy)
		}
		printVoucherEntries(v)
		return nil
	},
}

func printVoucherEntries(v *ledger.Voucher) {
	fmt.Printf("Entries:\n")
	fmt.Printf("  %-4s %-38s %12s %12s\n", "LINE", "ACCOUNT", "DEBIT", "CREDIT")
	for _, e := range v.Entries {
		fmt.Printf("  %-4d %-38s %12s %12s\n", e.LineNo, e.AccountID, e.Debit, e.Credit)
	}
	fmt.Printf("  %-43s %12s %12s\n", "TOTAL", v.TotalDebit, v.TotalCredit)
}

func transitionCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient()

			v, err := c.Transition(context.Background(), args[0], verb)
			if err != nil {
				return err
			}
			fmt.Printf("Voucher %s is now %s\n", v.ID, v.Status)
			return nil
		},
	}
}

// voucher reject
var vchRejectReason string

var voucherRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a pending voucher",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		v, err := c.RejectVoucher(context.Background(), args[0], vchRejectReason)
		if err != nil {
			return err
		}
		fmt.Printf("Voucher %s is now %s\n", v.ID, v.Status)
		return nil
	},
}

// voucher reverse
var vchReverseDate string

var voucherReverseCmd = &cobra.Command{
	Use:   "reverse [id]",
	Short: "Create and post a reversal of a posted voucher",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()

		v, err := c.ReverseVoucher(context.Background(), args[0], vchReverseDate)
		if err != nil {
			return err
		}
		fmt.Printf("Reversal posted: %s (no %d) reverses %s\n", v.ID, v.VoucherNo, v.ReversalOf)
		return nil
	},
}

func init() {
	voucherCreateCmd.Flags().StringVar(&vchDate, "date", "", "Voucher date (YYYY-MM-DD)")
	voucherCreateCmd.Flags().StringVar(&vchType, "type", "general", "Voucher type (general|sales|purchase|payment|receipt|adjustment|closing)")
	voucherCreateCmd.Flags().StringVar(&vchDescription, "description", "", "Voucher description")
	voucherCreateCmd.Flags().StringVar(&vchReference, "reference", "", "External reference")
	voucherCreateCmd.Flags().StringSliceVar(&vchEntries, "entry", nil, "Entry in format account_id:dr|cr:amount (can be repeated)")
	voucherCreateCmd.MarkFlagRequired("date")
	voucherCreateCmd.MarkFlagRequired("description")
	voucherCreateCmd.MarkFlagRequired("entry")

	voucherListCmd.Flags().StringVar(&vchListStatus, "status", "", "Filter by status")

	voucherRejectCmd.Flags().StringVar(&vchRejectReason, "reason", "", "Rejection reason")

	voucherReverseCmd.Flags().StringVar(&vchReverseDate, "date", "", "Reversal date (YYYY-MM-DD)")
	voucherReverseCmd.MarkFlagRequired("date")

	voucherCmd.AddCommand(voucherCreateCmd)
	voucherCmd.AddCommand(voucherListCmd)
	voucherCmd.AddCommand(voucherGetCmd)
	voucherCmd.AddCommand(transitionCmd("submit", "Submit a draft voucher for approval"))
	voucherCmd.AddCommand(transitionCmd("approve", "Approve a pending voucher"))
	voucherCmd.AddCommand(transitionCmd("post", "Post an approved voucher to the ledger"))
	voucherCmd.AddCommand(transitionCmd("cancel", "Cancel a draft, pending, or rejected voucher"))
	voucherCmd.AddCommand(voucherRejectCmd)
	voucherCmd.AddCommand(voucherReverseCmd)

	rootCmd.AddCommand(voucherCmd)
}
