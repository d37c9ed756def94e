package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type VoucherType string

const (
	VoucherGeneral    VoucherType = "general"
	VoucherSales      VoucherType = "sales"
	VoucherPurchase   VoucherType = "purchase"
	VoucherPayment    VoucherType = "payment"
	VoucherReceipt    VoucherType = "receipt"
	VoucherAdjustment VoucherType = "adjustment"
	VoucherClosing    VoucherType = "closing"
)

var AllVoucherTypes = []VoucherType{
	VoucherGeneral,
	VoucherSales,
	VoucherPurchase,
	VoucherPayment,
	VoucherReceipt,
	VoucherAdjustment,
	VoucherClosing,
}

type VoucherStatus string

const (
	StatusDraft     VoucherStatus = "draft"
	StatusPending   VoucherStatus = "pending"
	StatusApproved  VoucherStatus = "approved"
	StatusRejected  VoucherStatus = "rejected"
	StatusPosted    VoucherStatus = "posted"
	StatusCancelled VoucherStatus = "cancelled"
)

// transitions is the voucher state machine. Posting and reversal go
// through the posting path and are not plain transitions.
var transitions = map[VoucherStatus][]VoucherStatus{
	StatusDraft:    {StatusPending, StatusCancelled},
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusPosted},
	StatusRejected: {StatusCancelled},
}

// CanTransition reports whether from -> to is a legal status transition.
func CanTransition(from, to VoucherStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions that
// change ledger state. Terminal vouchers never block a period close.
func (s VoucherStatus) Terminal() bool {
	return s == StatusPosted || s == StatusRejected || s == StatusCancelled
}

type VoucherEntry struct {
	ID          int64           `json:"id,omitempty"`
	VoucherID   string          `json:"voucher_id"`
	LineNo      int             `json:"line_no"`
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
	Partner     string          `json:"partner,omitempty"`
	Department  string          `json:"department,omitempty"`
	Project     string          `json:"project,omitempty"`
	CostCenter  string          `json:"cost_center,omitempty"`
}

// Validate checks the single-sided amount invariant for one line.
func (e *VoucherEntry) Validate() error {
	hasDebit := e.Debit.IsPositive()
	hasCredit := e.Credit.IsPositive()
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return fmt.Errorf("%w: line %d", ErrNegativeAmount, e.LineNo)
	}
	if hasDebit && hasCredit {
		return fmt.Errorf("%w: line %d", ErrBothSidesSet, e.LineNo)
	}
	if !hasDebit && !hasCredit {
		return fmt.Errorf("%w: line %d", ErrNoSideSet, e.LineNo)
	}
	return nil
}

type Voucher struct {
	ID          string        `json:"id"`
	CompanyID   string        `json:"company_id"`
	VoucherNo   int64         `json:"voucher_no,omitempty"`
	Date        time.Time     `json:"date"`
	Type        VoucherType   `json:"type"`
	Description string        `json:"description"`
	Reference   string        `json:"reference,omitempty"`
	Status      VoucherStatus `json:"status"`

	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`

	// ReversalOf is the owning link from a reversal voucher to its
	// original. ReversedBy is derived by lookup, never stored.
	ReversalOf string `json:"reversal_of,omitempty"`
	ReversedBy string `json:"reversed_by,omitempty"`

	Entries []VoucherEntry `json:"entries"`

	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SubmittedBy string     `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy  string     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	PostedBy    string     `json:"posted_by,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

// ValidVoucherType checks if a type string is one of the seven types.
func ValidVoucherType(t VoucherType) bool {
	for _, vt := range AllVoucherTypes {
		if vt == t {
			return true
		}
	}
	return false
}

// Totals sums the entry lines.
func (v *Voucher) Totals() (debit, credit decimal.Decimal) {
	for _, e := range v.Entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// Validate checks creation-time invariants: company, date, type, and
// per-line amounts. The balance invariant is checked at submit time,
// not here, so a draft may be saved unbalanced while being worked on.
func (v *Voucher) Validate() error {
	if v.CompanyID == "" {
		return ErrMissingCompany
	}
	if v.Date.IsZero() {
		return ErrInvalidVoucherDate
	}
	if !ValidVoucherType(v.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidVoucherType, v.Type)
	}
	for i := range v.Entries {
		if err := v.Entries[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBalanced enforces the submit-time invariants: at least one
// entry, every line single-sided, and total debits equal total credits.
func (v *Voucher) ValidateBalanced() error {
	if len(v.Entries) == 0 {
		return ErrNoEntries
	}
	for i := range v.Entries {
		if err := v.Entries[i].Validate(); err != nil {
			return err
		}
	}
	debit, credit := v.Totals()
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s, credit %s",
			ErrUnbalancedVoucher, debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

// ReversalEntries returns the voucher's entries with debit and credit
// swapped per line, for building a reversal voucher.
func (v *Voucher) ReversalEntries() []VoucherEntry {
	out := make([]VoucherEntry, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = VoucherEntry{
			LineNo:      e.LineNo,
			AccountID:   e.AccountID,
			Debit:       e.Credit,
			Credit:      e.Debit,
			Description: e.Description,
			Partner:     e.Partner,
			Department:  e.Department,
			Project:     e.Project,
			CostCenter:  e.CostCenter,
		}
	}
	return out
}
