package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundingEpsilon is the tolerance used when checking that report totals
// balance.
var RoundingEpsilon = decimal.RequireFromString("0.005")

// WithinEpsilon reports whether two totals are equal within the rounding
// tolerance.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(RoundingEpsilon)
}

// TrialBalanceLine is one account row. Control/parent accounts appear as
// subtotal rows aggregating their subtree; only non-subtotal rows
// contribute to the grand total.
type TrialBalanceLine struct {
	AccountID     string          `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	Level         int             `json:"level"`
	Subtotal      bool            `json:"subtotal"`
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	ClosingDebit  decimal.Decimal `json:"closing_debit"`
	ClosingCredit decimal.Decimal `json:"closing_credit"`
}

type TrialBalance struct {
	CompanyID   string             `json:"company_id"`
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Balanced    bool               `json:"balanced"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type StatementLine struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Level       int             `json:"level"`
	Amount      decimal.Decimal `json:"amount"`
}

type BalanceSheet struct {
	CompanyID        string          `json:"company_id"`
	AsOf             time.Time       `json:"as_of"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	// CurrentEarnings is the fiscal-year-to-date net of revenue and
	// expense accounts not yet swept into retained earnings.
	CurrentEarnings decimal.Decimal `json:"current_earnings"`
	Balanced        bool            `json:"balanced"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type IncomeStatement struct {
	CompanyID    string          `json:"company_id"`
	FromDate     time.Time       `json:"from_date"`
	ToDate       time.Time       `json:"to_date"`
	Revenue      []StatementLine `json:"revenue"`
	Expenses     []StatementLine `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetIncome    decimal.Decimal `json:"net_income"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// AccountLedgerLine is one posted movement on an account with the
// running balance after it, signed by the account's nature.
type AccountLedgerLine struct {
	VoucherID   string          `json:"voucher_id"`
	VoucherNo   int64           `json:"voucher_no"`
	VoucherType VoucherType     `json:"voucher_type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type AccountLedger struct {
	AccountID      string              `json:"account_id"`
	AccountCode    string              `json:"account_code"`
	AccountName    string              `json:"account_name"`
	FromDate       time.Time           `json:"from_date"`
	ToDate         time.Time           `json:"to_date"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	Lines          []AccountLedgerLine `json:"lines"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
}
