package ledger

import (
	"github.com/shopspring/decimal"
)

// LedgerBalance is the running opening/period/closing totals for one
// account in one fiscal period. Maintained by the posting path, never
// edited directly.
type LedgerBalance struct {
	CompanyID string `json:"company_id"`
	AccountID string `json:"account_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`

	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	ClosingDebit  decimal.Decimal `json:"closing_debit"`
	ClosingCredit decimal.Decimal `json:"closing_credit"`
}

// Net converts a debit/credit pair to a signed balance on the account's
// natural side: positive means the balance sits on the nature side.
func Net(nature Nature, debit, credit decimal.Decimal) decimal.Decimal {
	if nature == NatureDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// SplitNet converts a nature-signed balance back to a debit/credit pair,
// placing the amount on the nature side when positive and on the
// opposite side when negative.
func SplitNet(nature Nature, net decimal.Decimal) (debit, credit decimal.Decimal) {
	onNature := net
	onOther := decimal.Zero
	if net.IsNegative() {
		onNature = decimal.Zero
		onOther = net.Neg()
	}
	if nature == NatureDebit {
		return onNature, onOther
	}
	return onOther, onNature
}

// OpeningNet returns the opening balance signed by nature.
func (b *LedgerBalance) OpeningNet(nature Nature) decimal.Decimal {
	return Net(nature, b.OpeningDebit, b.OpeningCredit)
}

// ClosingNet returns the closing balance signed by nature.
func (b *LedgerBalance) ClosingNet(nature Nature) decimal.Decimal {
	return Net(nature, b.ClosingDebit, b.ClosingCredit)
}

// Roll recomputes the closing pair from opening plus period movement,
// signed by the account's nature. Called after every period increment
// and during recalculation.
func (b *LedgerBalance) Roll(nature Nature) {
	net := b.OpeningNet(nature).Add(Net(nature, b.PeriodDebit, b.PeriodCredit))
	b.ClosingDebit, b.ClosingCredit = SplitNet(nature, net)
}
