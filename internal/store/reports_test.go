package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

// seedTradingMonth posts one sale and one expense in January 2025:
//
//	sale:    dr Cash 500 / cr Sales 500
//	expense: dr Rent 200 / cr Cash 200
func seedTradingMonth(t *testing.T, st *Store) (cash, sales, rent *ledger.Account) {
	t.Helper()
	ctx := context.Background()

	assets := mkControlAccount(t, st, "1000", "Current Assets", ledger.TypeAsset, "")
	cash = mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, assets.ID)
	sales = mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	rent = mkAccount(t, st, "5010", "Rent", ledger.TypeExpense, "")

	sale := approvedVoucher(t, st, date(2025, 1, 10), ledger.VoucherSales, cash.ID, sales.ID, "500.00")
	_, err := st.PostVoucher(ctx, testCompany, sale.ID, "amy")
	require.NoError(t, err)

	exp := approvedVoucher(t, st, date(2025, 1, 20), ledger.VoucherPayment, rent.ID, cash.ID, "200.00")
	_, err = st.PostVoucher(ctx, testCompany, exp.ID, "amy")
	require.NoError(t, err)
	return cash, sales, rent
}

func TestTrialBalance(t *testing.T) {
	st := newTestStore(t)
	seedTradingMonth(t, st)

	tb, err := st.TrialBalance(context.Background(), testCompany, 2025, 1)
	require.NoError(t, err)

	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(dec("700.00")), "total debit %s", tb.TotalDebit)
	assert.True(t, tb.TotalCredit.Equal(dec("700.00")))

	byCode := make(map[string]ledger.TrialBalanceLine)
	for _, l := range tb.Lines {
		byCode[l.AccountCode] = l
	}

	// The control parent appears as a subtotal over its subtree, equal
	// here to its only child.
	parent, ok := byCode["1000"]
	require.True(t, ok)
	assert.True(t, parent.Subtotal)
	child := byCode["1010"]
	assert.False(t, child.Subtotal)
	assert.True(t, parent.PeriodDebit.Equal(child.PeriodDebit))
	assert.True(t, parent.ClosingDebit.Equal(child.ClosingDebit))

	assert.True(t, child.PeriodDebit.Equal(dec("500.00")))
	assert.True(t, child.PeriodCredit.Equal(dec("200.00")))
	assert.True(t, child.ClosingDebit.Equal(dec("300.00")))
}

func TestTrialBalance_DirectPostingToParent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// A non-control parent may take direct postings; its own movement
	// lives on its balance row, not on any child line, and must still
	// count exactly once in the grand total.
	parent := mkAccount(t, st, "1000", "Current Assets", ledger.TypeAsset, "")
	child := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, parent.ID)
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	v := approvedVoucher(t, st, date(2025, 1, 10), ledger.VoucherSales, parent.ID, sales.ID, "100.00")
	_, err := st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)
	v = approvedVoucher(t, st, date(2025, 1, 12), ledger.VoucherSales, child.ID, sales.ID, "40.00")
	_, err = st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)

	tb, err := st.TrialBalance(ctx, testCompany, 2025, 1)
	require.NoError(t, err)

	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(dec("140.00")), "total debit %s", tb.TotalDebit)
	assert.True(t, tb.TotalCredit.Equal(dec("140.00")), "total credit %s", tb.TotalCredit)

	byCode := make(map[string]ledger.TrialBalanceLine)
	for _, l := range tb.Lines {
		byCode[l.AccountCode] = l
	}
	// The parent's subtotal rolls up its own 100 plus the child's 40.
	parentLine, ok := byCode["1000"]
	require.True(t, ok)
	assert.True(t, parentLine.Subtotal)
	assert.True(t, parentLine.PeriodDebit.Equal(dec("140.00")), "parent period debit %s", parentLine.PeriodDebit)
}

func TestTrialBalance_CarriesForwardToLaterPeriod(t *testing.T) {
	st := newTestStore(t)
	seedTradingMonth(t, st)

	// No activity in March: closings become openings, period columns zero.
	tb, err := st.TrialBalance(context.Background(), testCompany, 2025, 3)
	require.NoError(t, err)
	require.NotEmpty(t, tb.Lines)
	assert.True(t, tb.TotalDebit.IsZero())
	assert.True(t, tb.TotalCredit.IsZero())
	assert.True(t, tb.Balanced)

	for _, l := range tb.Lines {
		if l.AccountCode == "1010" {
			assert.True(t, l.OpeningDebit.Equal(dec("300.00")), "opening %s", l.OpeningDebit)
			assert.True(t, l.ClosingDebit.Equal(dec("300.00")))
		}
	}
}

func TestBalanceSheet(t *testing.T) {
	st := newTestStore(t)
	seedTradingMonth(t, st)

	bs, err := st.BalanceSheet(context.Background(), testCompany, date(2025, 1, 31))
	require.NoError(t, err)

	// Assets: cash 300. No liabilities or equity accounts have balances;
	// unclosed revenue 500 - expense 200 lands in current earnings.
	assert.True(t, bs.TotalAssets.Equal(dec("300.00")), "assets %s", bs.TotalAssets)
	assert.True(t, bs.TotalLiabilities.IsZero())
	assert.True(t, bs.TotalEquity.IsZero())
	assert.True(t, bs.CurrentEarnings.Equal(dec("300.00")), "earnings %s", bs.CurrentEarnings)
	assert.True(t, bs.Balanced)
}

func TestIncomeStatement(t *testing.T) {
	st := newTestStore(t)
	seedTradingMonth(t, st)

	is, err := st.IncomeStatement(context.Background(), testCompany, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)

	assert.True(t, is.TotalRevenue.Equal(dec("500.00")))
	assert.True(t, is.TotalExpense.Equal(dec("200.00")))
	assert.True(t, is.NetIncome.Equal(dec("300.00")))
	require.Len(t, is.Revenue, 1)
	assert.Equal(t, "4010", is.Revenue[0].AccountCode)
	require.Len(t, is.Expenses, 1)
	assert.Equal(t, "5010", is.Expenses[0].AccountCode)
}

func TestIncomeStatement_ExcludesOtherPeriods(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cash, sales, _ := seedTradingMonth(t, st)

	// February activity must not leak into a January-only statement.
	v := approvedVoucher(t, st, date(2025, 2, 5), ledger.VoucherSales, cash.ID, sales.ID, "999.00")
	_, err := st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)

	is, err := st.IncomeStatement(ctx, testCompany, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, is.TotalRevenue.Equal(dec("500.00")), "revenue %s", is.TotalRevenue)
}

func TestAccountLedger(t *testing.T) {
	st := newTestStore(t)
	cash, _, _ := seedTradingMonth(t, st)

	al, err := st.AccountLedger(context.Background(), testCompany, cash.ID, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)

	assert.True(t, al.OpeningBalance.IsZero())
	require.Len(t, al.Lines, 2)
	assert.True(t, al.Lines[0].Debit.Equal(dec("500.00")))
	assert.True(t, al.Lines[0].Balance.Equal(dec("500.00")))
	assert.True(t, al.Lines[1].Credit.Equal(dec("200.00")))
	assert.True(t, al.Lines[1].Balance.Equal(dec("300.00")))
	assert.True(t, al.ClosingBalance.Equal(dec("300.00")))
}

func TestAccountLedger_OpeningFromEarlierActivity(t *testing.T) {
	st := newTestStore(t)
	cash, _, _ := seedTradingMonth(t, st)

	// A February window sees January's net as its opening balance.
	al, err := st.AccountLedger(context.Background(), testCompany, cash.ID, date(2025, 2, 1), date(2025, 2, 28))
	require.NoError(t, err)
	assert.True(t, al.OpeningBalance.Equal(dec("300.00")), "opening %s", al.OpeningBalance)
	assert.Empty(t, al.Lines)
	assert.True(t, al.ClosingBalance.Equal(dec("300.00")))
}
