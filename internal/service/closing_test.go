package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

// postVoucher walks a balanced two-line voucher through the full
// lifecycle to posted.
func postVoucher(t *testing.T, env *testEnv, d time.Time, vtype ledger.VoucherType, debitAcct, creditAcct, amount string) *ledger.Voucher {
	t.Helper()
	ctx := context.Background()

	v, err := env.vouchers.CreateVoucher(ctx, testCompany, "amy", CreateVoucherRequest{
		Date:        d,
		Type:        vtype,
		Description: "test voucher",
		Entries:     twoLines(debitAcct, creditAcct, amount),
	})
	require.NoError(t, err)
	_, err = env.vouchers.Submit(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)
	_, err = env.vouchers.Approve(ctx, testCompany, v.ID, "bob")
	require.NoError(t, err)
	posted, err := env.vouchers.Post(ctx, testCompany, v.ID, "bob")
	require.NoError(t, err)
	return posted
}

func TestYearEndClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := env.account(t, "1010", "Cash", ledger.TypeAsset)
	sales := env.account(t, "4010", "Sales", ledger.TypeRevenue)
	rent := env.account(t, "5030", "Rent", ledger.TypeExpense)
	re := env.account(t, "3020", "Retained Earnings", ledger.TypeEquity)

	postVoucher(t, env, date(2025, 3, 10), ledger.VoucherSales, cash.ID, sales.ID, "500.00")
	postVoucher(t, env, date(2025, 6, 15), ledger.VoucherPayment, rent.ID, cash.ID, "200.00")

	closing, err := env.closing.YearEndClose(ctx, testCompany, 2025, re.ID, "amy")
	require.NoError(t, err)
	assert.Equal(t, ledger.VoucherClosing, closing.Type)
	assert.Equal(t, ledger.StatusPosted, closing.Status)
	assert.True(t, closing.Date.Equal(date(2025, 12, 31)))

	// December is locked.
	p, err := env.closing.GetPeriod(ctx, testCompany, 2025, 12)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, p.Status)

	// Revenue and expense balances are zeroed; the net lands in retained
	// earnings. Asset balances carry over untouched.
	salesBal, err := env.store.GetBalance(ctx, testCompany, sales.ID, 2025, 12)
	require.NoError(t, err)
	assert.True(t, salesBal.ClosingNet(ledger.NatureCredit).IsZero())

	rentBal, err := env.store.GetBalance(ctx, testCompany, rent.ID, 2025, 12)
	require.NoError(t, err)
	assert.True(t, rentBal.ClosingNet(ledger.NatureDebit).IsZero())

	reBal, err := env.store.GetBalance(ctx, testCompany, re.ID, 2025, 12)
	require.NoError(t, err)
	assert.True(t, reBal.ClosingNet(ledger.NatureCredit).Equal(dec("300.00")),
		"retained earnings %s", reBal.ClosingNet(ledger.NatureCredit))

	cashBal, err := env.store.GetBalance(ctx, testCompany, cash.ID, 2025, 6)
	require.NoError(t, err)
	assert.True(t, cashBal.ClosingNet(ledger.NatureDebit).Equal(dec("300.00")))
}

func TestYearEndClose_RequiresPostableEquity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := env.account(t, "1010", "Cash", ledger.TypeAsset)
	_, err := env.closing.YearEndClose(ctx, testCompany, 2025, cash.ID, "amy")
	assert.ErrorIs(t, err, ledger.ErrNotEquityAccount)

	control, err := env.accounts.CreateAccount(ctx, testCompany, CreateAccountRequest{
		Code: "3000", Name: "Equity", Type: ledger.TypeEquity, IsControlAccount: true,
	})
	require.NoError(t, err)
	_, err = env.closing.YearEndClose(ctx, testCompany, 2025, control.ID, "amy")
	assert.ErrorIs(t, err, ledger.ErrControlAccountEntry)
}

func TestYearEndClose_NothingToClose(t *testing.T) {
	env := newTestEnv(t)

	re := env.account(t, "3020", "Retained Earnings", ledger.TypeEquity)
	_, err := env.closing.YearEndClose(context.Background(), testCompany, 2025, re.ID, "amy")
	assert.ErrorIs(t, err, ledger.ErrNoEntries)
}

func TestYearEndClose_FinalPeriodAlreadyClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := env.account(t, "1010", "Cash", ledger.TypeAsset)
	sales := env.account(t, "4010", "Sales", ledger.TypeRevenue)
	re := env.account(t, "3020", "Retained Earnings", ledger.TypeEquity)
	postVoucher(t, env, date(2025, 3, 10), ledger.VoucherSales, cash.ID, sales.ID, "500.00")

	_, err := env.closing.ClosePeriod(ctx, testCompany, 2025, 12)
	require.NoError(t, err)

	// An already-closed December does not block the year-end run; the
	// closing voucher is exempt from the period lock.
	closing, err := env.closing.YearEndClose(ctx, testCompany, 2025, re.ID, "amy")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, closing.Status)
}
