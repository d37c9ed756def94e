package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

func TestClosePeriod(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.ClosePeriod(ctx, testCompany, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, p.Status)
	require.NotNil(t, p.ClosedAt)

	got, err := st.GetPeriod(ctx, testCompany, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, got.Status)

	// Closing twice conflicts.
	_, err = st.ClosePeriod(ctx, testCompany, 2025, 3)
	assert.ErrorIs(t, err, ledger.ErrPeriodClosed)
}

func TestClosePeriod_BlockedByNonTerminalVouchers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	draft := &ledger.Voucher{
		CompanyID:   testCompany,
		Date:        date(2025, 3, 12),
		Type:        ledger.VoucherSales,
		Description: "unfinished work",
		Status:      ledger.StatusDraft,
		Entries: []ledger.VoucherEntry{
			{LineNo: 1, AccountID: cash.ID, Debit: dec("10")},
			{LineNo: 2, AccountID: sales.ID, Credit: dec("10")},
		},
	}
	require.NoError(t, st.CreateVoucher(ctx, draft))

	// An approved voucher is non-terminal too: it is still waiting to
	// post into the period.
	approved := approvedVoucher(t, st, date(2025, 3, 20), ledger.VoucherSales, cash.ID, sales.ID, "25.00")

	_, err := st.ClosePeriod(ctx, testCompany, 2025, 3)
	var blocked *ledger.CloseBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 2025, blocked.Year)
	assert.Equal(t, 3, blocked.Month)
	assert.ElementsMatch(t, []string{draft.ID, approved.ID}, blocked.VoucherIDs)

	// Resolve both blockers, then the close goes through.
	require.NoError(t, st.TransitionStatus(ctx, testCompany, draft.ID, ledger.StatusDraft, ledger.StatusCancelled, "amy"))
	_, err = st.PostVoucher(ctx, testCompany, approved.ID, "amy")
	require.NoError(t, err)

	_, err = st.ClosePeriod(ctx, testCompany, 2025, 3)
	assert.NoError(t, err)
}

func TestClosePeriod_VouchersOutsidePeriodIgnored(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	// Drafts in other months do not block March.
	for _, d := range []struct{ m, day int }{{2, 28}, {4, 1}} {
		v := &ledger.Voucher{
			CompanyID:   testCompany,
			Date:        date(2025, d.m, d.day),
			Type:        ledger.VoucherGeneral,
			Description: "other month",
			Status:      ledger.StatusDraft,
			Entries: []ledger.VoucherEntry{
				{LineNo: 1, AccountID: cash.ID, Debit: dec("10")},
				{LineNo: 2, AccountID: sales.ID, Credit: dec("10")},
			},
		}
		require.NoError(t, st.CreateVoucher(ctx, v))
	}

	_, err := st.ClosePeriod(ctx, testCompany, 2025, 3)
	assert.NoError(t, err)
}

func TestListPeriods(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	// Posting touches a period into existence; closing creates one too.
	v := approvedVoucher(t, st, date(2025, 2, 10), ledger.VoucherSales, cash.ID, sales.ID, "10.00")
	_, err := st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)
	_, err = st.ClosePeriod(ctx, testCompany, 2025, 1)
	require.NoError(t, err)

	periods, err := st.ListPeriods(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2025-01", periods[0].Name)
	assert.Equal(t, ledger.PeriodClosed, periods[0].Status)
	assert.Equal(t, "2025-02", periods[1].Name)
	assert.Equal(t, ledger.PeriodOpen, periods[1].Status)
}

func TestGetPeriod_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetPeriod(context.Background(), testCompany, 2025, 9)
	assert.ErrorIs(t, err, ledger.ErrPeriodNotFound)
}
