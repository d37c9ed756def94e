package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

func draftVoucher(t *testing.T, st *Store, debitAcct, creditAcct, amount string) *ledger.Voucher {
	t.Helper()
	v := &ledger.Voucher{
		CompanyID:   testCompany,
		Date:        date(2025, 1, 15),
		Type:        ledger.VoucherGeneral,
		Description: "draft",
		Status:      ledger.StatusDraft,
		Entries: []ledger.VoucherEntry{
			{LineNo: 1, AccountID: debitAcct, Debit: dec(amount)},
			{LineNo: 2, AccountID: creditAcct, Credit: dec(amount)},
		},
	}
	require.NoError(t, st.CreateVoucher(context.Background(), v))
	return v
}

func TestCreateVoucherComputesTotals(t *testing.T) {
	st := newTestStore(t)

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")

	got, err := st.GetVoucher(context.Background(), testCompany, v.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalDebit.Equal(dec("75.00")))
	assert.True(t, got.TotalCredit.Equal(dec("75.00")))
	assert.Equal(t, ledger.StatusDraft, got.Status)
	assert.Zero(t, got.VoucherNo)
	require.Len(t, got.Entries, 2)
}

func TestReplaceEntries_DraftOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")

	v.Description = "rewritten"
	v.Entries = []ledger.VoucherEntry{
		{LineNo: 1, AccountID: cash.ID, Debit: dec("120.00")},
		{LineNo: 2, AccountID: sales.ID, Credit: dec("120.00")},
	}
	require.NoError(t, st.ReplaceEntries(ctx, v))

	got, err := st.GetVoucher(ctx, testCompany, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Description)
	assert.True(t, got.TotalDebit.Equal(dec("120.00")))

	// Once out of draft the rewrite CAS misses.
	require.NoError(t, st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusDraft, ledger.StatusPending, "amy"))
	err = st.ReplaceEntries(ctx, v)
	assert.ErrorIs(t, err, ledger.ErrStatusConflict)
}

func TestTransitionStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")

	require.NoError(t, st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusDraft, ledger.StatusPending, "amy"))
	require.NoError(t, st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusPending, ledger.StatusApproved, "bob"))

	got, err := st.GetVoucher(ctx, testCompany, v.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, got.Status)
	assert.Equal(t, "amy", got.SubmittedBy)
	require.NotNil(t, got.SubmittedAt)
	assert.Equal(t, "bob", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
}

func TestTransitionStatus_Illegal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")

	err := st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusDraft, ledger.StatusApproved, "amy")
	assert.ErrorIs(t, err, ledger.ErrIllegalTransition)
}

func TestTransitionStatus_StaleCAS(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")

	require.NoError(t, st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusDraft, ledger.StatusCancelled, "amy"))

	// A second actor still holding the draft view loses the race.
	err := st.TransitionStatus(ctx, testCompany, v.ID, ledger.StatusDraft, ledger.StatusPending, "bob")
	assert.ErrorIs(t, err, ledger.ErrStatusConflict)

	err = st.TransitionStatus(ctx, testCompany, "missing", ledger.StatusDraft, ledger.StatusPending, "bob")
	assert.ErrorIs(t, err, ledger.ErrVoucherNotFound)
}

func TestDeleteVoucher(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	v := draftVoucher(t, st, cash.ID, sales.ID, "75.00")
	require.NoError(t, st.DeleteVoucher(ctx, testCompany, v.ID))
	_, err := st.GetVoucher(ctx, testCompany, v.ID)
	assert.ErrorIs(t, err, ledger.ErrVoucherNotFound)

	// Posted vouchers are not deletable.
	pv := approvedVoucher(t, st, date(2025, 1, 10), ledger.VoucherSales, cash.ID, sales.ID, "20.00")
	_, err = st.PostVoucher(ctx, testCompany, pv.ID, "amy")
	require.NoError(t, err)
	err = st.DeleteVoucher(ctx, testCompany, pv.ID)
	assert.ErrorIs(t, err, ledger.ErrStatusConflict)
}

func TestListVouchers_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	draftVoucher(t, st, cash.ID, sales.ID, "10.00")
	pv := approvedVoucher(t, st, date(2025, 2, 10), ledger.VoucherSales, cash.ID, sales.ID, "20.00")
	_, err := st.PostVoucher(ctx, testCompany, pv.ID, "amy")
	require.NoError(t, err)

	posted, err := st.ListVouchers(ctx, testCompany, VoucherFilter{Status: ledger.StatusPosted})
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Equal(t, pv.ID, posted[0].ID)
	require.Len(t, posted[0].Entries, 2)

	feb, err := st.ListVouchers(ctx, testCompany, VoucherFilter{
		DateFrom: date(2025, 2, 1),
		DateTo:   date(2025, 2, 28),
	})
	require.NoError(t, err)
	require.Len(t, feb, 1)

	all, err := st.ListVouchers(ctx, testCompany, VoucherFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := st.ListVouchers(ctx, "other-co", VoucherFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
