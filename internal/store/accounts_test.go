package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

func TestCreateAccountHierarchy(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	root := mkControlAccount(t, st, "1000", "Current Assets", ledger.TypeAsset, "")
	child := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, root.ID)

	assert.Equal(t, 1, root.Level)
	assert.Equal(t, "/"+root.ID+"/", root.Path)
	assert.Equal(t, 2, child.Level)
	assert.Equal(t, root.Path+child.ID+"/", child.Path)

	got, err := st.GetAccountByCode(ctx, testCompany, "1010")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)
	assert.Equal(t, root.ID, got.ParentID)
}

func TestCreateAccount_DuplicateCode(t *testing.T) {
	st := newTestStore(t)

	mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	dup := &ledger.Account{
		CompanyID:          testCompany,
		Code:               "1010",
		Name:               "Petty Cash",
		Type:               ledger.TypeAsset,
		Nature:             ledger.NatureDebit,
		AllowDirectPosting: true,
		Active:             true,
	}
	err := st.CreateAccount(context.Background(), dup)
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)

	// Same code in another company is fine.
	other := &ledger.Account{
		CompanyID:          "co2",
		Code:               "1010",
		Name:               "Cash",
		Type:               ledger.TypeAsset,
		Nature:             ledger.NatureDebit,
		AllowDirectPosting: true,
		Active:             true,
	}
	assert.NoError(t, st.CreateAccount(context.Background(), other))
}

func TestGetAccount_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetAccount(context.Background(), testCompany, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestListAccounts_TreeOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assets := mkControlAccount(t, st, "1000", "Assets", ledger.TypeAsset, "")
	mkAccount(t, st, "1020", "Bank", ledger.TypeAsset, assets.ID)
	mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, assets.ID)
	mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")

	all, err := st.ListAccounts(ctx, testCompany, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Children directly follow their parent in path order.
	assert.Equal(t, "1000", all[0].Code)

	revOnly, err := st.ListAccounts(ctx, testCompany, AccountFilter{Type: ledger.TypeRevenue})
	require.NoError(t, err)
	require.Len(t, revOnly, 1)
	assert.Equal(t, "4010", revOnly[0].Code)
}

func TestReorderAccounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	parent := mkControlAccount(t, st, "1000", "Assets", ledger.TypeAsset, "")
	a := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, parent.ID)
	b := mkAccount(t, st, "1020", "Bank", ledger.TypeAsset, parent.ID)

	require.NoError(t, st.ReorderAccounts(ctx, testCompany, []string{b.ID, a.ID}))

	all, err := st.ListAccounts(ctx, testCompany, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1020", all[1].Code)
	assert.Equal(t, "1010", all[2].Code)
}

func TestMoveAccount_Subtree(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	oldParent := mkControlAccount(t, st, "1000", "Current Assets", ledger.TypeAsset, "")
	newParent := mkControlAccount(t, st, "1500", "Fixed Assets", ledger.TypeAsset, "")
	node := mkControlAccount(t, st, "1100", "Equipment", ledger.TypeAsset, oldParent.ID)
	leaf := mkAccount(t, st, "1110", "Laptops", ledger.TypeAsset, node.ID)

	require.NoError(t, st.MoveAccount(ctx, testCompany, node.ID, newParent.ID))

	moved, err := st.GetAccount(ctx, testCompany, node.ID)
	require.NoError(t, err)
	assert.Equal(t, newParent.ID, moved.ParentID)
	assert.Equal(t, newParent.Path+node.ID+"/", moved.Path)
	assert.Equal(t, 2, moved.Level)

	// The descendant follows without being touched directly.
	movedLeaf, err := st.GetAccount(ctx, testCompany, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, moved.Path+leaf.ID+"/", movedLeaf.Path)
	assert.Equal(t, 3, movedLeaf.Level)
}

func TestMoveAccount_ToRoot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	parent := mkControlAccount(t, st, "1000", "Assets", ledger.TypeAsset, "")
	child := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, parent.ID)

	require.NoError(t, st.MoveAccount(ctx, testCompany, child.ID, ""))

	moved, err := st.GetAccount(ctx, testCompany, child.ID)
	require.NoError(t, err)
	assert.Empty(t, moved.ParentID)
	assert.Equal(t, 1, moved.Level)
	assert.Equal(t, "/"+child.ID+"/", moved.Path)
}

func TestMoveAccount_CycleRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := mkControlAccount(t, st, "1000", "A", ledger.TypeAsset, "")
	b := mkControlAccount(t, st, "1100", "B", ledger.TypeAsset, a.ID)
	c := mkAccount(t, st, "1110", "C", ledger.TypeAsset, b.ID)

	// Under a descendant, and under self.
	assert.ErrorIs(t, st.MoveAccount(ctx, testCompany, a.ID, c.ID), ledger.ErrMoveCreatesCycle)
	assert.ErrorIs(t, st.MoveAccount(ctx, testCompany, a.ID, a.ID), ledger.ErrMoveCreatesCycle)
}

func TestDeleteAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acct := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	require.NoError(t, st.DeleteAccount(ctx, testCompany, acct.ID))

	_, err := st.GetAccount(ctx, testCompany, acct.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestDeleteAccount_BlockedByChildren(t *testing.T) {
	st := newTestStore(t)

	parent := mkControlAccount(t, st, "1000", "Assets", ledger.TypeAsset, "")
	mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, parent.ID)
	mkAccount(t, st, "1020", "Bank", ledger.TypeAsset, parent.ID)

	err := st.DeleteAccount(context.Background(), testCompany, parent.ID)
	var blocked *ledger.DeleteBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"1010", "1020"}, blocked.ChildCodes)
}

func TestDeleteAccount_BlockedByPostedEntries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	sales := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := approvedVoucher(t, st, date(2025, 1, 10), ledger.VoucherSales, cash.ID, sales.ID, "50.00")
	_, err := st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)

	err = st.DeleteAccount(ctx, testCompany, cash.ID)
	var blocked *ledger.DeleteBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.PostedCount)
}

func TestUpdateAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acct := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	acct.Name = "Cash on Hand"
	acct.Active = false
	require.NoError(t, st.UpdateAccount(ctx, acct))

	got, err := st.GetAccount(ctx, testCompany, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cash on Hand", got.Name)
	assert.False(t, got.Active)
}
