package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

const testCompany = "co1"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func mkAccount(t *testing.T, st *Store, code, name string, typ ledger.AccountType, parentID string) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{
		CompanyID:          testCompany,
		Code:               code,
		Name:               name,
		ParentID:           parentID,
		Type:               typ,
		Nature:             ledger.NatureFor(typ),
		AllowDirectPosting: true,
		Active:             true,
	}
	require.NoError(t, st.CreateAccount(context.Background(), acct))
	return acct
}

func mkControlAccount(t *testing.T, st *Store, code, name string, typ ledger.AccountType, parentID string) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{
		CompanyID:        testCompany,
		Code:             code,
		Name:             name,
		ParentID:         parentID,
		Type:             typ,
		Nature:           ledger.NatureFor(typ),
		IsControlAccount: true,
		Active:           true,
	}
	require.NoError(t, st.CreateAccount(context.Background(), acct))
	return acct
}

// approvedVoucher saves a two-line balanced voucher already in approved
// status, ready for posting.
func approvedVoucher(t *testing.T, st *Store, d time.Time, vtype ledger.VoucherType, debitAcct, creditAcct, amount string) *ledger.Voucher {
	t.Helper()
	v := &ledger.Voucher{
		CompanyID:   testCompany,
		Date:        d,
		Type:        vtype,
		Description: "test voucher",
		Status:      ledger.StatusApproved,
		Entries: []ledger.VoucherEntry{
			{LineNo: 1, AccountID: debitAcct, Debit: dec(amount)},
			{LineNo: 2, AccountID: creditAcct, Credit: dec(amount)},
		},
	}
	require.NoError(t, st.CreateVoucher(context.Background(), v))
	return v
}

func TestOpenMigrates(t *testing.T) {
	st := newTestStore(t)

	// Migrations are idempotent: a second open on the same file succeeds.
	var version int
	err := st.reader.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	require.NoError(t, err)
	require.GreaterOrEqual(t, version, 1)
}

func TestPostedVoucherImmutable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cash := mkAccount(t, st, "1010", "Cash", ledger.TypeAsset, "")
	rev := mkAccount(t, st, "4010", "Sales", ledger.TypeRevenue, "")
	v := approvedVoucher(t, st, date(2025, 1, 15), ledger.VoucherSales, cash.ID, rev.ID, "100.00")
	_, err := st.PostVoucher(ctx, testCompany, v.ID, "amy")
	require.NoError(t, err)

	// The immutability triggers refuse any mutation of a posted voucher
	// or its lines outside the sanctioned status columns.
	_, err = st.writer.ExecContext(ctx,
		`UPDATE vouchers SET description = 'tampered' WHERE id = ?`, v.ID)
	require.Error(t, err)

	_, err = st.writer.ExecContext(ctx,
		`UPDATE voucher_entries SET debit = '999' WHERE voucher_id = ?`, v.ID)
	require.Error(t, err)

	_, err = st.writer.ExecContext(ctx,
		`DELETE FROM voucher_entries WHERE voucher_id = ?`, v.ID)
	require.Error(t, err)
}
