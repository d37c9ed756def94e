package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/store"
)

const testCompany = "co1"

type testEnv struct {
	store    *store.Store
	accounts *AccountService
	vouchers *VoucherService
	closing  *ClosingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := zerolog.Nop()
	vouchers := NewVoucherService(st, log)
	return &testEnv{
		store:    st,
		accounts: NewAccountService(st, log),
		vouchers: vouchers,
		closing:  NewClosingService(st, vouchers, log),
	}
}

func (e *testEnv) account(t *testing.T, code, name string, typ ledger.AccountType) *ledger.Account {
	t.Helper()
	acct, err := e.accounts.CreateAccount(context.Background(), testCompany, CreateAccountRequest{
		Code: code, Name: name, Type: typ,
	})
	require.NoError(t, err)
	return acct
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

func twoLines(debitAcct, creditAcct, amount string) []EntryRequest {
	return []EntryRequest{
		{AccountID: debitAcct, Debit: dec(amount)},
		{AccountID: creditAcct, Credit: dec(amount)},
	}
}
