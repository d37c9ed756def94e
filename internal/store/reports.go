package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/shopspring/decimal"
)

// balanceAsOf is one account's effective balance at a period boundary:
// the stored row for the period itself, or the latest earlier row
// carried forward with no period movement.
type balanceAsOf struct {
	account ledger.Account
	bal     ledger.LedgerBalance
	direct  bool // row belongs to the requested period itself
}

// effectiveBalances resolves every account's balance at (year, month).
// Amount arithmetic happens in Go; SQLite only stores the decimal text.
func (s *Store) effectiveBalances(ctx context.Context, companyID string, year, month int) (map[string]*balanceAsOf, []ledger.Account, error) {
	accounts, err := s.ListAccounts(ctx, companyID, AccountFilter{})
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.reader.QueryContext(ctx,
		`SELECT company_id, account_id, fiscal_year, fiscal_month,
			opening_debit, opening_credit, period_debit, period_credit, closing_debit, closing_credit
		FROM ledger_balances
		WHERE company_id = ? AND fiscal_year * 100 + fiscal_month <= ?
		ORDER BY account_id, fiscal_year, fiscal_month`,
		companyID, ledger.PeriodIndex(year, month))
	if err != nil {
		return nil, nil, fmt.Errorf("load balances: %w", err)
	}
	defer rows.Close()

	acctByID := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		acctByID[a.ID] = a
	}

	out := make(map[string]*balanceAsOf)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan balance: %w", err)
		}
		acct, ok := acctByID[b.AccountID]
		if !ok {
			continue
		}
		// Rows are period-ordered, so the last row seen per account wins.
		out[b.AccountID] = &balanceAsOf{
			account: acct,
			bal:     *b,
			direct:  b.Year == year && b.Month == month,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// Carry earlier closings forward into the requested period.
	for _, eb := range out {
		if !eb.direct {
			eb.bal = ledger.LedgerBalance{
				CompanyID:     eb.bal.CompanyID,
				AccountID:     eb.bal.AccountID,
				Year:          year,
				Month:         month,
				OpeningDebit:  eb.bal.ClosingDebit,
				OpeningCredit: eb.bal.ClosingCredit,
				ClosingDebit:  eb.bal.ClosingDebit,
				ClosingCredit: eb.bal.ClosingCredit,
			}
		}
	}
	return out, accounts, nil
}

// TrialBalance builds the per-account trial balance for a period,
// with parent accounts as subtotal rows aggregating their subtree and a
// grand total over each account's own balance row (so subtree rollups
// are not double counted).
func (s *Store) TrialBalance(ctx context.Context, companyID string, year, month int) (*ledger.TrialBalance, error) {
	balances, accounts, err := s.effectiveBalances(ctx, companyID, year, month)
	if err != nil {
		return nil, err
	}

	hasChildren := make(map[string]bool)
	for _, a := range accounts {
		if a.ParentID != "" {
			hasChildren[a.ParentID] = true
		}
	}

	tb := &ledger.TrialBalance{
		CompanyID:   companyID,
		Year:        year,
		Month:       month,
		GeneratedAt: time.Now().UTC(),
	}

	for _, a := range accounts {
		line := ledger.TrialBalanceLine{
			AccountID:   a.ID,
			AccountCode: a.Code,
			AccountName: a.Name,
			Level:       a.Level,
			Subtotal:    hasChildren[a.ID],
		}
		// Aggregate every account in this account's subtree.
		empty := true
		for _, eb := range balances {
			if !ledger.PathContains(eb.account.Path, a.ID) {
				continue
			}
			line.OpeningDebit = line.OpeningDebit.Add(eb.bal.OpeningDebit)
			line.OpeningCredit = line.OpeningCredit.Add(eb.bal.OpeningCredit)
			line.PeriodDebit = line.PeriodDebit.Add(eb.bal.PeriodDebit)
			line.PeriodCredit = line.PeriodCredit.Add(eb.bal.PeriodCredit)
			line.ClosingDebit = line.ClosingDebit.Add(eb.bal.ClosingDebit)
			line.ClosingCredit = line.ClosingCredit.Add(eb.bal.ClosingCredit)
			empty = false
		}
		if empty {
			continue
		}
		tb.Lines = append(tb.Lines, line)
	}

	// Grand totals come from each account's own balance row, not the
	// rendered lines: a postable parent shows up only as a subtotal line,
	// but its direct movement still counts exactly once here.
	for _, eb := range balances {
		tb.TotalDebit = tb.TotalDebit.Add(eb.bal.PeriodDebit)
		tb.TotalCredit = tb.TotalCredit.Add(eb.bal.PeriodCredit)
	}

	tb.Balanced = ledger.WithinEpsilon(tb.TotalDebit, tb.TotalCredit)
	return tb, nil
}

// BalanceSheet reclassifies period-end closings by account type.
// CurrentEarnings carries the fiscal-year-to-date revenue/expense net
// that has not yet been swept to retained earnings.
func (s *Store) BalanceSheet(ctx context.Context, companyID string, asOf time.Time) (*ledger.BalanceSheet, error) {
	year, month := ledger.PeriodOf(asOf)
	balances, accounts, err := s.effectiveBalances(ctx, companyID, year, month)
	if err != nil {
		return nil, err
	}

	bs := &ledger.BalanceSheet{
		CompanyID:   companyID,
		AsOf:        asOf,
		GeneratedAt: time.Now().UTC(),
	}

	for _, a := range accounts {
		eb, ok := balances[a.ID]
		if !ok {
			continue
		}
		net := eb.bal.ClosingNet(a.Nature)
		if net.IsZero() {
			continue
		}
		line := ledger.StatementLine{
			AccountID:   a.ID,
			AccountCode: a.Code,
			AccountName: a.Name,
			Level:       a.Level,
			Amount:      net,
		}
		switch a.Type {
		case ledger.TypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(net)
		case ledger.TypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(net)
		case ledger.TypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(net)
		case ledger.TypeRevenue:
			bs.CurrentEarnings = bs.CurrentEarnings.Add(net)
		case ledger.TypeExpense:
			bs.CurrentEarnings = bs.CurrentEarnings.Sub(net)
		}
	}

	bs.Balanced = ledger.WithinEpsilon(bs.TotalAssets,
		bs.TotalLiabilities.Add(bs.TotalEquity).Add(bs.CurrentEarnings))
	return bs, nil
}

// IncomeStatement sums period movements of revenue and expense accounts
// over an inclusive period range derived from the date range.
func (s *Store) IncomeStatement(ctx context.Context, companyID string, from, to time.Time) (*ledger.IncomeStatement, error) {
	fromIdx := ledger.PeriodIndex(ledger.PeriodOf(from))
	toIdx := ledger.PeriodIndex(ledger.PeriodOf(to))

	accounts, err := s.ListAccounts(ctx, companyID, AccountFilter{})
	if err != nil {
		return nil, err
	}
	acctByID := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		acctByID[a.ID] = a
	}

	rows, err := s.reader.QueryContext(ctx,
		`SELECT company_id, account_id, fiscal_year, fiscal_month,
			opening_debit, opening_credit, period_debit, period_credit, closing_debit, closing_credit
		FROM ledger_balances
		WHERE company_id = ? AND fiscal_year * 100 + fiscal_month BETWEEN ? AND ?`,
		companyID, fromIdx, toIdx)
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	defer rows.Close()

	movement := make(map[string]decimal.Decimal)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		acct, ok := acctByID[b.AccountID]
		if !ok || (acct.Type != ledger.TypeRevenue && acct.Type != ledger.TypeExpense) {
			continue
		}
		net := ledger.Net(acct.Nature, b.PeriodDebit, b.PeriodCredit)
		movement[b.AccountID] = movement[b.AccountID].Add(net)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	is := &ledger.IncomeStatement{
		CompanyID:   companyID,
		FromDate:    from,
		ToDate:      to,
		GeneratedAt: time.Now().UTC(),
	}
	for _, a := range accounts {
		net, ok := movement[a.ID]
		if !ok || net.IsZero() {
			continue
		}
		line := ledger.StatementLine{
			AccountID:   a.ID,
			AccountCode: a.Code,
			AccountName: a.Name,
			Level:       a.Level,
			Amount:      net,
		}
		switch a.Type {
		case ledger.TypeRevenue:
			is.Revenue = append(is.Revenue, line)
			is.TotalRevenue = is.TotalRevenue.Add(net)
		case ledger.TypeExpense:
			is.Expenses = append(is.Expenses, line)
			is.TotalExpense = is.TotalExpense.Add(net)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpense)
	return is, nil
}

// AccountLedger lists one account's posted movements in a date range
// with a running nature-signed balance.
func (s *Store) AccountLedger(ctx context.Context, companyID, accountID string, from, to time.Time) (*ledger.AccountLedger, error) {
	acct, err := s.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}

	al := &ledger.AccountLedger{
		AccountID:   acct.ID,
		AccountCode: acct.Code,
		AccountName: acct.Name,
		FromDate:    from,
		ToDate:      to,
	}

	// Opening balance: every posted movement strictly before the range.
	rows, err := s.reader.QueryContext(ctx,
		`SELECT e.debit, e.credit FROM voucher_entries e
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE v.company_id = ? AND e.account_id = ? AND v.status = 'posted' AND v.date < ?`,
		companyID, accountID, from.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("opening balance: %w", err)
	}
	for rows.Next() {
		var d, c string
		if err := rows.Scan(&d, &c); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		debit, err := decimal.NewFromString(d)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse debit: %w", err)
		}
		credit, err := decimal.NewFromString(c)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse credit: %w", err)
		}
		al.OpeningBalance = al.OpeningBalance.Add(ledger.Net(acct.Nature, debit, credit))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.reader.QueryContext(ctx,
		`SELECT v.id, v.voucher_no, v.type, v.date, e.description, v.description, e.debit, e.credit
		FROM voucher_entries e
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE v.company_id = ? AND e.account_id = ? AND v.status = 'posted' AND v.date >= ? AND v.date <= ?
		ORDER BY v.date, v.voucher_no, e.line_no`,
		companyID, accountID,
		from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("account ledger: %w", err)
	}
	defer rows.Close()

	running := al.OpeningBalance
	for rows.Next() {
		var line ledger.AccountLedgerLine
		var date, entryDesc, voucherDesc, d, c string
		if err := rows.Scan(&line.VoucherID, &line.VoucherNo, &line.VoucherType, &date,
			&entryDesc, &voucherDesc, &d, &c); err != nil {
			return nil, fmt.Errorf("scan ledger line: %w", err)
		}
		line.Date, _ = time.Parse(time.RFC3339Nano, date)
		line.Description = entryDesc
		if line.Description == "" {
			line.Description = voucherDesc
		}
		if line.Debit, err = decimal.NewFromString(d); err != nil {
			return nil, fmt.Errorf("parse debit: %w", err)
		}
		if line.Credit, err = decimal.NewFromString(c); err != nil {
			return nil, fmt.Errorf("parse credit: %w", err)
		}
		running = running.Add(ledger.Net(acct.Nature, line.Debit, line.Credit))
		line.Balance = running
		al.Lines = append(al.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	al.ClosingBalance = running
	return al, nil
}
