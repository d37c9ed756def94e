package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/shopspring/decimal"
)

// PostVoucher commits an approved voucher into the ledger as one atomic
// unit of work: period check, durable number assignment, balance
// increments, and the status flip all commit together or not at all.
// On any failure the voucher stays approved.
//
// Closing-type vouchers are exempt from the period-open check: the
// year-end close locks the final period first and then posts its
// closing voucher into it.
func (s *Store) PostVoucher(ctx context.Context, companyID, voucherID, actor string) (*ledger.Voucher, error) {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	v, err := postVoucherTx(ctx, tx, companyID, voucherID, actor)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

// ReverseVoucher creates a reversal voucher and posts it in one
// transaction, so a failed posting leaves no orphan reversal behind.
// The original must still be posted and not yet reversed at commit time.
func (s *Store) ReverseVoucher(ctx context.Context, rev *ledger.Voucher, actor string) (*ledger.Voucher, error) {
	if rev.ID == "" {
		rev.ID = uuid.Must(uuid.NewV7()).String()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	rev.Status = ledger.StatusApproved
	rev.TotalDebit, rev.TotalCredit = rev.Totals()

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orig, err := getVoucherTx(ctx, tx, rev.CompanyID, rev.ReversalOf)
	if err != nil {
		return nil, err
	}
	if orig.Status != ledger.StatusPosted {
		return nil, fmt.Errorf("%w: original is %s, not posted", ledger.ErrStatusConflict, orig.Status)
	}
	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vouchers WHERE reversal_of = ?`, rev.ReversalOf).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("check existing reversal: %w", err)
	}
	if existing > 0 {
		return nil, ledger.ErrAlreadyReversed
	}

	if err := createVoucherTx(ctx, tx, rev); err != nil {
		return nil, err
	}
	v, err := postVoucherTx(ctx, tx, rev.CompanyID, rev.ID, actor)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

func postVoucherTx(ctx context.Context, tx *sql.Tx, companyID, voucherID, actor string) (*ledger.Voucher, error) {
	v, err := getVoucherTx(ctx, tx, companyID, voucherID)
	if err != nil {
		return nil, err
	}
	if v.Status != ledger.StatusApproved {
		return nil, fmt.Errorf("%w: expected approved, currently %s", ledger.ErrStatusConflict, v.Status)
	}

	year, month := ledger.PeriodOf(v.Date)

	status, err := ensurePeriod(ctx, tx, companyID, year, month)
	if err != nil {
		return nil, err
	}
	if v.Type != ledger.VoucherClosing {
		if status == ledger.PeriodClosed {
			return nil, fmt.Errorf("%w: %04d-%02d", ledger.ErrPeriodClosed, year, month)
		}
		later, err := laterPeriodClosed(ctx, tx, companyID, year, month)
		if err != nil {
			return nil, err
		}
		if later {
			return nil, fmt.Errorf("%w: cannot backdate into %04d-%02d", ledger.ErrLaterPeriodClosed, year, month)
		}
	}

	no, err := nextVoucherNo(ctx, tx, companyID, v.Type, year, month)
	if err != nil {
		return nil, err
	}

	entries, err := getEntriesTx(ctx, tx, voucherID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if err := applyToBalance(ctx, tx, companyID, entries[i].AccountID, year, month,
			entries[i].Debit, entries[i].Credit); err != nil {
			return nil, err
		}
	}

	postedAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE vouchers SET status = 'posted', voucher_no = ?, posted_by = ?, posted_at = ?
		WHERE company_id = ? AND id = ? AND status = 'approved'`,
		no, actor, postedAt.Format(time.RFC3339Nano), companyID, voucherID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark posted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: voucher changed during posting", ledger.ErrStatusConflict)
	}

	v.Status = ledger.StatusPosted
	v.VoucherNo = no
	v.PostedBy = actor
	v.PostedAt = &postedAt
	v.Entries = entries
	return v, nil
}

// nextVoucherNo increments the durable per-(company, type, period)
// counter inside the posting transaction, so concurrent postings can
// neither duplicate nor skip numbers.
func nextVoucherNo(ctx context.Context, tx *sql.Tx, companyID string, vtype ledger.VoucherType, year, month int) (int64, error) {
	var no int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO voucher_sequences (company_id, voucher_type, fiscal_year, fiscal_month, next_no)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (company_id, voucher_type, fiscal_year, fiscal_month)
			DO UPDATE SET next_no = next_no + 1
		RETURNING next_no`,
		companyID, string(vtype), year, month).Scan(&no)
	if err != nil {
		return 0, fmt.Errorf("next voucher number: %w", err)
	}
	return no, nil
}

// applyToBalance adds one entry's amounts to the account's period
// balance row, creating it with the prior period's closing as opening if
// needed, and rolls the closing forward. Runs on the single writer
// connection inside the posting transaction, so the read-modify-write
// cannot race another posting.
func applyToBalance(ctx context.Context, tx *sql.Tx, companyID, accountID string, year, month int, debit, credit decimal.Decimal) error {
	var nature string
	err := tx.QueryRowContext(ctx,
		`SELECT nature FROM accounts WHERE company_id = ? AND id = ?`, companyID, accountID).Scan(&nature)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return fmt.Errorf("account nature: %w", err)
	}

	b, err := getBalanceTx(ctx, tx, companyID, accountID, year, month)
	if errors.Is(err, sql.ErrNoRows) {
		nb := ledger.LedgerBalance{CompanyID: companyID, AccountID: accountID, Year: year, Month: month}
		nb.OpeningDebit, nb.OpeningCredit, err = priorClosing(ctx, tx, companyID, accountID, year, month)
		if err != nil {
			return err
		}
		b = &nb
	} else if err != nil {
		return err
	}

	b.PeriodDebit = b.PeriodDebit.Add(debit)
	b.PeriodCredit = b.PeriodCredit.Add(credit)
	b.Roll(ledger.Nature(nature))

	return upsertBalance(ctx, tx, b)
}

// priorClosing finds the closing pair of the latest balance row before
// (year, month). Sparse coverage is fine: a gap of inactive periods
// carries the last closing forward unchanged.
func priorClosing(ctx context.Context, tx *sql.Tx, companyID, accountID string, year, month int) (debit, credit decimal.Decimal, err error) {
	var d, c string
	err = tx.QueryRowContext(ctx,
		`SELECT closing_debit, closing_credit FROM ledger_balances
		WHERE company_id = ? AND account_id = ? AND fiscal_year * 100 + fiscal_month < ?
		ORDER BY fiscal_year DESC, fiscal_month DESC LIMIT 1`,
		companyID, accountID, ledger.PeriodIndex(year, month)).Scan(&d, &c)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("prior closing: %w", err)
	}
	if debit, err = decimal.NewFromString(d); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse prior closing debit: %w", err)
	}
	if credit, err = decimal.NewFromString(c); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse prior closing credit: %w", err)
	}
	return debit, credit, nil
}

func upsertBalance(ctx context.Context, tx *sql.Tx, b *ledger.LedgerBalance) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_balances (company_id, account_id, fiscal_year, fiscal_month,
			opening_debit, opening_credit, period_debit, period_credit, closing_debit, closing_credit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, account_id, fiscal_year, fiscal_month) DO UPDATE SET
			opening_debit = excluded.opening_debit,
			opening_credit = excluded.opening_credit,
			period_debit = excluded.period_debit,
			period_credit = excluded.period_credit,
			closing_debit = excluded.closing_debit,
			closing_credit = excluded.closing_credit`,
		b.CompanyID, b.AccountID, b.Year, b.Month,
		b.OpeningDebit.String(), b.OpeningCredit.String(),
		b.PeriodDebit.String(), b.PeriodCredit.String(),
		b.ClosingDebit.String(), b.ClosingCredit.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// GetBalance returns the stored balance row for one account and period.
func (s *Store) GetBalance(ctx context.Context, companyID, accountID string, year, month int) (*ledger.LedgerBalance, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT company_id, account_id, fiscal_year, fiscal_month,
			opening_debit, opening_credit, period_debit, period_credit, closing_debit, closing_credit
		FROM ledger_balances
		WHERE company_id = ? AND account_id = ? AND fiscal_year = ? AND fiscal_month = ?`,
		companyID, accountID, year, month)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// RecalculateBalances rewrites opening/closing across every stored
// balance row of the company (optionally one account) in period order,
// carrying each closing into the next opening. Used after an audited
// retroactive correction.
func (s *Store) RecalculateBalances(ctx context.Context, companyID, accountID string) (int, error) {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT b.company_id, b.account_id, b.fiscal_year, b.fiscal_month,
			b.opening_debit, b.opening_credit, b.period_debit, b.period_credit,
			b.closing_debit, b.closing_credit, a.nature
		FROM ledger_balances b
		JOIN accounts a ON a.id = b.account_id
		WHERE b.company_id = ?`
	args := []any{companyID}
	if accountID != "" {
		query += ` AND b.account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY b.account_id, b.fiscal_year, b.fiscal_month`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("load balances: %w", err)
	}

	type balRow struct {
		bal    ledger.LedgerBalance
		nature ledger.Nature
	}
	var all []balRow
	for rows.Next() {
		var br balRow
		var od, oc, pd, pc, cd, cc, nature string
		if err := rows.Scan(&br.bal.CompanyID, &br.bal.AccountID, &br.bal.Year, &br.bal.Month,
			&od, &oc, &pd, &pc, &cd, &cc, &nature); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan balance: %w", err)
		}
		if br.bal, err = fillBalance(br.bal, od, oc, pd, pc, cd, cc); err != nil {
			rows.Close()
			return 0, err
		}
		br.nature = ledger.Nature(nature)
		all = append(all, br)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	var prevAccount string
	var carryDebit, carryCredit decimal.Decimal
	for i := range all {
		br := &all[i]
		if br.bal.AccountID != prevAccount {
			prevAccount = br.bal.AccountID
			carryDebit, carryCredit = decimal.Zero, decimal.Zero
		}
		br.bal.OpeningDebit, br.bal.OpeningCredit = carryDebit, carryCredit
		br.bal.Roll(br.nature)
		carryDebit, carryCredit = br.bal.ClosingDebit, br.bal.ClosingCredit

		if err := upsertBalance(ctx, tx, &br.bal); err != nil {
			return 0, err
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func getBalanceTx(ctx context.Context, tx *sql.Tx, companyID, accountID string, year, month int) (*ledger.LedgerBalance, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT company_id, account_id, fiscal_year, fiscal_month,
			opening_debit, opening_credit, period_debit, period_credit, closing_debit, closing_credit
		FROM ledger_balances
		WHERE company_id = ? AND account_id = ? AND fiscal_year = ? AND fiscal_month = ?`,
		companyID, accountID, year, month)
	return scanBalance(row)
}

func scanBalance(sc rowScanner) (*ledger.LedgerBalance, error) {
	var b ledger.LedgerBalance
	var od, oc, pd, pc, cd, cc string
	err := sc.Scan(&b.CompanyID, &b.AccountID, &b.Year, &b.Month, &od, &oc, &pd, &pc, &cd, &cc)
	if err != nil {
		return nil, err
	}
	if b, err = fillBalance(b, od, oc, pd, pc, cd, cc); err != nil {
		return nil, err
	}
	return &b, nil
}

func fillBalance(b ledger.LedgerBalance, od, oc, pd, pc, cd, cc string) (ledger.LedgerBalance, error) {
	var err error
	parse := func(s string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var d decimal.Decimal
		d, err = decimal.NewFromString(s)
		return d
	}
	b.OpeningDebit = parse(od)
	b.OpeningCredit = parse(oc)
	b.PeriodDebit = parse(pd)
	b.PeriodCredit = parse(pc)
	b.ClosingDebit = parse(cd)
	b.ClosingCredit = parse(cc)
	if err != nil {
		return b, fmt.Errorf("parse balance amounts: %w", err)
	}
	return b, nil
}

func getVoucherTx(ctx context.Context, tx *sql.Tx, companyID, id string) (*ledger.Voucher, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+voucherCols+` FROM vouchers WHERE company_id = ? AND id = ?`, companyID, id)
	return scanVoucher(row)
}

func getEntriesTx(ctx context.Context, tx *sql.Tx, voucherID string) ([]ledger.VoucherEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, voucher_id, line_no, account_id, debit, credit, description,
			partner, department, project, cost_center
		FROM voucher_entries WHERE voucher_id = ? ORDER BY line_no, id`, voucherID)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}
