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

const voucherCols = `id, company_id, voucher_no, date, type, description, reference, status,
	total_debit, total_credit, COALESCE(reversal_of, ''),
	created_by, created_at, submitted_by, submitted_at, approved_by, approved_at, posted_by, posted_at`

// CreateVoucher persists a voucher and its entry lines in one
// transaction. Totals are computed from the lines on every write.
func (s *Store) CreateVoucher(ctx context.Context, v *ledger.Voucher) error {
	if v.ID == "" {
		v.ID = uuid.Must(uuid.NewV7()).String()
	}
	if v.Status == "" {
		v.Status = ledger.StatusDraft
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.TotalDebit, v.TotalCredit = v.Totals()

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := createVoucherTx(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

func createVoucherTx(ctx context.Context, tx *sql.Tx, v *ledger.Voucher) error {
	var reversalOf any
	if v.ReversalOf != "" {
		reversalOf = v.ReversalOf
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO vouchers (id, company_id, date, type, description, reference, status,
			total_debit, total_credit, reversal_of, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CompanyID, v.Date.UTC().Format(time.RFC3339Nano), string(v.Type),
		v.Description, v.Reference, string(v.Status),
		v.TotalDebit.String(), v.TotalCredit.String(), reversalOf,
		v.CreatedBy, v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert voucher: %w", err)
	}

	return insertEntries(ctx, tx, v)
}

// ReplaceEntries rewrites a draft voucher's header fields and lines.
func (s *Store) ReplaceEntries(ctx context.Context, v *ledger.Voucher) error {
	v.TotalDebit, v.TotalCredit = v.Totals()

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE vouchers SET date = ?, description = ?, reference = ?, total_debit = ?, total_credit = ?
		WHERE company_id = ? AND id = ? AND status = 'draft'`,
		v.Date.UTC().Format(time.RFC3339Nano), v.Description, v.Reference,
		v.TotalDebit.String(), v.TotalCredit.String(), v.CompanyID, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return voucherConflict(ctx, tx, v.CompanyID, v.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM voucher_entries WHERE voucher_id = ?`, v.ID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if err := insertEntries(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteVoucher removes a voucher in a removable state (draft, rejected,
// or cancelled) together with its lines.
func (s *Store) DeleteVoucher(ctx context.Context, companyID, id string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM voucher_entries WHERE voucher_id IN (
			SELECT id FROM vouchers WHERE company_id = ? AND id = ? AND status IN ('draft','rejected','cancelled'))`,
		companyID, id); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM vouchers WHERE company_id = ? AND id = ? AND status IN ('draft','rejected','cancelled')`,
		companyID, id)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return voucherConflict(ctx, tx, companyID, id)
	}
	return tx.Commit()
}

// actorField maps a target status to the audit columns it stamps.
func actorField(to ledger.VoucherStatus) (byCol, atCol string) {
	switch to {
	case ledger.StatusPending:
		return "submitted_by", "submitted_at"
	case ledger.StatusApproved, ledger.StatusRejected:
		return "approved_by", "approved_at"
	default:
		return "", ""
	}
}

// TransitionStatus moves a voucher from an expected prior status to a new
// one as a single compare-and-swap. A zero-row update means either the
// voucher is gone (NotFound) or a concurrent transition won (conflict).
func (s *Store) TransitionStatus(ctx context.Context, companyID, id string, from, to ledger.VoucherStatus, actor string) error {
	if !ledger.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ledger.ErrIllegalTransition, from, to)
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE vouchers SET status = ?`
	args := []any{string(to)}
	if byCol, atCol := actorField(to); byCol != "" {
		query += fmt.Sprintf(`, %s = ?, %s = ?`, byCol, atCol)
		args = append(args, actor, now())
	}
	query += ` WHERE company_id = ? AND id = ? AND status = ?`
	args = append(args, companyID, id, string(from))

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition voucher: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return voucherConflict(ctx, tx, companyID, id)
	}
	return tx.Commit()
}

func (s *Store) GetVoucher(ctx context.Context, companyID, id string) (*ledger.Voucher, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+voucherCols+` FROM vouchers WHERE company_id = ? AND id = ?`, companyID, id)
	v, err := scanVoucher(row)
	if err != nil {
		return nil, err
	}

	entries, err := s.getEntriesForVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Entries = entries

	// Derived reverse lookup: the reversal owns the link.
	var reversedBy string
	err = s.reader.QueryRowContext(ctx,
		`SELECT id FROM vouchers WHERE reversal_of = ?`, id).Scan(&reversedBy)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reversal lookup: %w", err)
	}
	v.ReversedBy = reversedBy

	return v, nil
}

func (s *Store) ListVouchers(ctx context.Context, companyID string, filter VoucherFilter) ([]ledger.Voucher, error) {
	query := `SELECT ` + voucherCols + ` FROM vouchers WHERE company_id = ?`
	args := []any{companyID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if !filter.DateFrom.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.DateFrom.UTC().Format(time.RFC3339Nano))
	}
	if !filter.DateTo.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.DateTo.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY date DESC, created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []ledger.Voucher
	for rows.Next() {
		v, err := scanVoucherRow(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range vouchers {
		entries, err := s.getEntriesForVoucher(ctx, vouchers[i].ID)
		if err != nil {
			return nil, err
		}
		vouchers[i].Entries = entries
	}
	return vouchers, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, v *ledger.Voucher) error {
	for i := range v.Entries {
		e := &v.Entries[i]
		e.VoucherID = v.ID
		if e.LineNo == 0 {
			e.LineNo = i + 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO voucher_entries (voucher_id, line_no, account_id, debit, credit,
				description, partner, department, project, cost_center)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, e.LineNo, e.AccountID, e.Debit.String(), e.Credit.String(),
			e.Description, e.Partner, e.Department, e.Project, e.CostCenter,
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) getEntriesForVoucher(ctx context.Context, voucherID string) ([]ledger.VoucherEntry, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, voucher_id, line_no, account_id, debit, credit, description,
			partner, department, project, cost_center
		FROM voucher_entries WHERE voucher_id = ? ORDER BY line_no, id`, voucherID)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]ledger.VoucherEntry, error) {
	var entries []ledger.VoucherEntry
	for rows.Next() {
		var e ledger.VoucherEntry
		var debit, credit string
		if err := rows.Scan(&e.ID, &e.VoucherID, &e.LineNo, &e.AccountID, &debit, &credit,
			&e.Description, &e.Partner, &e.Department, &e.Project, &e.CostCenter); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var err error
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parse debit: %w", err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parse credit: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanVoucherFields(sc rowScanner) (*ledger.Voucher, error) {
	var v ledger.Voucher
	var date, createdAt, totalDebit, totalCredit string
	var submittedAt, approvedAt, postedAt sql.NullString
	err := sc.Scan(&v.ID, &v.CompanyID, &v.VoucherNo, &date, &v.Type, &v.Description, &v.Reference,
		&v.Status, &totalDebit, &totalCredit, &v.ReversalOf,
		&v.CreatedBy, &createdAt, &v.SubmittedBy, &submittedAt,
		&v.ApprovedBy, &approvedAt, &v.PostedBy, &postedAt)
	if err != nil {
		return nil, err
	}
	v.Date, _ = time.Parse(time.RFC3339Nano, date)
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	v.SubmittedAt = parseNullTime(submittedAt)
	v.ApprovedAt = parseNullTime(approvedAt)
	v.PostedAt = parseNullTime(postedAt)
	if v.TotalDebit, err = decimal.NewFromString(totalDebit); err != nil {
		return nil, fmt.Errorf("parse total debit: %w", err)
	}
	if v.TotalCredit, err = decimal.NewFromString(totalCredit); err != nil {
		return nil, fmt.Errorf("parse total credit: %w", err)
	}
	return &v, nil
}

func scanVoucher(row *sql.Row) (*ledger.Voucher, error) {
	v, err := scanVoucherFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan voucher: %w", err)
	}
	return v, nil
}

func scanVoucherRow(rows *sql.Rows) (*ledger.Voucher, error) {
	v, err := scanVoucherFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scan voucher row: %w", err)
	}
	return v, nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// voucherConflict distinguishes a missing voucher from a concurrent
// status change after a zero-row CAS update.
func voucherConflict(ctx context.Context, tx *sql.Tx, companyID, id string) error {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM vouchers WHERE company_id = ? AND id = ?`, companyID, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrVoucherNotFound
	}
	if err != nil {
		return fmt.Errorf("check voucher status: %w", err)
	}
	return fmt.Errorf("%w: currently %s", ledger.ErrStatusConflict, status)
}
