package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

// ensurePeriod lazily creates the fiscal period row as open on first
// touch and returns its status. The period row is the serialization
// point between posting and closing.
func ensurePeriod(ctx context.Context, tx *sql.Tx, companyID string, year, month int) (ledger.PeriodStatus, error) {
	p := ledger.NewPeriod(companyID, year, month)
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO fiscal_periods (company_id, fiscal_year, fiscal_month, name, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, 'open')`,
		companyID, year, month, p.Name,
		p.StartDate.Format(time.RFC3339Nano), p.EndDate.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("ensure period: %w", err)
	}

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM fiscal_periods WHERE company_id = ? AND fiscal_year = ? AND fiscal_month = ?`,
		companyID, year, month).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("read period status: %w", err)
	}
	return ledger.PeriodStatus(status), nil
}

// laterPeriodClosed reports whether any period after (year, month) is
// already closed, which freezes all earlier periods against backdated
// posting.
func laterPeriodClosed(ctx context.Context, tx *sql.Tx, companyID string, year, month int) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fiscal_periods
		WHERE company_id = ? AND status = 'closed' AND fiscal_year * 100 + fiscal_month > ?`,
		companyID, ledger.PeriodIndex(year, month)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check later periods: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetPeriod(ctx context.Context, companyID string, year, month int) (*ledger.FiscalPeriod, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT company_id, fiscal_year, fiscal_month, name, start_date, end_date, status, closed_at
		FROM fiscal_periods WHERE company_id = ? AND fiscal_year = ? AND fiscal_month = ?`,
		companyID, year, month)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, companyID string) ([]ledger.FiscalPeriod, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT company_id, fiscal_year, fiscal_month, name, start_date, end_date, status, closed_at
		FROM fiscal_periods WHERE company_id = ? ORDER BY fiscal_year, fiscal_month`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []ledger.FiscalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// ClosePeriod locks a fiscal period. Every voucher dated inside it must
// already be terminal; otherwise the blockers are listed and nothing
// changes. The status flip happens in the same transaction as the check,
// so a posting racing the close sees the period already locked or wins
// outright, never half of each.
func (s *Store) ClosePeriod(ctx context.Context, companyID string, year, month int) (*ledger.FiscalPeriod, error) {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := ensurePeriod(ctx, tx, companyID, year, month)
	if err != nil {
		return nil, err
	}
	if status == ledger.PeriodClosed {
		return nil, fmt.Errorf("%w: %04d-%02d", ledger.ErrPeriodClosed, year, month)
	}

	p := ledger.NewPeriod(companyID, year, month)
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM vouchers
		WHERE company_id = ? AND date >= ? AND date < ?
			AND status NOT IN ('posted','rejected','cancelled')
		ORDER BY created_at`,
		companyID,
		p.StartDate.Format(time.RFC3339Nano),
		p.StartDate.AddDate(0, 1, 0).Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("find blocking vouchers: %w", err)
	}
	var blockers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan blocker: %w", err)
		}
		blockers = append(blockers, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(blockers) > 0 {
		return nil, &ledger.CloseBlockedError{Year: year, Month: month, VoucherIDs: blockers}
	}

	closedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE fiscal_periods SET status = 'closed', closed_at = ?
		WHERE company_id = ? AND fiscal_year = ? AND fiscal_month = ? AND status = 'open'`,
		closedAt.Format(time.RFC3339Nano), companyID, year, month,
	)
	if err != nil {
		return nil, fmt.Errorf("close period: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	p.Status = ledger.PeriodClosed
	p.ClosedAt = &closedAt
	return &p, nil
}

func scanPeriod(sc rowScanner) (*ledger.FiscalPeriod, error) {
	var p ledger.FiscalPeriod
	var start, end string
	var closedAt sql.NullString
	err := sc.Scan(&p.CompanyID, &p.Year, &p.Month, &p.Name, &start, &end, &p.Status, &closedAt)
	if err != nil {
		return nil, err
	}
	p.StartDate, _ = time.Parse(time.RFC3339Nano, start)
	p.EndDate, _ = time.Parse(time.RFC3339Nano, end)
	p.ClosedAt = parseNullTime(closedAt)
	return &p, nil
}
