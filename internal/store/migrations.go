package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		// Chart of accounts: materialized-path tree per company
		`CREATE TABLE IF NOT EXISTS accounts (
			id                   TEXT PRIMARY KEY,
			company_id           TEXT NOT NULL,
			code                 TEXT NOT NULL,
			name                 TEXT NOT NULL,
			parent_id            TEXT REFERENCES accounts(id),
			level                INTEGER NOT NULL DEFAULT 1,
			path                 TEXT NOT NULL,
			type                 TEXT NOT NULL CHECK (type IN ('asset','liability','equity','revenue','expense')),
			nature               TEXT NOT NULL CHECK (nature IN ('debit','credit')),
			is_control_account   INTEGER NOT NULL DEFAULT 0,
			allow_direct_posting INTEGER NOT NULL DEFAULT 1,
			active               INTEGER NOT NULL DEFAULT 1,
			position             INTEGER NOT NULL DEFAULT 0,
			created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			UNIQUE (company_id, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_company ON accounts(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_path ON accounts(company_id, path)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_id)`,

		// Vouchers: numbered only at posting time
		`CREATE TABLE IF NOT EXISTS vouchers (
			id           TEXT PRIMARY KEY,
			company_id   TEXT NOT NULL,
			voucher_no   INTEGER NOT NULL DEFAULT 0,
			date         TEXT NOT NULL,
			type         TEXT NOT NULL CHECK (type IN ('general','sales','purchase','payment','receipt','adjustment','closing')),
			description  TEXT NOT NULL DEFAULT '',
			reference    TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL CHECK (status IN ('draft','pending','approved','rejected','posted','cancelled')),
			total_debit  TEXT NOT NULL DEFAULT '0',
			total_credit TEXT NOT NULL DEFAULT '0',
			reversal_of  TEXT REFERENCES vouchers(id),
			created_by   TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			submitted_by TEXT NOT NULL DEFAULT '',
			submitted_at TEXT,
			approved_by  TEXT NOT NULL DEFAULT '',
			approved_at  TEXT,
			posted_by    TEXT NOT NULL DEFAULT '',
			posted_at    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_company_date ON vouchers(company_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_status ON vouchers(company_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_reversal ON vouchers(reversal_of)`,

		`CREATE TABLE IF NOT EXISTS voucher_entries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			voucher_id  TEXT NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
			line_no     INTEGER NOT NULL,
			account_id  TEXT NOT NULL REFERENCES accounts(id),
			debit       TEXT NOT NULL DEFAULT '0',
			credit      TEXT NOT NULL DEFAULT '0',
			description TEXT NOT NULL DEFAULT '',
			partner     TEXT NOT NULL DEFAULT '',
			department  TEXT NOT NULL DEFAULT '',
			project     TEXT NOT NULL DEFAULT '',
			cost_center TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_voucher ON voucher_entries(voucher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_account ON voucher_entries(account_id)`,

		// Per-account per-period balances maintained by the posting path
		`CREATE TABLE IF NOT EXISTS ledger_balances (
			company_id     TEXT NOT NULL,
			account_id     TEXT NOT NULL REFERENCES accounts(id),
			fiscal_year    INTEGER NOT NULL,
			fiscal_month   INTEGER NOT NULL,
			opening_debit  TEXT NOT NULL DEFAULT '0',
			opening_credit TEXT NOT NULL DEFAULT '0',
			period_debit   TEXT NOT NULL DEFAULT '0',
			period_credit  TEXT NOT NULL DEFAULT '0',
			closing_debit  TEXT NOT NULL DEFAULT '0',
			closing_credit TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (company_id, account_id, fiscal_year, fiscal_month)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balances_period ON ledger_balances(company_id, fiscal_year, fiscal_month)`,

		`CREATE TABLE IF NOT EXISTS fiscal_periods (
			company_id   TEXT NOT NULL,
			fiscal_year  INTEGER NOT NULL,
			fiscal_month INTEGER NOT NULL,
			name         TEXT NOT NULL,
			start_date   TEXT NOT NULL,
			end_date     TEXT NOT NULL,
			status       TEXT NOT NULL CHECK (status IN ('open','closed')) DEFAULT 'open',
			closed_at    TEXT,
			PRIMARY KEY (company_id, fiscal_year, fiscal_month)
		)`,

		// Durable voucher-number counter, incremented inside the posting
		// transaction so numbers are dense under concurrent posting
		`CREATE TABLE IF NOT EXISTS voucher_sequences (
			company_id   TEXT NOT NULL,
			voucher_type TEXT NOT NULL,
			fiscal_year  INTEGER NOT NULL,
			fiscal_month INTEGER NOT NULL,
			next_no      INTEGER NOT NULL,
			PRIMARY KEY (company_id, voucher_type, fiscal_year, fiscal_month)
		)`,

		// Trigger: posted vouchers are immutable apart from reversal linkage
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_posted_voucher
		BEFORE UPDATE OF date, type, description, reference, total_debit, total_credit ON vouchers
		WHEN OLD.status = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'posted vouchers are immutable');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_immutable_entries_insert
		BEFORE INSERT ON voucher_entries
		WHEN (SELECT status FROM vouchers WHERE id = NEW.voucher_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot add entries to a posted voucher');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_immutable_entries_delete
		BEFORE DELETE ON voucher_entries
		WHEN (SELECT status FROM vouchers WHERE id = OLD.voucher_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove entries from a posted voucher');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_immutable_entries_update
		BEFORE UPDATE ON voucher_entries
		WHEN (SELECT status FROM vouchers WHERE id = OLD.voucher_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify entries of a posted voucher');
		END`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
