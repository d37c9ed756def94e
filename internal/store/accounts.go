package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

const accountCols = `id, company_id, code, name, COALESCE(parent_id, ''), level, path, type, nature,
	is_control_account, allow_direct_posting, active, position, created_at, updated_at`

// CreateAccount inserts a new account under its parent, deriving level
// and path. The (company, code) uniqueness constraint maps violations to
// ErrDuplicateAccount.
func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.Must(uuid.NewV7()).String()
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	parentPath := ""
	parentLevel := 0
	if acct.ParentID != "" {
		parent, err := getAccountTx(ctx, tx, acct.CompanyID, acct.ParentID)
		if err != nil {
			return err
		}
		parentPath = parent.Path
		parentLevel = parent.Level
	}
	acct.Level = parentLevel + 1
	acct.Path = ledger.ChildPath(parentPath, acct.ID)

	var parentID any
	if acct.ParentID != "" {
		parentID = acct.ParentID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, company_id, code, name, parent_id, level, path, type, nature,
			is_control_account, allow_direct_posting, active, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.CompanyID, acct.Code, acct.Name, parentID, acct.Level, acct.Path,
		string(acct.Type), string(acct.Nature),
		boolToInt(acct.IsControlAccount), boolToInt(acct.AllowDirectPosting),
		boolToInt(acct.Active), acct.Position,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ledger.ErrDuplicateAccount, acct.Code)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return tx.Commit()
}

func (s *Store) GetAccount(ctx context.Context, companyID, id string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE company_id = ? AND id = ?`, companyID, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByCode(ctx context.Context, companyID, code string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE company_id = ? AND code = ?`, companyID, code)
	return scanAccount(row)
}

// ListAccounts returns the company's accounts in tree order, siblings
// sorted by position then code.
func (s *Store) ListAccounts(ctx context.Context, companyID string, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountCols + ` FROM accounts WHERE company_id = ?`
	args := []any{companyID}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.ActiveOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY code`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortTree(accounts), nil
}

// sortTree arranges accounts depth-first with siblings ordered by
// position then code. An account whose parent is filtered out of the
// result set is treated as a root.
func sortTree(accounts []ledger.Account) []ledger.Account {
	present := make(map[string]bool, len(accounts))
	for i := range accounts {
		present[accounts[i].ID] = true
	}

	children := make(map[string][]*ledger.Account)
	var roots []*ledger.Account
	for i := range accounts {
		a := &accounts[i]
		if a.ParentID != "" && present[a.ParentID] {
			children[a.ParentID] = append(children[a.ParentID], a)
		} else {
			roots = append(roots, a)
		}
	}

	bySibling := func(s []*ledger.Account) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].Position != s[j].Position {
				return s[i].Position < s[j].Position
			}
			return s[i].Code < s[j].Code
		})
	}

	out := make([]ledger.Account, 0, len(accounts))
	var walk func(n *ledger.Account)
	walk = func(n *ledger.Account) {
		out = append(out, *n)
		kids := children[n.ID]
		bySibling(kids)
		for _, k := range kids {
			walk(k)
		}
	}
	bySibling(roots)
	for _, r := range roots {
		walk(r)
	}
	return out
}

// UpdateAccount rewrites the mutable fields of an account. Code, parent,
// level, and path are managed by CreateAccount and MoveAccount.
func (s *Store) UpdateAccount(ctx context.Context, acct *ledger.Account) error {
	res, err := s.writer.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, nature = ?, is_control_account = ?,
			allow_direct_posting = ?, active = ?, updated_at = ?
		WHERE company_id = ? AND id = ?`,
		acct.Name, string(acct.Type), string(acct.Nature),
		boolToInt(acct.IsControlAccount), boolToInt(acct.AllowDirectPosting), boolToInt(acct.Active),
		now(), acct.CompanyID, acct.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

// MoveAccount reparents an account and rewrites level/path for the whole
// subtree in one transaction. Moving under self or a descendant is
// rejected by a path-prefix check before any write.
func (s *Store) MoveAccount(ctx context.Context, companyID, accountID, newParentID string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	node, err := getAccountTx(ctx, tx, companyID, accountID)
	if err != nil {
		return err
	}

	newParentPath := ""
	newParentLevel := 0
	var parentID any
	if newParentID != "" {
		parent, err := getAccountTx(ctx, tx, companyID, newParentID)
		if err != nil {
			return err
		}
		if ledger.PathContains(parent.Path, accountID) {
			return ledger.ErrMoveCreatesCycle
		}
		newParentPath = parent.Path
		newParentLevel = parent.Level
		parentID = newParentID
	}

	oldPrefix := node.Path
	newPrefix := ledger.ChildPath(newParentPath, accountID)
	delta := newParentLevel + 1 - node.Level

	// Rewrite the moved node and every descendant: swap the path prefix
	// and shift levels by the depth delta.
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts
		SET path = ? || substr(path, ?), level = level + ?, updated_at = ?
		WHERE company_id = ? AND path LIKE ? || '%'`,
		newPrefix, len(oldPrefix)+1, delta, now(), companyID, oldPrefix,
	)
	if err != nil {
		return fmt.Errorf("rewrite subtree: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET parent_id = ? WHERE company_id = ? AND id = ?`,
		parentID, companyID, accountID,
	)
	if err != nil {
		return fmt.Errorf("reparent: %w", err)
	}

	return tx.Commit()
}

// ReorderAccounts assigns sibling sort positions in the given order.
func (s *Store) ReorderAccounts(ctx context.Context, companyID string, orderedIDs []string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET position = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
			i, now(), companyID, id,
		)
		if err != nil {
			return fmt.Errorf("reorder account %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
		}
	}
	return tx.Commit()
}

// DeleteAccount removes an account unless it has children or has been
// referenced by posted entries; blockers are reported, not just refused.
func (s *Store) DeleteAccount(ctx context.Context, companyID, id string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := getAccountTx(ctx, tx, companyID, id); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT code FROM accounts WHERE company_id = ? AND parent_id = ? ORDER BY code`, companyID, id)
	if err != nil {
		return fmt.Errorf("check children: %w", err)
	}
	var children []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return fmt.Errorf("scan child code: %w", err)
		}
		children = append(children, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(children) > 0 {
		return &ledger.DeleteBlockedError{AccountID: id, ChildCodes: children}
	}

	var posted int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voucher_entries e
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE e.account_id = ? AND v.status = 'posted'`, id).Scan(&posted)
	if err != nil {
		return fmt.Errorf("check posted entries: %w", err)
	}
	if posted > 0 {
		return &ledger.DeleteBlockedError{AccountID: id, PostedCount: posted}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE company_id = ? AND id = ?`, companyID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return tx.Commit()
}

func getAccountTx(ctx context.Context, tx *sql.Tx, companyID, id string) (*ledger.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE company_id = ? AND id = ?`, companyID, id)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountFields(sc rowScanner) (*ledger.Account, error) {
	var acct ledger.Account
	var control, direct, active int
	var createdAt, updatedAt string
	err := sc.Scan(&acct.ID, &acct.CompanyID, &acct.Code, &acct.Name, &acct.ParentID,
		&acct.Level, &acct.Path, &acct.Type, &acct.Nature,
		&control, &direct, &active, &acct.Position, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	acct.IsControlAccount = control == 1
	acct.AllowDirectPosting = direct == 1
	acct.Active = active == 1
	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	acct.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &acct, nil
}

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	acct, err := scanAccountFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return acct, nil
}

func scanAccountRow(rows *sql.Rows) (*ledger.Account, error) {
	acct, err := scanAccountFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	return acct, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
