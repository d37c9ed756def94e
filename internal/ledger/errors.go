package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCompany     = errors.New("company id is required")
	ErrInvalidAccountCode = errors.New("invalid account code")
	ErrMissingAccountName = errors.New("account name is required")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidNature      = errors.New("invalid account nature")
	ErrTypeNatureMismatch = errors.New("account nature does not match type")
	ErrDuplicateAccount   = errors.New("account code already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrMoveCreatesCycle   = errors.New("cannot move account under itself or its own descendant")

	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrNoEntries             = errors.New("voucher must have at least one entry")
	ErrBothSidesSet          = errors.New("entry cannot have both debit and credit")
	ErrNoSideSet             = errors.New("entry must have exactly one of debit or credit")
	ErrNegativeAmount        = errors.New("entry amount must be positive")
	ErrUnbalancedVoucher     = errors.New("voucher debits do not equal credits")
	ErrInvalidVoucherDate    = errors.New("invalid voucher date")
	ErrInvalidVoucherType    = errors.New("invalid voucher type")
	ErrIllegalTransition     = errors.New("illegal voucher status transition")
	ErrStatusConflict        = errors.New("voucher status changed concurrently")
	ErrAlreadyReversed       = errors.New("voucher has already been reversed")
	ErrInactiveAccount       = errors.New("account is inactive")
	ErrControlAccountEntry   = errors.New("control accounts cannot receive direct postings")
	ErrControlAccountPosting = errors.New("control accounts cannot allow direct posting")
	ErrDirectPostingDenied   = errors.New("account does not allow direct posting")

	ErrPeriodNotFound    = errors.New("fiscal period not found")
	ErrBalanceNotFound   = errors.New("no ledger balance for account and period")
	ErrPeriodClosed      = errors.New("fiscal period is closed")
	ErrLaterPeriodClosed = errors.New("a later fiscal period is already closed")
	ErrPeriodOpen        = errors.New("fiscal period is still open")

	ErrNotEquityAccount = errors.New("retained earnings account must be an equity account")
)

// Retryable reports whether an error is a transient optimistic-concurrency
// conflict the caller may retry with fresh state. Semantic state conflicts
// (closed period, illegal transition) are not retryable.
func Retryable(err error) bool {
	return errors.Is(err, ErrStatusConflict)
}

// DeleteBlockedError explains why an account cannot be deleted: it either
// still has child accounts or has received posted entries.
type DeleteBlockedError struct {
	AccountID   string
	ChildCodes  []string
	PostedCount int
}

func (e *DeleteBlockedError) Error() string {
	if len(e.ChildCodes) > 0 {
		return fmt.Sprintf("cannot delete account %s: has child accounts %s",
			e.AccountID, strings.Join(e.ChildCodes, ", "))
	}
	return fmt.Sprintf("cannot delete account %s: referenced by %d posted entries",
		e.AccountID, e.PostedCount)
}

// CloseBlockedError lists the vouchers that keep a fiscal period from
// closing. Every non-terminal voucher dated inside the period is reported.
type CloseBlockedError struct {
	Year       int
	Month      int
	VoucherIDs []string
}

func (e *CloseBlockedError) Error() string {
	return fmt.Sprintf("cannot close period %04d-%02d: %d unresolved vouchers (%s)",
		e.Year, e.Month, len(e.VoucherIDs), strings.Join(e.VoucherIDs, ", "))
}
