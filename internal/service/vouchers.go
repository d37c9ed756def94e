package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// VoucherService owns the voucher lifecycle: draft editing, the
// submit/approve/reject state machine, posting, cancellation, and
// reversal.
type VoucherService struct {
	store *store.Store
	log   zerolog.Logger
}

func NewVoucherService(st *store.Store, log zerolog.Logger) *VoucherService {
	return &VoucherService{store: st, log: log.With().Str("component", "vouchers").Logger()}
}

type EntryRequest struct {
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
	Partner     string          `json:"partner,omitempty"`
	Department  string          `json:"department,omitempty"`
	Project     string          `json:"project,omitempty"`
	CostCenter  string          `json:"cost_center,omitempty"`
}

type CreateVoucherRequest struct {
	Date        time.Time          `json:"date"`
	Type        ledger.VoucherType `json:"type"`
	Description string             `json:"description"`
	Reference   string             `json:"reference,omitempty"`
	Entries     []EntryRequest     `json:"entries"`
}

func buildEntries(reqs []EntryRequest) []ledger.VoucherEntry {
	entries := make([]ledger.VoucherEntry, len(reqs))
	for i, e := range reqs {
		entries[i] = ledger.VoucherEntry{
			LineNo:      i + 1,
			AccountID:   e.AccountID,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Description: e.Description,
			Partner:     e.Partner,
			Department:  e.Department,
			Project:     e.Project,
			CostCenter:  e.CostCenter,
		}
	}
	return entries
}

// CreateVoucher saves a new draft. Lines must be single-sided but the
// draft does not have to balance yet.
func (s *VoucherService) CreateVoucher(ctx context.Context, companyID, actor string, req CreateVoucherRequest) (*ledger.Voucher, error) {
	v := &ledger.Voucher{
		CompanyID:   companyID,
		Date:        req.Date,
		Type:        req.Type,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      ledger.StatusDraft,
		Entries:     buildEntries(req.Entries),
		CreatedBy:   actor,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	for i := range v.Entries {
		if _, err := s.store.GetAccount(ctx, companyID, v.Entries[i].AccountID); err != nil {
			return nil, fmt.Errorf("line %d: %w", v.Entries[i].LineNo, err)
		}
	}
	if err := s.store.CreateVoucher(ctx, v); err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Str("voucher", v.ID).Str("type", string(v.Type)).
		Msg("voucher created")
	return v, nil
}

// UpdateVoucher rewrites a draft's header and lines. Only drafts are
// editable; anything else conflicts.
func (s *VoucherService) UpdateVoucher(ctx context.Context, companyID, id string, req CreateVoucherRequest) (*ledger.Voucher, error) {
	v, err := s.store.GetVoucher(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if v.Status != ledger.StatusDraft {
		return nil, fmt.Errorf("%w: only drafts are editable, currently %s", ledger.ErrStatusConflict, v.Status)
	}

	v.Date = req.Date
	v.Description = req.Description
	v.Reference = req.Reference
	v.Entries = buildEntries(req.Entries)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceEntries(ctx, v); err != nil {
		return nil, err
	}
	return s.store.GetVoucher(ctx, companyID, id)
}

func (s *VoucherService) DeleteVoucher(ctx context.Context, companyID, id string) error {
	return s.store.DeleteVoucher(ctx, companyID, id)
}

// Submit validates the balance invariant and every referenced account,
// then moves draft -> pending. A validation failure leaves the draft
// untouched.
func (s *VoucherService) Submit(ctx context.Context, companyID, id, actor string) (*ledger.Voucher, error) {
	v, err := s.store.GetVoucher(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := v.ValidateBalanced(); err != nil {
		return nil, err
	}
	for i := range v.Entries {
		if err := s.checkPostable(ctx, companyID, &v.Entries[i]); err != nil {
			return nil, err
		}
	}
	if err := s.store.TransitionStatus(ctx, companyID, id, ledger.StatusDraft, ledger.StatusPending, actor); err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Str("voucher", id).Str("actor", actor).
		Msg("voucher submitted")
	return s.store.GetVoucher(ctx, companyID, id)
}

func (s *VoucherService) checkPostable(ctx context.Context, companyID string, e *ledger.VoucherEntry) error {
	acct, err := s.store.GetAccount(ctx, companyID, e.AccountID)
	if err != nil {
		return fmt.Errorf("line %d: %w", e.LineNo, err)
	}
	if !acct.Active {
		return fmt.Errorf("line %d: %w: %s", e.LineNo, ledger.ErrInactiveAccount, acct.Code)
	}
	if acct.IsControlAccount {
		return fmt.Errorf("line %d: %w: %s", e.LineNo, ledger.ErrControlAccountEntry, acct.Code)
	}
	if !acct.AllowDirectPosting {
		return fmt.Errorf("line %d: %w: %s", e.LineNo, ledger.ErrDirectPostingDenied, acct.Code)
	}
	return nil
}

// Approve moves pending -> approved. A concurrent decision loses the
// compare-and-swap and surfaces as a conflict, never a silent overwrite.
func (s *VoucherService) Approve(ctx context.Context, companyID, id, actor string) (*ledger.Voucher, error) {
	if err := s.store.TransitionStatus(ctx, companyID, id, ledger.StatusPending, ledger.StatusApproved, actor); err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Str("voucher", id).Str("actor", actor).
		Msg("voucher approved")
	return s.store.GetVoucher(ctx, companyID, id)
}

// Reject moves pending -> rejected with a reason recorded on the
// voucher description trail.
func (s *VoucherService) Reject(ctx context.Context, companyID, id, actor, reason string) (*ledger.Voucher, error) {
	if err := s.store.TransitionStatus(ctx, companyID, id, ledger.StatusPending, ledger.StatusRejected, actor); err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Str("voucher", id).Str("actor", actor).
		Str("reason", reason).Msg("voucher rejected")
	return s.store.GetVoucher(ctx, companyID, id)
}

// Post commits an approved voucher through the posting path. On failure
// the voucher remains approved.
func (s *VoucherService) Post(ctx context.Context, companyID, id, actor string) (*ledger.Voucher, error) {
	v, err := s.store.PostVoucher(ctx, companyID, id, actor)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Str("voucher", id).Int64("no", v.VoucherNo).
		Str("actor", actor).Msg("voucher posted")
	return v, nil
}

// Cancel is permitted from draft, pending, and rejected.
func (s *VoucherService) Cancel(ctx context.Context, companyID, id, actor string) (*ledger.Voucher, error) {
	v, err := s.store.GetVoucher(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !ledger.CanTransition(v.Status, ledger.StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s voucher", ledger.ErrIllegalTransition, v.Status)
	}
	if err := s.store.TransitionStatus(ctx, companyID, id, v.Status, ledger.StatusCancelled, actor); err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Str("voucher", id).Msg("voucher cancelled")
	return s.store.GetVoucher(ctx, companyID, id)
}

// Reverse creates and immediately posts a mirror voucher dated at the
// caller-supplied reversal date, every line's debit and credit swapped,
// linked to the original through reversal_of.
func (s *VoucherService) Reverse(ctx context.Context, companyID, id, actor string, reversalDate time.Time) (*ledger.Voucher, error) {
	orig, err := s.store.GetVoucher(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if orig.Status != ledger.StatusPosted {
		return nil, fmt.Errorf("%w: only posted vouchers can be reversed, currently %s",
			ledger.ErrIllegalTransition, orig.Status)
	}
	if orig.ReversedBy != "" {
		return nil, fmt.Errorf("%w: by voucher %s", ledger.ErrAlreadyReversed, orig.ReversedBy)
	}
	if reversalDate.IsZero() {
		return nil, ledger.ErrInvalidVoucherDate
	}

	rev := &ledger.Voucher{
		CompanyID:   companyID,
		Date:        reversalDate,
		Type:        orig.Type,
		Description: fmt.Sprintf("Reversal of voucher %d: %s", orig.VoucherNo, orig.Description),
		Reference:   orig.Reference,
		Status:      ledger.StatusApproved,
		ReversalOf:  orig.ID,
		Entries:     orig.ReversalEntries(),
		CreatedBy:   actor,
	}
	if err := rev.ValidateBalanced(); err != nil {
		return nil, err
	}

	// Creation and posting commit together: a failed posting (e.g. the
	// reversal date falls in a closed period) leaves no orphan behind.
	posted, err := s.store.ReverseVoucher(ctx, rev, actor)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Str("original", id).Str("reversal", posted.ID).
		Int64("no", posted.VoucherNo).Msg("voucher reversed")
	return posted, nil
}

func (s *VoucherService) GetVoucher(ctx context.Context, companyID, id string) (*ledger.Voucher, error) {
	return s.store.GetVoucher(ctx, companyID, id)
}

func (s *VoucherService) ListVouchers(ctx context.Context, companyID string, filter store.VoucherFilter) ([]ledger.Voucher, error) {
	return s.store.ListVouchers(ctx, companyID, filter)
}
