// Package service wires the ledger components together: chart-of-accounts
// management, the voucher lifecycle, posting, period closing, and the
// read-side reports. Each service validates input against the domain
// rules and delegates transactional work to the store.
package service

import (
	"context"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/rs/zerolog"
)

// AccountService manages the chart-of-accounts tree.
type AccountService struct {
	store *store.Store
	log   zerolog.Logger
}

func NewAccountService(st *store.Store, log zerolog.Logger) *AccountService {
	return &AccountService{store: st, log: log.With().Str("component", "accounts").Logger()}
}

type CreateAccountRequest struct {
	Code               string             `json:"code"`
	Name               string             `json:"name"`
	ParentID           string             `json:"parent_id,omitempty"`
	Type               ledger.AccountType `json:"type"`
	Nature             ledger.Nature      `json:"nature,omitempty"`
	NatureOverride     bool               `json:"nature_override,omitempty"`
	IsControlAccount   bool               `json:"is_control_account,omitempty"`
	AllowDirectPosting *bool              `json:"allow_direct_posting,omitempty"`
}

func (s *AccountService) CreateAccount(ctx context.Context, companyID string, req CreateAccountRequest) (*ledger.Account, error) {
	acct := &ledger.Account{
		CompanyID:        companyID,
		Code:             req.Code,
		Name:             req.Name,
		ParentID:         req.ParentID,
		Type:             req.Type,
		Nature:           req.Nature,
		IsControlAccount: req.IsControlAccount,
		Active:           true,
	}
	if acct.Nature == "" {
		acct.Nature = ledger.NatureFor(acct.Type)
	}
	acct.AllowDirectPosting = !acct.IsControlAccount
	if req.AllowDirectPosting != nil {
		acct.AllowDirectPosting = *req.AllowDirectPosting
	}

	if err := acct.Validate(req.NatureOverride); err != nil {
		return nil, err
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Str("code", acct.Code).Str("account", acct.ID).
		Msg("account created")
	return acct, nil
}

type UpdateAccountRequest struct {
	Name               *string             `json:"name,omitempty"`
	Type               *ledger.AccountType `json:"type,omitempty"`
	Nature             *ledger.Nature      `json:"nature,omitempty"`
	NatureOverride     bool                `json:"nature_override,omitempty"`
	IsControlAccount   *bool               `json:"is_control_account,omitempty"`
	AllowDirectPosting *bool               `json:"allow_direct_posting,omitempty"`
	Active             *bool               `json:"active,omitempty"`
}

func (s *AccountService) UpdateAccount(ctx context.Context, companyID, id string, req UpdateAccountRequest) (*ledger.Account, error) {
	acct, err := s.store.GetAccount(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		acct.Name = *req.Name
	}
	if req.Type != nil {
		acct.Type = *req.Type
	}
	if req.Nature != nil {
		acct.Nature = *req.Nature
	}
	if req.IsControlAccount != nil {
		acct.IsControlAccount = *req.IsControlAccount
	}
	if req.AllowDirectPosting != nil {
		acct.AllowDirectPosting = *req.AllowDirectPosting
	}
	if req.Active != nil {
		acct.Active = *req.Active
	}

	if err := acct.Validate(req.NatureOverride); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(ctx, acct); err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Str("account", id).Msg("account updated")
	return acct, nil
}

// MoveAccount reparents an account; the store rewrites level and path
// for the whole subtree and rejects cycles.
func (s *AccountService) MoveAccount(ctx context.Context, companyID, id, newParentID string) (*ledger.Account, error) {
	if err := s.store.MoveAccount(ctx, companyID, id, newParentID); err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Str("account", id).Str("parent", newParentID).
		Msg("account moved")
	return s.store.GetAccount(ctx, companyID, id)
}

func (s *AccountService) ReorderAccounts(ctx context.Context, companyID string, orderedIDs []string) error {
	return s.store.ReorderAccounts(ctx, companyID, orderedIDs)
}

func (s *AccountService) DeleteAccount(ctx context.Context, companyID, id string) error {
	if err := s.store.DeleteAccount(ctx, companyID, id); err != nil {
		return err
	}
	s.log.Info().Str("company", companyID).Str("account", id).Msg("account deleted")
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, companyID, id string) (*ledger.Account, error) {
	return s.store.GetAccount(ctx, companyID, id)
}

// AccountNode is one node of the rendered account tree.
type AccountNode struct {
	ledger.Account
	Children []*AccountNode `json:"children,omitempty"`
}

// ListAccountTree returns the chart as a nested tree in sibling order.
func (s *AccountService) ListAccountTree(ctx context.Context, companyID string, filter store.AccountFilter) ([]*AccountNode, error) {
	accounts, err := s.store.ListAccounts(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*AccountNode, len(accounts))
	var roots []*AccountNode
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountNode{Account: accounts[i]}
	}
	for i := range accounts {
		n := nodes[accounts[i].ID]
		if parent, ok := nodes[accounts[i].ParentID]; ok {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// SeedDefaultChart creates the built-in chart for a company. Existing
// codes are skipped so the call is idempotent.
func (s *AccountService) SeedDefaultChart(ctx context.Context, companyID string) (int, error) {
	created := 0
	idByCode := make(map[string]string)
	for _, entry := range ledger.DefaultChart {
		if existing, err := s.store.GetAccountByCode(ctx, companyID, entry.Code); err == nil {
			idByCode[entry.Code] = existing.ID
			continue
		}
		acct := &ledger.Account{
			CompanyID:          companyID,
			Code:               entry.Code,
			Name:               entry.Name,
			ParentID:           idByCode[entry.ParentCode],
			Type:               entry.Type,
			Nature:             ledger.NatureFor(entry.Type),
			IsControlAccount:   entry.Control,
			AllowDirectPosting: !entry.Control,
			Active:             true,
		}
		if err := s.store.CreateAccount(ctx, acct); err != nil {
			return created, err
		}
		idByCode[entry.Code] = acct.ID
		created++
	}
	s.log.Info().Str("company", companyID).Int("created", created).Msg("default chart seeded")
	return created, nil
}
