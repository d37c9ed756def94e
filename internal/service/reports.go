package service

import (
	"context"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/rs/zerolog"
)

// ReportService is the read side: trial balances, statements, account
// ledgers, and balance rows. It holds no state of its own.
type ReportService struct {
	store *store.Store
	log   zerolog.Logger
}

func NewReportService(st *store.Store, log zerolog.Logger) *ReportService {
	return &ReportService{store: st, log: log.With().Str("component", "reports").Logger()}
}

func (s *ReportService) GetTrialBalance(ctx context.Context, companyID string, year, month int) (*ledger.TrialBalance, error) {
	return s.store.TrialBalance(ctx, companyID, year, month)
}

func (s *ReportService) GetBalanceSheet(ctx context.Context, companyID string, asOf time.Time) (*ledger.BalanceSheet, error) {
	return s.store.BalanceSheet(ctx, companyID, asOf)
}

func (s *ReportService) GetIncomeStatement(ctx context.Context, companyID string, from, to time.Time) (*ledger.IncomeStatement, error) {
	return s.store.IncomeStatement(ctx, companyID, from, to)
}

func (s *ReportService) GetAccountLedger(ctx context.Context, companyID, accountID string, from, to time.Time) (*ledger.AccountLedger, error) {
	return s.store.AccountLedger(ctx, companyID, accountID, from, to)
}

func (s *ReportService) GetBalance(ctx context.Context, companyID, accountID string, year, month int) (*ledger.LedgerBalance, error) {
	return s.store.GetBalance(ctx, companyID, accountID, year, month)
}

// RecalculateBalances rolls opening/closing forward across all stored
// balance rows. An audited correction command, not part of the normal
// posting path.
func (s *ReportService) RecalculateBalances(ctx context.Context, companyID, accountID, actor string) (int, error) {
	n, err := s.store.RecalculateBalances(ctx, companyID, accountID)
	if err != nil {
		return 0, err
	}
	s.log.Warn().Str("company", companyID).Str("account", accountID).Str("actor", actor).
		Int("rows", n).Msg("ledger balances recalculated")
	return n, nil
}
