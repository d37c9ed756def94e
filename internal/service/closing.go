package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ClosingService locks fiscal periods and performs the year-end close.
type ClosingService struct {
	store    *store.Store
	vouchers *VoucherService
	log      zerolog.Logger
}

func NewClosingService(st *store.Store, vouchers *VoucherService, log zerolog.Logger) *ClosingService {
	return &ClosingService{
		store:    st,
		vouchers: vouchers,
		log:      log.With().Str("component", "closing").Logger(),
	}
}

// ClosePeriod locks (year, month). Non-terminal vouchers dated inside
// the period block the close and are reported by id.
func (s *ClosingService) ClosePeriod(ctx context.Context, companyID string, year, month int) (*ledger.FiscalPeriod, error) {
	p, err := s.store.ClosePeriod(ctx, companyID, year, month)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("company", companyID).Int("year", year).Int("month", month).
		Msg("period closed")
	return p, nil
}

func (s *ClosingService) GetPeriod(ctx context.Context, companyID string, year, month int) (*ledger.FiscalPeriod, error) {
	return s.store.GetPeriod(ctx, companyID, year, month)
}

func (s *ClosingService) ListPeriods(ctx context.Context, companyID string) ([]ledger.FiscalPeriod, error) {
	return s.store.ListPeriods(ctx, companyID)
}

// YearEndClose closes the final period of the year (if still open),
// then posts a closing voucher that zeroes every revenue and expense
// account's year-end balance into the retained-earnings account. Only
// balance-sheet balances carry into the next fiscal year.
func (s *ClosingService) YearEndClose(ctx context.Context, companyID string, year int, retainedEarningsID, actor string) (*ledger.Voucher, error) {
	re, err := s.store.GetAccount(ctx, companyID, retainedEarningsID)
	if err != nil {
		return nil, err
	}
	if re.Type != ledger.TypeEquity {
		return nil, fmt.Errorf("%w: %s is %s", ledger.ErrNotEquityAccount, re.Code, re.Type)
	}
	if re.IsControlAccount || !re.AllowDirectPosting {
		return nil, fmt.Errorf("%w: %s", ledger.ErrControlAccountEntry, re.Code)
	}

	if _, err := s.store.ClosePeriod(ctx, companyID, year, 12); err != nil {
		// Already-closed is fine; blockers and everything else are not.
		if !isPeriodClosed(err) {
			return nil, err
		}
	}

	entries, plug, err := s.closingEntries(ctx, companyID, year)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no revenue or expense balances to close for %d", ledger.ErrNoEntries, year)
	}

	reLine := ledger.VoucherEntry{AccountID: re.ID, Description: "Net income to retained earnings"}
	reLine.Debit, reLine.Credit = ledger.SplitNet(ledger.NatureCredit, plug)
	if !plug.IsZero() {
		entries = append(entries, reLine)
	}

	v := &ledger.Voucher{
		CompanyID:   companyID,
		Date:        time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Type:        ledger.VoucherClosing,
		Description: fmt.Sprintf("Year-end closing %d", year),
		ReversalOf:  "",
		Status:      ledger.StatusApproved,
		Entries:     entries,
		CreatedBy:   actor,
	}
	for i := range v.Entries {
		v.Entries[i].LineNo = i + 1
	}
	if err := v.ValidateBalanced(); err != nil {
		return nil, err
	}
	if err := s.store.CreateVoucher(ctx, v); err != nil {
		return nil, err
	}

	posted, err := s.vouchers.Post(ctx, companyID, v.ID, actor)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company", companyID).Int("year", year).Str("voucher", posted.ID).
		Str("retained_earnings", re.Code).Msg("year-end close posted")
	return posted, nil
}

// closingEntries builds one line per revenue/expense account with a
// nonzero year-end balance, posted on the opposite side so the balance
// zeroes out, plus the credit-signed plug for retained earnings.
func (s *ClosingService) closingEntries(ctx context.Context, companyID string, year int) ([]ledger.VoucherEntry, decimal.Decimal, error) {
	accounts, err := s.store.ListAccounts(ctx, companyID, store.AccountFilter{})
	if err != nil {
		return nil, decimal.Zero, err
	}

	var entries []ledger.VoucherEntry
	plug := decimal.Zero
	for _, a := range accounts {
		if a.Type != ledger.TypeRevenue && a.Type != ledger.TypeExpense {
			continue
		}
		if a.IsControlAccount {
			continue
		}
		bal, err := s.store.GetBalance(ctx, companyID, a.ID, year, 12)
		if err != nil {
			// No December row: fall back to the latest balance in the year.
			bal = nil
		}
		net := decimal.Zero
		if bal != nil {
			net = bal.ClosingNet(a.Nature)
		} else {
			net, err = s.latestClosingInYear(ctx, companyID, a.ID, a.Nature, year)
			if err != nil {
				return nil, decimal.Zero, err
			}
		}
		if net.IsZero() {
			continue
		}

		e := ledger.VoucherEntry{
			AccountID:   a.ID,
			Description: fmt.Sprintf("Close %s %s", a.Code, a.Name),
		}
		// Zero the balance: post |net| on the side opposite its nature.
		e.Debit, e.Credit = ledger.SplitNet(a.Nature, net.Neg())
		entries = append(entries, e)

		// Credit-signed contribution to retained earnings.
		if a.Type == ledger.TypeRevenue {
			plug = plug.Add(net)
		} else {
			plug = plug.Sub(net)
		}
	}
	return entries, plug, nil
}

func (s *ClosingService) latestClosingInYear(ctx context.Context, companyID, accountID string, nature ledger.Nature, year int) (decimal.Decimal, error) {
	for month := 12; month >= 1; month-- {
		bal, err := s.store.GetBalance(ctx, companyID, accountID, year, month)
		if err != nil {
			continue
		}
		return bal.ClosingNet(nature), nil
	}
	return decimal.Zero, nil
}

func isPeriodClosed(err error) bool {
	return errors.Is(err, ledger.ErrPeriodClosed)
}
