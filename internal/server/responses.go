package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, mapError(err), errorResponse{Error: err.Error(), Retryable: ledger.Retryable(err)})
}

func mapError(err error) int {
	var deleteBlocked *ledger.DeleteBlockedError
	var closeBlocked *ledger.CloseBlockedError
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrVoucherNotFound),
		errors.Is(err, ledger.ErrPeriodNotFound),
		errors.Is(err, ledger.ErrBalanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrStatusConflict),
		errors.Is(err, ledger.ErrIllegalTransition),
		errors.Is(err, ledger.ErrPeriodClosed),
		errors.Is(err, ledger.ErrLaterPeriodClosed),
		errors.Is(err, ledger.ErrPeriodOpen),
		errors.Is(err, ledger.ErrAlreadyReversed),
		errors.Is(err, ledger.ErrInactiveAccount),
		errors.Is(err, ledger.ErrControlAccountEntry),
		errors.Is(err, ledger.ErrDirectPostingDenied):
		return http.StatusConflict
	case errors.As(err, &deleteBlocked), errors.As(err, &closeBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrMissingCompany),
		errors.Is(err, ledger.ErrInvalidAccountCode),
		errors.Is(err, ledger.ErrMissingAccountName),
		errors.Is(err, ledger.ErrInvalidAccountType),
		errors.Is(err, ledger.ErrInvalidNature),
		errors.Is(err, ledger.ErrTypeNatureMismatch),
		errors.Is(err, ledger.ErrControlAccountPosting),
		errors.Is(err, ledger.ErrMoveCreatesCycle),
		errors.Is(err, ledger.ErrNoEntries),
		errors.Is(err, ledger.ErrBothSidesSet),
		errors.Is(err, ledger.ErrNoSideSet),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, ledger.ErrUnbalancedVoucher),
		errors.Is(err, ledger.ErrInvalidVoucherDate),
		errors.Is(err, ledger.ErrInvalidVoucherType),
		errors.Is(err, ledger.ErrNotEquityAccount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type ctxKey int

const (
	ctxCompany ctxKey = iota
	ctxActor
)

// requireCompany pulls the acting tenant and user out of the request
// headers. The core trusts the caller-supplied identity; authentication
// lives in front of this API.
func requireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		company := r.Header.Get("X-Company-ID")
		if company == "" {
			writeError(w, http.StatusBadRequest, "X-Company-ID header is required")
			return
		}
		ctx := context.WithValue(r.Context(), ctxCompany, company)
		ctx = context.WithValue(ctx, ctxActor, r.Header.Get("X-User-ID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func companyID(r *http.Request) string {
	v, _ := r.Context().Value(ctxCompany).(string)
	return v
}

func actor(r *http.Request) string {
	v, _ := r.Context().Value(ctxActor).(string)
	return v
}
