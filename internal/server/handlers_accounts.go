package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/ledgerkit/ledgerkit/internal/store"
)

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	acct, err := s.accounts.CreateAccount(r.Context(), companyID(r), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccountTree(w http.ResponseWriter, r *http.Request) {
	filter := store.AccountFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = ledger.AccountType(t)
	}
	if r.URL.Query().Get("active") == "true" {
		filter.ActiveOnly = true
	}

	tree, err := s.accounts.ListAccountTree(r.Context(), companyID(r), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if tree == nil {
		tree = []*service.AccountNode{}
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.accounts.GetAccount(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	acct, err := s.accounts.UpdateAccount(r.Context(), companyID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) moveAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewParentID string `json:"new_parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	acct, err := s.accounts.MoveAccount(r.Context(), companyID(r), chi.URLParam(r, "id"), req.NewParentID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) reorderAccounts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderedIDs []string `json:"ordered_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.accounts.ReorderAccounts(r.Context(), companyID(r), req.OrderedIDs); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.DeleteAccount(r.Context(), companyID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) accountLedger(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r, "from", "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	al, err := s.reports.GetAccountLedger(r.Context(), companyID(r), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}

func (s *Server) accountBalance(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bal, err := s.reports.GetBalance(r.Context(), companyID(r), chi.URLParam(r, "id"), year, month)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func dateRange(r *http.Request, fromKey, toKey string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get(fromKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get(toKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
