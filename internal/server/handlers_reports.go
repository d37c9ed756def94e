package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func yearMonth(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year: %w", err)
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month: %w", err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range: %d", month)
	}
	return year, month, nil
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tb, err := s.reports.GetTrialBalance(r.Context(), companyID(r), year, month)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := time.Parse("2006-01-02", r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of: "+err.Error())
		return
	}

	bs, err := s.reports.GetBalanceSheet(r.Context(), companyID(r), asOf)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r, "from", "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	is, err := s.reports.GetIncomeStatement(r.Context(), companyID(r), from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

func (s *Server) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.closing.ListPeriods(r.Context(), companyID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) closePeriod(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	p, err := s.closing.ClosePeriod(r.Context(), companyID(r), year, month)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) yearEndClose(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	var req struct {
		RetainedEarningsAccountID string `json:"retained_earnings_account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	v, err := s.closing.YearEndClose(r.Context(), companyID(r), year, req.RetainedEarningsAccountID, actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) recalculateBalances(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	n, err := s.reports.RecalculateBalances(r.Context(), companyID(r), req.AccountID, actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows_updated": n})
}
