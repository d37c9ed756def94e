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

type voucherRequest struct {
	Date        string                 `json:"date"`
	Type        ledger.VoucherType     `json:"type"`
	Description string                 `json:"description"`
	Reference   string                 `json:"reference,omitempty"`
	Entries     []service.EntryRequest `json:"entries"`
}

func (vr *voucherRequest) toService() (service.CreateVoucherRequest, error) {
	date, err := time.Parse("2006-01-02", vr.Date)
	if err != nil {
		return service.CreateVoucherRequest{}, err
	}
	return service.CreateVoucherRequest{
		Date:        date,
		Type:        vr.Type,
		Description: vr.Description,
		Reference:   vr.Reference,
		Entries:     vr.Entries,
	}, nil
}

func (s *Server) createVoucher(w http.ResponseWriter, r *http.Request) {
	var raw voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req, err := raw.toService()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	v, err := s.vouchers.CreateVoucher(r.Context(), companyID(r), actor(r), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listVouchers(w http.ResponseWriter, r *http.Request) {
	filter := store.VoucherFilter{Limit: 100}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		filter.Status = ledger.VoucherStatus(v)
	}
	if v := q.Get("type"); v != "" {
		filter.Type = ledger.VoucherType(v)
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateTo = t
		}
	}

	vouchers, err := s.vouchers.ListVouchers(r.Context(), companyID(r), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if vouchers == nil {
		vouchers = []ledger.Voucher{}
	}
	writeJSON(w, http.StatusOK, vouchers)
}

func (s *Server) getVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.GetVoucher(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateVoucher(w http.ResponseWriter, r *http.Request) {
	var raw voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req, err := raw.toService()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	v, err := s.vouchers.UpdateVoucher(r.Context(), companyID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVoucher(w http.ResponseWriter, r *http.Request) {
	if err := s.vouchers.DeleteVoucher(r.Context(), companyID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Submit(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) approveVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Approve(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) rejectVoucher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	v, err := s.vouchers.Reject(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r), req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) postVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Post(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) cancelVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Cancel(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) reverseVoucher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReversalDate string `json:"reversal_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.ReversalDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reversal_date: "+err.Error())
		return
	}

	v, err := s.vouchers.Reverse(r.Context(), companyID(r), chi.URLParam(r, "id"), actor(r), date)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
