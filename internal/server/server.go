package server

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/rs/zerolog"
)

type Server struct {
	accounts *service.AccountService
	vouchers *service.VoucherService
	closing  *service.ClosingService
	reports  *service.ReportService
	router   chi.Router
	log      zerolog.Logger
	addr     string
}

func New(accounts *service.AccountService, vouchers *service.VoucherService,
	closing *service.ClosingService, reports *service.ReportService,
	log zerolog.Logger, addr string) *Server {

	httpLog := log.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(requestLogger(httpLog))
	r.Use(middleware.Recoverer)

	s := &Server{
		accounts: accounts,
		vouchers: vouchers,
		closing:  closing,
		reports:  reports,
		router:   r,
		log:      httpLog,
		addr:     addr,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireCompany)

		// Chart of accounts
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccountTree)
		r.Post("/accounts/reorder", s.reorderAccounts)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.updateAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
		r.Post("/accounts/{id}/move", s.moveAccount)
		r.Get("/accounts/{id}/ledger", s.accountLedger)
		r.Get("/accounts/{id}/balance", s.accountBalance)

		// Vouchers
		r.Post("/vouchers", s.createVoucher)
		r.Get("/vouchers", s.listVouchers)
		r.Get("/vouchers/{id}", s.getVoucher)
		r.Put("/vouchers/{id}", s.updateVoucher)
		r.Delete("/vouchers/{id}", s.deleteVoucher)
		r.Post("/vouchers/{id}/submit", s.submitVoucher)
		r.Post("/vouchers/{id}/approve", s.approveVoucher)
		r.Post("/vouchers/{id}/reject", s.rejectVoucher)
		r.Post("/vouchers/{id}/post", s.postVoucher)
		r.Post("/vouchers/{id}/cancel", s.cancelVoucher)
		r.Post("/vouchers/{id}/reverse", s.reverseVoucher)

		// Reports
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.Get("/reports/income-statement", s.incomeStatement)

		// Fiscal periods
		r.Get("/periods", s.listPeriods)
		r.Post("/periods/{year}/{month}/close", s.closePeriod)
		r.Post("/periods/{year}/year-end-close", s.yearEndClose)
		r.Post("/balances/recalculate", s.recalculateBalances)
	})

	return s
}

// requestLogger emits one structured line per request once the response
// has been written.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.addr).Msg("ledgerkit server listening")
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("ledgerkit server listening")
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
