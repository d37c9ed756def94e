package cmd

import (
	"os"

	"github.com/ledgerkit/ledgerkit/internal/server"
	"github.com/ledgerkit/ledgerkit/internal/service"
	"github.com/ledgerkit/ledgerkit/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	servePretty bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(servePretty)

		st, err := store.Open(flagDB)
		if err != nil {
			return err
		}
		defer st.Close()

		accounts := service.NewAccountService(st, log)
		vouchers := service.NewVoucherService(st, log)
		closing := service.NewClosingService(st, vouchers, log)
		reports := service.NewReportService(st, log)

		srv := server.New(accounts, vouchers, closing, reports, log, serveAddr)
		return srv.ListenAndServe()
	},
}

func newLogger(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "Listen address")
	serveCmd.Flags().BoolVar(&servePretty, "pretty", false, "Human-readable log output")
	rootCmd.AddCommand(serveCmd)
}
