package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flashledger/flashledger/internal/accounting/reports"
	"github.com/flashledger/flashledger/internal/masterdata/branches"
	"github.com/flashledger/flashledger/internal/salesimport"
)

// RouterParams lists the handlers the router mounts.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SalesImportHandler *salesimport.Handler
	ReportsHandler     *reports.Handler
	BranchesHandler    *branches.Handler
}

// NewRouter assembles the HTTP surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Mount("/sales-import", salesimport.Routes(params.SalesImportHandler))
	r.Mount("/reports", reports.Routes(params.ReportsHandler))
	r.Mount("/branches", branches.Routes(params.BranchesHandler))
	return r
}
