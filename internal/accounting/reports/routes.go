package reports

import "github.com/go-chi/chi/v5"

// Routes mounts the reporting endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/pl", h.ProfitAndLoss)
	return r
}
