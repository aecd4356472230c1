package salesimport

import "github.com/go-chi/chi/v5"

// Routes mounts the sales import endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/analyze", h.Analyze)
	r.Post("/post", h.Post)
	return r
}
