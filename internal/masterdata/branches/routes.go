package branches

import "github.com/go-chi/chi/v5"

// Routes mounts the branch reference endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
