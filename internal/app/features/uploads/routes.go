package uploads

import "github.com/go-chi/chi/v5"

// Routes mounts the upload API. Method filtering happens in the handler so
// non-POST callers get a JSON 405 rather than chi's plain-text default.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/", h.Serve)
	return r
}
