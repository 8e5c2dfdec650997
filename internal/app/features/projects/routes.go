package projects

import (
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sessionMgr *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeDetail)
		r.Post("/join", h.ServeJoin)
		r.Post("/leave", h.ServeLeave)
		r.Post("/request", h.ServeRequest)
		r.Post("/withdraw", h.ServeWithdraw)
		r.Post("/reviews", h.ServeAddReview)
	})
	return r
}
