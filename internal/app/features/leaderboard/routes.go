package leaderboard

import (
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sessionMgr *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.ServePage)
	r.Get("/stream", h.ServeStream)
	return r
}
