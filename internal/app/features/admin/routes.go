package admin

import (
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sessionMgr *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.ServeConsole)
	r.Post("/contributions/{id}/approve", h.ServeApprove)
	r.Post("/contributions/{id}/reject", h.ServeReject)
	r.Post("/users/{id}/departments", h.ServeReassign)
	r.Post("/users/{id}/reset", h.ServeReset)
	r.Post("/projects", h.ServeCreateProject)

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireRole(models.RoleSuperAdmin))
		r.Post("/users/{id}/role", h.ServeSetRole)
		r.Post("/departments/seed", h.ServeSeed)
	})
	return r
}
