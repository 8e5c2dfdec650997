package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	contribstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/contributions"
	deptstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/departments"
	projectstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/projects"
	"github.com/KMohnishM/Cys-FFCS/internal/app/store/scoring"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the member dashboard: point summary, department selection,
// current project, and recent contributions.
type Handler struct {
	Users    *userstore.Store
	Depts    *deptstore.Store
	Projects *projectstore.Store
	Contribs *contribstore.Store
	Scoring  *scoring.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Depts:    deptstore.New(db),
		Projects: projectstore.New(db),
		Contribs: contribstore.New(db, nil, logger),
		Scoring:  scoring.New(db),
		ErrLog:   errLog,
		Log:      logger,
	}
}

// recentContributions caps how many rows the dashboard shows.
const recentContributions = 5

type pageData struct {
	viewdata.BaseVM
	Summary       scoring.Summary
	Departments   []models.Department
	NeedSelection bool
	Project       *models.Project
	Recent        []models.Contribution
}

// ServeDashboard handles GET /dashboard. Admins are sent to the admin
// console; members get their standing.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if su.Role == models.RoleAdmin || su.Role == models.RoleSuperAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user for dashboard", err,
			"Could not load your dashboard.", "/")
		return
	}

	summary, err := h.Scoring.UserSummary(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load dashboard summary", err,
			"Could not load your dashboard.", "/")
		return
	}

	data := pageData{
		BaseVM:        viewdata.NewBaseVM(r, "Dashboard", "/"),
		Summary:       summary,
		NeedSelection: len(u.Departments) == 0,
	}

	for _, id := range u.Departments {
		d, err := h.Depts.GetByID(ctx, id)
		if err != nil {
			h.Log.Warn("dashboard department lookup failed",
				zap.String("department", id), zap.Error(err))
			continue
		}
		data.Departments = append(data.Departments, *d)
	}

	if u.ProjectID != nil {
		p, err := h.Projects.GetByID(ctx, *u.ProjectID)
		if err != nil && err != mongo.ErrNoDocuments {
			h.ErrLog.LogServerError(w, r, "load dashboard project", err,
				"Could not load your dashboard.", "/")
			return
		}
		data.Project = p
	}

	recent, err := h.Contribs.ListByUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load recent contributions", err,
			"Could not load your dashboard.", "/")
		return
	}
	if len(recent) > recentContributions {
		recent = recent[:recentContributions]
	}
	data.Recent = recent

	templates.Render(w, r, "dashboard", data)
}
