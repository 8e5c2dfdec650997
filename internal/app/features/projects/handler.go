package projects

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	requeststore "github.com/KMohnishM/Cys-FFCS/internal/app/store/joinrequests"
	"github.com/KMohnishM/Cys-FFCS/internal/app/store/ledger"
	projectstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/projects"
	reviewstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/reviews"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves project browsing and team membership actions. Members see
// projects in their own departments; joins go through the membership ledger
// so team size and single-membership stay consistent.
type Handler struct {
	Users    *userstore.Store
	Projects *projectstore.Store
	Requests *requeststore.Store
	Reviews  *reviewstore.Store
	Ledger   *ledger.Ledger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Projects: projectstore.New(db),
		Requests: requeststore.New(db),
		Reviews:  reviewstore.New(db),
		Ledger:   ledger.New(db, logger),
		ErrLog:   errLog,
		Log:      logger,
	}
}

var actionErrors = map[string]string{
	"project_full":  "That team is already full.",
	"not_found":     "That project no longer exists.",
	"already":       "You already have a pending request for this project.",
	"member":        "You are already on this team.",
	"no_request":    "You have no pending request to withdraw.",
	"empty_comment": "Reviews need some text.",
	"not_member":    "Only team members can post reviews.",
	"internal":      "Something went wrong. Please try again.",
}

type listData struct {
	viewdata.BaseVM
	Projects []models.Project
	Error    string
}

// ServeList handles GET /projects. Members see projects in their selected
// departments; staff see everything.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Project
		err  error
	)
	if su.Role == models.RoleAdmin || su.Role == models.RoleSuperAdmin {
		list, err = h.Projects.List(ctx)
	} else {
		userID, idErr := primitive.ObjectIDFromHex(su.ID)
		if idErr != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		var u *models.User
		u, err = h.Users.GetByID(ctx, userID)
		if err == nil {
			list, err = h.Projects.ListByDepartments(ctx, u.Departments)
		}
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list projects", err,
			"Could not load projects.", "/dashboard")
		return
	}

	data := listData{
		BaseVM:   viewdata.NewBaseVM(r, "Projects", "/dashboard"),
		Projects: list,
		Error:    actionErrors[r.URL.Query().Get("error")],
	}
	templates.Render(w, r, "projects_list", data)
}

type memberRow struct {
	ID   primitive.ObjectID
	Name string
}

type detailData struct {
	viewdata.BaseVM
	Project      models.Project
	Members      []memberRow
	Reviews      []models.Review
	Requests     []models.JoinRequest
	Requesters   map[primitive.ObjectID]string
	IsMember     bool
	HasRequested bool
	TeamFull     bool
	Error        string
}

// ServeDetail handles GET /projects/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, projectID)
	if err == mongo.ErrNoDocuments {
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project", err,
			"Could not load the project.", "/projects")
		return
	}

	data := detailData{
		BaseVM:   viewdata.NewBaseVM(r, p.Name, "/projects"),
		Project:  *p,
		TeamFull: len(p.Members) >= models.MaxProjectMembers,
		Error:    actionErrors[r.URL.Query().Get("error")],
	}

	members, err := h.Users.GetManyByID(ctx, p.Members)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project members", err,
			"Could not load the project.", "/projects")
		return
	}
	for _, m := range members {
		data.Members = append(data.Members, memberRow{ID: m.ID, Name: m.FullName})
	}

	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err == nil {
		data.IsMember = p.HasMember(userID)
	}

	data.Reviews, err = h.Reviews.ListByProject(ctx, projectID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project reviews", err,
			"Could not load the project.", "/projects")
		return
	}

	// Pending requests are shown to the team and to staff, so they can
	// invite the requester in.
	if data.IsMember || su.Role == models.RoleAdmin || su.Role == models.RoleSuperAdmin {
		reqs, err := h.Requests.PendingForProject(ctx, projectID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load join requests", err,
				"Could not load the project.", "/projects")
			return
		}
		data.Requests = reqs
		data.Requesters = make(map[primitive.ObjectID]string, len(reqs))

		ids := make([]primitive.ObjectID, 0, len(reqs))
		for _, jr := range reqs {
			ids = append(ids, jr.UserID)
		}
		requesters, err := h.Users.GetManyByID(ctx, ids)
		if err == nil {
			for _, u := range requesters {
				data.Requesters[u.ID] = u.FullName
			}
		}
	} else {
		mine, err := h.Requests.PendingForUser(ctx, userID)
		if err == nil {
			for _, jr := range mine {
				if jr.ProjectID == projectID {
					data.HasRequested = true
				}
			}
		}
	}

	templates.Render(w, r, "project_detail", data)
}

// ServeJoin handles POST /projects/{id}/join.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, func(ctx context.Context, userID, projectID primitive.ObjectID) error {
		return h.Ledger.JoinProject(ctx, userID, projectID)
	})
}

// ServeLeave handles POST /projects/{id}/leave.
func (h *Handler) ServeLeave(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, func(ctx context.Context, userID, projectID primitive.ObjectID) error {
		return h.Ledger.LeaveProject(ctx, userID, projectID)
	})
}

// ServeRequest handles POST /projects/{id}/request.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, func(ctx context.Context, userID, projectID primitive.ObjectID) error {
		_, err := h.Requests.Create(ctx, userID, projectID)
		return err
	})
}

// ServeWithdraw handles POST /projects/{id}/withdraw.
func (h *Handler) ServeWithdraw(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, func(ctx context.Context, userID, projectID primitive.ObjectID) error {
		return h.Requests.Withdraw(ctx, userID, projectID)
	})
}

// membershipAction runs one ledger/broker operation for the current user
// and the {id} project, then redirects back to the detail page with an
// error code when the operation refuses.
func (h *Handler) membershipAction(
	w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID, projectID primitive.ObjectID) error,
) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/projects?error=internal", http.StatusSeeOther)
		return
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	back := "/projects/" + projectID.Hex()
	err = op(ctx, userID, projectID)
	switch {
	case err == nil:
		http.Redirect(w, r, back, http.StatusSeeOther)
	case errors.Is(err, ledger.ErrProjectFull):
		http.Redirect(w, r, back+"?error=project_full", http.StatusSeeOther)
	case errors.Is(err, requeststore.ErrDuplicateRequest):
		http.Redirect(w, r, back+"?error=already", http.StatusSeeOther)
	case errors.Is(err, requeststore.ErrAlreadyMember):
		http.Redirect(w, r, back+"?error=member", http.StatusSeeOther)
	case errors.Is(err, requeststore.ErrNoPendingRequest):
		http.Redirect(w, r, back+"?error=no_request", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "project membership action failed", err,
			"Could not complete that action.", back)
	}
}

// ServeAddReview handles POST /projects/{id}/reviews.
func (h *Handler) ServeAddReview(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/projects?error=internal", http.StatusSeeOther)
		return
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
		return
	}
	back := "/projects/" + projectID.Hex()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse review form", err,
			"Invalid form data.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, err = h.Reviews.Add(ctx, projectID, userID, su.Name, r.PostFormValue("comment"))
	switch {
	case err == nil:
		http.Redirect(w, r, back, http.StatusSeeOther)
	case errors.Is(err, reviewstore.ErrEmptyComment):
		http.Redirect(w, r, back+"?error=empty_comment", http.StatusSeeOther)
	case errors.Is(err, reviewstore.ErrNotProjectMember):
		http.Redirect(w, r, back+"?error=not_member", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/projects?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "add review failed", err,
			"Could not post your review.", back)
	}
}
