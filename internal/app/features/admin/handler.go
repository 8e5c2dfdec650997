package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	contribstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/contributions"
	deptstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/departments"
	"github.com/KMohnishM/Cys-FFCS/internal/app/store/ledger"
	projectstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/projects"
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

// Handler is the admin console: contribution review, member management,
// project creation, and department seeding.
type Handler struct {
	Users    *userstore.Store
	Depts    *deptstore.Store
	Projects *projectstore.Store
	Contribs *contribstore.Store
	Ledger   *ledger.Ledger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// Storage is the slice of the storage backend the console needs: rejected
// contributions drop their stored image. waffle's storage.Store satisfies it.
type Storage interface {
	Delete(ctx context.Context, path string) error
}

func NewHandler(db *mongo.Database, store Storage, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Depts:    deptstore.New(db),
		Projects: projectstore.New(db),
		Contribs: contribstore.New(db, imageDeleter(store), logger),
		Ledger:   ledger.New(db, logger),
		ErrLog:   errLog,
		Log:      logger,
	}
}

func imageDeleter(store Storage) contribstore.ImageDeleter {
	if store == nil {
		return nil
	}
	return deleterFunc{store}
}

type deleterFunc struct{ s Storage }

func (d deleterFunc) Delete(ctx context.Context, path string) error {
	return d.s.Delete(ctx, path)
}

var adminErrors = map[string]string{
	"bad_points":    "Points must be a whole number, zero or more.",
	"processed":     "That contribution was already reviewed.",
	"not_found":     "That record no longer exists.",
	"bad_selection": "Pick at most two valid departments.",
	"dept_full":     "A target department has no seats left.",
	"bad_role":      "Unknown role.",
	"dup_project":   "A project with that name already exists in the department.",
	"bad_project":   "Project needs a name and a department.",
	"internal":      "Something went wrong. Please try again.",
}

var adminNotices = map[string]string{
	"approved":   "Contribution approved.",
	"rejected":   "Contribution rejected.",
	"reassigned": "Departments updated.",
	"reset":      "Selection cleared; the member can pick again.",
	"role_set":   "Role updated.",
	"seeded":     "Departments seeded.",
	"project":    "Project created.",
}

type pendingRow struct {
	models.Contribution
	UserName string
}

type consoleData struct {
	viewdata.BaseVM
	Pending     []pendingRow
	Members     []models.User
	Departments []models.Department
	Error       string
	Notice      string
}

// ServeConsole handles GET /admin.
func (h *Handler) ServeConsole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Contribs.ListPending(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list pending contributions", err,
			"Could not load the admin console.", "/")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(pending))
	for _, c := range pending {
		ids = append(ids, c.UserID)
	}
	submitters, err := h.Users.GetManyByID(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load submitters", err,
			"Could not load the admin console.", "/")
		return
	}
	names := make(map[primitive.ObjectID]string, len(submitters))
	for _, u := range submitters {
		names[u.ID] = u.FullName
	}

	data := consoleData{
		BaseVM: viewdata.NewBaseVM(r, "Admin", "/"),
		Error:  adminErrors[r.URL.Query().Get("error")],
		Notice: adminNotices[r.URL.Query().Get("ok")],
	}
	for _, c := range pending {
		data.Pending = append(data.Pending, pendingRow{Contribution: c, UserName: names[c.UserID]})
	}

	data.Members, err = h.Users.ListMembers(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members", err,
			"Could not load the admin console.", "/")
		return
	}
	data.Departments, err = h.Depts.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list departments", err,
			"Could not load the admin console.", "/")
		return
	}

	templates.Render(w, r, "admin_console", data)
}

// ServeApprove handles POST /admin/contributions/{id}/approve.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUserID(r)
	if !ok {
		http.Redirect(w, r, "/admin?error=internal", http.StatusSeeOther)
		return
	}
	contribID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse approve form", err, "Invalid form data.", "/admin")
		return
	}
	points, err := strconv.ParseInt(r.PostFormValue("points"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin?error=bad_points", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = h.Contribs.Approve(ctx, adminID, contribID, points)
	switch {
	case err == nil:
		h.Log.Info("contribution approved",
			zap.String("contribution_id", contribID.Hex()),
			zap.String("admin_id", adminID.Hex()),
			zap.Int64("points", points))
		http.Redirect(w, r, "/admin?ok=approved", http.StatusSeeOther)
	case errors.Is(err, contribstore.ErrBadPoints):
		http.Redirect(w, r, "/admin?error=bad_points", http.StatusSeeOther)
	case errors.Is(err, contribstore.ErrAlreadyProcessed):
		http.Redirect(w, r, "/admin?error=processed", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "approve contribution", err,
			"Could not approve the contribution.", "/admin")
	}
}

// ServeReject handles POST /admin/contributions/{id}/reject.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUserID(r)
	if !ok {
		http.Redirect(w, r, "/admin?error=internal", http.StatusSeeOther)
		return
	}
	contribID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = h.Contribs.Reject(ctx, adminID, contribID)
	switch {
	case err == nil:
		h.Log.Info("contribution rejected",
			zap.String("contribution_id", contribID.Hex()),
			zap.String("admin_id", adminID.Hex()))
		http.Redirect(w, r, "/admin?ok=rejected", http.StatusSeeOther)
	case errors.Is(err, contribstore.ErrAlreadyProcessed):
		http.Redirect(w, r, "/admin?error=processed", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "reject contribution", err,
			"Could not reject the contribution.", "/admin")
	}
}

// ServeReassign handles POST /admin/users/{id}/departments.
func (h *Handler) ServeReassign(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse reassign form", err, "Invalid form data.", "/admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = h.Ledger.AdminReassignDepartments(ctx, targetID, r.PostForm["departments"])
	switch {
	case err == nil:
		http.Redirect(w, r, "/admin?ok=reassigned", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrWrongSelectionCount), errors.Is(err, ledger.ErrUnknownDepartment):
		http.Redirect(w, r, "/admin?error=bad_selection", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrDepartmentFull):
		http.Redirect(w, r, "/admin?error=dept_full", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "reassign departments", err,
			"Could not update departments.", "/admin")
	}
}

// ServeReset handles POST /admin/users/{id}/reset — clears the member's
// selection and releases the seats so they can pick again.
func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = h.Ledger.ResetDepartments(ctx, targetID)
	switch {
	case err == nil:
		http.Redirect(w, r, "/admin?ok=reset", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "reset departments", err,
			"Could not reset the selection.", "/admin")
	}
}

// ServeSetRole handles POST /admin/users/{id}/role. Superadmin only; the
// route guard enforces that.
func (h *Handler) ServeSetRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse role form", err, "Invalid form data.", "/admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Users.SetRole(ctx, targetID, r.PostFormValue("role"))
	switch {
	case err == nil:
		h.Log.Info("role changed", zap.String("user_id", targetID.Hex()),
			zap.String("role", r.PostFormValue("role")))
		http.Redirect(w, r, "/admin?ok=role_set", http.StatusSeeOther)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Redirect(w, r, "/admin?error=not_found", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/admin?error=bad_role", http.StatusSeeOther)
	}
}

// ServeSeed handles POST /admin/departments/seed. Superadmin only.
func (h *Handler) ServeSeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Depts.Seed(ctx, deptstore.Defaults()); err != nil {
		h.ErrLog.LogServerError(w, r, "seed departments", err,
			"Could not seed departments.", "/admin")
		return
	}
	h.Log.Info("departments seeded")
	http.Redirect(w, r, "/admin?ok=seeded", http.StatusSeeOther)
}

// ServeCreateProject handles POST /admin/projects.
func (h *Handler) ServeCreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse project form", err, "Invalid form data.", "/admin")
		return
	}
	name := r.PostFormValue("name")
	department := r.PostFormValue("department")
	if department == "" {
		http.Redirect(w, r, "/admin?error=bad_project", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Depts.GetByID(ctx, department); err != nil {
		http.Redirect(w, r, "/admin?error=bad_project", http.StatusSeeOther)
		return
	}

	_, err := h.Projects.Create(ctx, name, r.PostFormValue("description"), department)
	switch {
	case err == nil:
		http.Redirect(w, r, "/admin?ok=project", http.StatusSeeOther)
	case errors.Is(err, projectstore.ErrDuplicateName):
		http.Redirect(w, r, "/admin?error=dup_project", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/admin?error=bad_project", http.StatusSeeOther)
	}
}

func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
