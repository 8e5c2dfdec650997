package departments

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	deptstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/departments"
	"github.com/KMohnishM/Cys-FFCS/internal/app/store/ledger"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the department list and the one-time two-department
// selection. Selection is final for members; only an admin can change it
// afterwards.
type Handler struct {
	Users  *userstore.Store
	Depts  *deptstore.Store
	Ledger *ledger.Ledger
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Depts:  deptstore.New(db),
		Ledger: ledger.New(db, logger),
		ErrLog: errLog,
		Log:    logger,
	}
}

// deptRow is one department as shown on the selection page.
type deptRow struct {
	models.Department
	Full     bool
	Selected bool
}

type pageData struct {
	viewdata.BaseVM
	Departments []deptRow
	HasSelected bool
	Required    int
	Error       string
}

var selectErrors = map[string]string{
	"count":    "Pick exactly two departments.",
	"selected": "You have already picked your departments. Ask an admin to change them.",
	"unknown":  "One of the departments no longer exists. Please try again.",
	"full":     "One of the departments filled up before your selection saved. Pick again.",
	"internal": "Something went wrong. Please try again.",
}

// ServeList handles GET /departments.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	depts, err := h.Depts.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list departments", err,
			"Could not load departments.", "/dashboard")
		return
	}

	data := pageData{
		BaseVM:   viewdata.NewBaseVM(r, "Departments", "/dashboard"),
		Required: ledger.RequiredDepartments,
		Error:    selectErrors[r.URL.Query().Get("error")],
	}

	var mine []string
	if su != nil {
		if userID, err := primitive.ObjectIDFromHex(su.ID); err == nil {
			if u, err := h.Users.GetByID(ctx, userID); err == nil {
				mine = u.Departments
			}
		}
	}
	data.HasSelected = len(mine) > 0

	for _, d := range depts {
		row := deptRow{Department: d, Full: !d.HasSeat()}
		for _, id := range mine {
			if id == d.ID {
				row.Selected = true
			}
		}
		data.Departments = append(data.Departments, row)
	}

	templates.Render(w, r, "departments", data)
}

// ServeSelect handles POST /departments/select: exactly two checkboxes,
// committed atomically against seat capacity.
func (h *Handler) ServeSelect(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/departments?error=internal", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse selection form", err,
			"Invalid form data.", "/departments")
		return
	}
	picks := r.PostForm["departments"]

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = h.Ledger.SelectDepartments(ctx, userID, picks)
	switch {
	case err == nil:
		h.Log.Info("departments selected",
			zap.String("user_id", su.ID), zap.Strings("departments", picks))
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrWrongSelectionCount):
		http.Redirect(w, r, "/departments?error=count", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrAlreadySelected):
		http.Redirect(w, r, "/departments?error=selected", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrUnknownDepartment):
		http.Redirect(w, r, "/departments?error=unknown", http.StatusSeeOther)
	case errors.Is(err, ledger.ErrDepartmentFull):
		http.Redirect(w, r, "/departments?error=full", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "department selection failed", err,
			"Could not save your selection.", "/departments")
	}
}
