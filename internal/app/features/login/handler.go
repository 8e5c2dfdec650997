package login

import (
	"net/http"
	"strings"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the sign-in page and the admin password sign-in. Members
// sign in with Google (see the authgoogle feature); the password form is
// for admin and superadmin accounts only.
type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type pageData struct {
	viewdata.BaseVM
	Error     string
	ReturnURL string
}

// errorMessages maps login error codes (carried in the query string) to
// user-visible text.
var errorMessages = map[string]string{
	"bad_credentials":       "Email or password is incorrect.",
	"not_admin":             "This sign-in is for admin accounts. Members sign in with Google.",
	"wrong_domain":          "Use your institute Google account to sign in.",
	"google_denied":         "Google sign-in was cancelled.",
	"google_not_configured": "Google sign-in is not configured. Contact an admin.",
	"invalid_state":         "Sign-in expired. Please try again.",
	"internal":              "Something went wrong. Please try again.",
}

// ServePage handles GET /login.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:     errorMessages[r.URL.Query().Get("error")],
		ReturnURL: r.URL.Query().Get("return"),
	}
	templates.Render(w, r, "login", data)
}

// ServeAdminLogin handles POST /login/admin — email + password for staff.
func (h *Handler) ServeAdminLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/login?error=bad_credentials", http.StatusSeeOther)
		return
	}

	u, err := h.Users.VerifyPassword(r.Context(), email, password)
	if err != nil {
		// One message for unknown email and wrong password.
		h.Log.Info("admin sign-in rejected", zap.String("email", email))
		http.Redirect(w, r, "/login?error=bad_credentials", http.StatusSeeOther)
		return
	}
	if u.Role != models.RoleAdmin && u.Role != models.RoleSuperAdmin {
		h.Log.Warn("password sign-in attempted by non-admin account",
			zap.String("email", email), zap.String("role", u.Role))
		http.Redirect(w, r, "/login?error=not_admin", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "Could not sign you in.", "/login")
		return
	}

	h.Log.Info("admin signed in", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, safeReturn(r.PostFormValue("return"), "/admin"), http.StatusSeeOther)
}

// safeReturn allows only same-site relative paths as post-login targets.
func safeReturn(ret, fallback string) string {
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") {
		return fallback
	}
	return ret
}
