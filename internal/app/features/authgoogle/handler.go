// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "clubhub-oauth-state"
	stateTTL        = 10 * time.Minute
)

// Handler runs the Google OAuth flow for member sign-in. Accounts are
// restricted to the configured email domain; the first successful sign-in
// creates the member record.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://clubhub.example/auth/google/callback"

	// AllowedDomain restricts sign-in to one email domain
	// (e.g. "vitstudent.ac.in"). Empty allows any domain.
	AllowedDomain string

	// state carries the anti-forgery token across the redirect hop as a
	// signed cookie, so no server-side state is needed.
	state *securecookie.SecureCookie
}

// NewHandler creates a Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	clientID, clientSecret, baseURL, allowedDomain, stateKey string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Log:           logger,
		SessionMgr:    sessionMgr,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		RedirectURL:   strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		AllowedDomain: strings.TrimPrefix(strings.ToLower(allowedDomain), "@"),
		state:         securecookie.New([]byte(stateKey), nil),
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// statePayload is what the signed state cookie carries.
type statePayload struct {
	Token     string `json:"token"`
	ReturnURL string `json:"return_url"`
	IssuedAt  int64  `json:"issued_at"`
}

// ServeLogin handles GET /auth/google: issues the state cookie and
// redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	token, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	payload := statePayload{
		Token:     token,
		ReturnURL: r.URL.Query().Get("return"),
		IssuedAt:  time.Now().Unix(),
	}
	encoded, err := h.state.Encode(stateCookieName, payload)
	if err != nil {
		h.Log.Error("failed to encode OAuth state cookie", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(token, oauth2.AccessTypeOnline), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates state,
// exchanges the code, verifies the email domain, and signs the user in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	payload, ok := h.validateState(r)
	clearStateCookie(w)
	if !ok {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if !h.emailAllowed(googleUser.Email) {
		h.Log.Info("sign-in rejected: wrong email domain",
			zap.String("email", googleUser.Email),
			zap.String("allowed_domain", h.AllowedDomain))
		// Drop any half-built session before bouncing back.
		_ = h.SessionMgr.SignOut(w, r)
		http.Redirect(w, r, "/login?error=wrong_domain", http.StatusSeeOther)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	user, err := h.Users.EnsureFromGoogle(dbCtx, googleUser.ID, googleUser.Email, googleUser.Name)
	if err != nil {
		h.Log.Error("failed to ensure user from Google identity", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Info("member signed in via Google",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", user.Role))

	dest := payload.ReturnURL
	if dest == "" || !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
		dest = "/dashboard"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// validateState checks the state query parameter against the signed cookie.
func (h *Handler) validateState(r *http.Request) (statePayload, bool) {
	var payload statePayload

	stateParam := r.URL.Query().Get("state")
	if stateParam == "" {
		h.Log.Warn("missing OAuth state parameter")
		return payload, false
	}
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.Log.Warn("missing OAuth state cookie")
		return payload, false
	}
	if err := h.state.Decode(stateCookieName, cookie.Value, &payload); err != nil {
		h.Log.Warn("invalid OAuth state cookie", zap.Error(err))
		return payload, false
	}
	if payload.Token != stateParam {
		h.Log.Warn("OAuth state mismatch")
		return payload, false
	}
	if time.Since(time.Unix(payload.IssuedAt, 0)) > stateTTL {
		h.Log.Warn("OAuth state expired")
		return payload, false
	}
	return payload, true
}

func (h *Handler) emailAllowed(email string) bool {
	if h.AllowedDomain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], h.AllowedDomain)
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Path:   "/auth/google",
		MaxAge: -1,
	})
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState returns a cryptographically random URL-safe token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
