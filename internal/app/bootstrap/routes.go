// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/admin"
	authgooglefeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/authgoogle"
	contributionsfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/contributions"
	dashboardfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/dashboard"
	departmentsfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/departments"
	errorsfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	healthfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/health"
	homefeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/home"
	leaderboardfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/leaderboard"
	loginfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/login"
	logoutfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/logout"
	projectsfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/projects"
	uploadsfeature "github.com/KMohnishM/Cys-FFCS/internal/app/features/uploads"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ClubHub initializes the template engine,
// applies session middleware, and mounts feature routers for the public
// pages, authentication, member flows (departments, projects, contributions,
// leaderboard), and the admin console.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role changes and removals take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(
		deps.MongoDatabase, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.AllowedEmailDomain, appCfg.SessionKey,
		logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.NotFound(errorsHandler.NotFound)

	// Member area
	dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	departmentsHandler := departmentsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/departments", departmentsfeature.Routes(departmentsHandler, sessionMgr))

	projectsHandler := projectsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))

	contributionsHandler := contributionsfeature.NewHandler(deps.MongoDatabase, deps.Storage, errLog, logger)
	r.Mount("/contributions", contributionsfeature.Routes(contributionsHandler, sessionMgr))

	leaderboardHandler := leaderboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/leaderboard", leaderboardfeature.Routes(leaderboardHandler, sessionMgr))

	// Admin console
	adminHandler := adminfeature.NewHandler(deps.MongoDatabase, deps.Storage, errLog, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	// JSON upload endpoint for the rich-text editor
	uploadsHandler := uploadsfeature.NewHandler(deps.Storage, logger)
	r.Mount("/api/uploads", uploadsfeature.Routes(uploadsHandler))

	return r, nil
}
