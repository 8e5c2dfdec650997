// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/KMohnishM/Cys-FFCS/internal/app/resources"
	deptstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/departments"
	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// shared templates, optionally seeds the club departments, and makes sure
// the configured superadmin account exists.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SeedDepartments {
		if err := deptstore.New(deps.MongoDatabase).Seed(ctx, deptstore.Defaults()); err != nil {
			return err
		}
		logger.Info("default departments seeded")
	}

	if appCfg.SuperAdminEmail != "" {
		users := userstore.New(deps.MongoDatabase)
		if err := users.EnsureSuperAdmin(ctx, appCfg.SuperAdminEmail, appCfg.SuperAdminName, appCfg.SuperAdminPassword); err != nil {
			return err
		}
		logger.Info("superadmin ensured", zap.String("email", appCfg.SuperAdminEmail))
	}

	return nil
}
