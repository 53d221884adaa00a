// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("group service starting",
		zap.String("screening_service", appCfg.ScreeningServiceURL),
		zap.String("loan_service", appCfg.LoanServiceURL),
		zap.String("acat_service", appCfg.ACATServiceURL),
		zap.String("audit_log_mode", appCfg.AuditLogMode))
	return nil
}
