// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the group service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, screening_service_url, etc.
//   - Environment variables: BIDIRGROUP_MONGO_URI, BIDIRGROUP_SCREENING_SERVICE_URL, etc.
//   - Command-line flags: --mongo_uri, --screening_service_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "bidir", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Sibling stage services called during group cycle operations.
	{Name: "screening_service_url", Default: "http://localhost:8040", Desc: "Base URL of the screening service"},
	{Name: "loan_service_url", Default: "http://localhost:8050", Desc: "Base URL of the loan service"},
	{Name: "acat_service_url", Default: "http://localhost:8060", Desc: "Base URL of the ACAT service"},
	{Name: "stage_service_timeout", Default: "30s", Desc: "Per-call timeout for stage service requests (e.g., 30s, 1m)"},

	// Audit logging settings
	{Name: "audit_log_mode", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this service.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BIDIRGROUP_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BIDIRGROUP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		ScreeningServiceURL: appValues.String("screening_service_url"),
		LoanServiceURL:      appValues.String("loan_service_url"),
		ACATServiceURL:      appValues.String("acat_service_url"),
		StageServiceTimeout: appValues.Duration("stage_service_timeout", 30*time.Second),

		AuditLogMode: appValues.String("audit_log_mode"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This catches configuration errors early, before attempting to connect
// to MongoDB or build any handlers.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	for _, svc := range []struct {
		name string
		url  string
	}{
		{"screening_service_url", appCfg.ScreeningServiceURL},
		{"loan_service_url", appCfg.LoanServiceURL},
		{"acat_service_url", appCfg.ACATServiceURL},
	} {
		if svc.url == "" {
			return fmt.Errorf("%s must be set", svc.name)
		}
	}

	switch appCfg.AuditLogMode {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_mode must be one of 'all', 'db', 'log', 'off'; got %q", appCfg.AuditLogMode)
	}

	return nil
}
