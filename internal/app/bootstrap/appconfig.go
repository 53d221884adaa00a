// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, CORS, and request body size limits. AppConfig
// is where everything specific to this service lives: the MongoDB
// connection, the base URLs of the sibling stage services this service
// calls during cycle operations, and audit logging behavior.
type AppConfig struct {
	// MongoDB connection configuration. The stage services share this
	// database, so member-level application documents written by them are
	// read directly from the same collections.
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Sibling stage services. Group cycle operations fan out to these
	// to create per-member applications.
	ScreeningServiceURL string // Base URL of the screening service
	LoanServiceURL      string // Base URL of the loan service
	ACATServiceURL      string // Base URL of the ACAT service
	StageServiceTimeout time.Duration // Per-call timeout for stage service requests

	// Audit logging: "all" (db+log), "db", "log", or "off".
	AuditLogMode string
}
