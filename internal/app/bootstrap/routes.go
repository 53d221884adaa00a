// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/AbnetS/bidir-group/internal/app/clients/stagesvc"
	acatsfeature "github.com/AbnetS/bidir-group/internal/app/features/acats"
	groupsfeature "github.com/AbnetS/bidir-group/internal/app/features/groups"
	healthfeature "github.com/AbnetS/bidir-group/internal/app/features/health"
	historiesfeature "github.com/AbnetS/bidir-group/internal/app/features/histories"
	loansfeature "github.com/AbnetS/bidir-group/internal/app/features/loans"
	screeningsfeature "github.com/AbnetS/bidir-group/internal/app/features/screenings"
	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	auditstore "github.com/AbnetS/bidir-group/internal/app/store/audit"
	clientstore "github.com/AbnetS/bidir-group/internal/app/store/clients"
	groupstore "github.com/AbnetS/bidir-group/internal/app/store/groups"
	historystore "github.com/AbnetS/bidir-group/internal/app/store/histories"
	proposalstore "github.com/AbnetS/bidir-group/internal/app/store/proposals"
	stagestore "github.com/AbnetS/bidir-group/internal/app/store/stages"
	taskstore "github.com/AbnetS/bidir-group/internal/app/store/tasks"
	"github.com/AbnetS/bidir-group/internal/app/system/auditlog"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores to the lifecycle
// controller, the controller to the feature handlers, and mounts every
// feature router.
//
// Handlers build per-request stage service clients through the registry so
// that the caller's authorization headers travel to the sibling services;
// the controller carries service-default clients as a fallback.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	groups := groupstore.New(db)
	histories := historystore.New(db)
	stages := stagestore.New(db)
	clients := clientstore.New(db)
	proposals := proposalstore.New(db)
	tasks := taskstore.New(db)
	audits := auditstore.New(db)

	auditor := auditlog.New(audits, logger, appCfg.AuditLogMode)
	oracle := authz.New()

	services := stagesvc.Registry{
		Screening: stagesvc.Config{BaseURL: appCfg.ScreeningServiceURL, Timeout: appCfg.StageServiceTimeout},
		Loan:      stagesvc.Config{BaseURL: appCfg.LoanServiceURL, Timeout: appCfg.StageServiceTimeout},
		ACAT:      stagesvc.Config{BaseURL: appCfg.ACATServiceURL, Timeout: appCfg.StageServiceTimeout},
	}

	ctrl := &lifecycle.Controller{
		Groups:    groups,
		Ledger:    histories,
		Stages:    stages,
		Apps:      stages,
		Clients:   clients,
		Proposals: proposals,
		Tasks:     tasks,
		Screening: stagesvc.NewScreening(services.Screening),
		Loan:      stagesvc.NewLoan(services.Loan),
		ACAT:      stagesvc.NewACAT(services.ACAT),
		Audit:     auditor,
		Log:       logger,
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	// Health check endpoint for load balancers and orchestrators.
	// Mounted outside the authz middleware: probes carry no identity.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Group(func(r chi.Router) {
		r.Use(authz.Middleware)

		groupsHandler := groupsfeature.NewHandler(ctrl, groups, clients, oracle, logger)
		r.Mount("/groups", groupsfeature.Routes(groupsHandler))

		screeningsHandler := screeningsfeature.NewHandler(ctrl, services, oracle, logger)
		r.Mount("/screenings", screeningsfeature.Routes(screeningsHandler))

		loansHandler := loansfeature.NewHandler(ctrl, services, oracle, logger)
		r.Mount("/loans", loansfeature.Routes(loansHandler))

		acatsHandler := acatsfeature.NewHandler(ctrl, services, oracle, logger)
		r.Mount("/acats", acatsfeature.Routes(acatsHandler))

		historiesHandler := historiesfeature.NewHandler(histories, groups, oracle, logger)
		r.Mount("/histories", historiesfeature.Routes(historiesHandler))
	})

	return r, nil
}
