// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	articlesfeature "github.com/dalemusser/memberhub/internal/app/features/articles"
	communicationsfeature "github.com/dalemusser/memberhub/internal/app/features/communications"
	healthfeature "github.com/dalemusser/memberhub/internal/app/features/health"
	membershipsfeature "github.com/dalemusser/memberhub/internal/app/features/memberships"
	parametersfeature "github.com/dalemusser/memberhub/internal/app/features/parameters"
	preferencesfeature "github.com/dalemusser/memberhub/internal/app/features/preferences"
	articlestore "github.com/dalemusser/memberhub/internal/app/store/articles"
	communicationstore "github.com/dalemusser/memberhub/internal/app/store/communications"
	membershipstore "github.com/dalemusser/memberhub/internal/app/store/memberships"
	parameterstore "github.com/dalemusser/memberhub/internal/app/store/parameters"
	preferencestore "github.com/dalemusser/memberhub/internal/app/store/preferences"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. MemberHub mounts a JSON API: health is
// public, everything else sits behind the session middleware, and the
// feature handlers enforce role and organization access through gates and
// policies.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		secure, []byte(appCfg.TokenKey), logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MemberHubMongoDatabase

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context when the
	// request carries a valid cookie or bearer token.
	r.Use(sessionMgr.LoadSessionUser)

	// JSON envelopes for unmatched routes and wrong methods.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpjson.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpjson.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MemberHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Everything below requires a signed-in user; finer-grained role and
	// organization checks live in the handlers.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		prefsHandler := preferencesfeature.NewHandler(preferencestore.New(db), logger)
		r.Mount("/preferences", preferencesfeature.Routes(prefsHandler))

		membershipsHandler := membershipsfeature.NewHandler(membershipstore.New(db), logger)
		r.Mount("/memberships", membershipsfeature.Routes(membershipsHandler))

		parametersHandler := parametersfeature.NewHandler(parameterstore.New(db), logger)
		r.Mount("/parameters", parametersfeature.Routes(parametersHandler))

		articlesHandler := articlesfeature.NewHandler(articlestore.New(db), logger)
		r.Mount("/articles", articlesfeature.Routes(articlesHandler))

		coordinator := newDeliveryCoordinator(db, appCfg, logger)
		commsHandler := communicationsfeature.NewHandler(communicationstore.New(db), coordinator, logger)
		r.Mount("/communications", communicationsfeature.Routes(commsHandler))
	})

	return r, nil
}
