// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditfeature "github.com/bloodbridge/bloodbridge/internal/app/features/auditlog"
	blogsfeature "github.com/bloodbridge/bloodbridge/internal/app/features/blogs"
	contactfeature "github.com/bloodbridge/bloodbridge/internal/app/features/contact"
	donationsfeature "github.com/bloodbridge/bloodbridge/internal/app/features/donations"
	donorsfeature "github.com/bloodbridge/bloodbridge/internal/app/features/donors"
	healthfeature "github.com/bloodbridge/bloodbridge/internal/app/features/health"
	homefeature "github.com/bloodbridge/bloodbridge/internal/app/features/home"
	loginfeature "github.com/bloodbridge/bloodbridge/internal/app/features/login"
	logoutfeature "github.com/bloodbridge/bloodbridge/internal/app/features/logout"
	userinfofeature "github.com/bloodbridge/bloodbridge/internal/app/features/userinfo"
	usersfeature "github.com/bloodbridge/bloodbridge/internal/app/features/users"
	"github.com/bloodbridge/bloodbridge/internal/app/services/authn"
	sessionstore "github.com/bloodbridge/bloodbridge/internal/app/store/sessions"
	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/metrics"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/app/system/ratelimit"
	"github.com/bloodbridge/bloodbridge/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MsgNotFound is the body of unmatched routes.
const MsgNotFound = "Not found"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. WAFFLE's core already applies CORS and
// body limits around the returned handler.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"

	store := sessionstore.New(deps.MongoDatabase, []byte(appCfg.SessionKey))
	sessionMgr, err := auth.NewSessionManager(store, auth.Config{
		Name:       appCfg.SessionName,
		Domain:     appCfg.SessionDomain,
		TTL:        appCfg.SessionTTL,
		TouchAfter: appCfg.SessionTouchAfter,
		Secure:     secure,
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	var opts []authn.Option
	if appCfg.GoogleVerifySocial {
		opts = append(opts, authn.WithVerifier(authn.GoogleVerifier{}))
	}

	var limiter *ratelimit.LoginLimiter
	if appCfg.LoginRateLimit > 0 {
		limiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
		if deps.Background != nil {
			deps.Background.LoginLimiter = limiter
		}
	}

	var writeLimiter *ratelimit.Limiter
	if appCfg.PublicWriteRateLimit > 0 {
		writeLimiter = ratelimit.New(appCfg.PublicWriteRateLimit, appCfg.PublicWriteRateWindow)
		if deps.Background != nil {
			deps.Background.WriteLimiter = writeLimiter
		}
	}

	return newRouter(routerDeps{
		DB:         deps.MongoDatabase,
		Client:     deps.MongoClient,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Writes:     writeLimiter,
		TrustProxy: appCfg.TrustProxy,
		Metrics:    metrics.NewDefault(),
		AuditCfg:   appCfg,
		AuthnOpts:  opts,
	}, logger)
}

// routerDeps is what newRouter needs beyond the logger. Tests build it with a
// cookie-backed session manager and no limiters.
type routerDeps struct {
	DB         *mongo.Database
	Client     *mongo.Client
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Writes     *ratelimit.Limiter // throttles public writes; nil disables
	TrustProxy bool
	Metrics    *metrics.Metrics
	AuditCfg   AppConfig
	AuthnOpts  []authn.Option
	Hasher     password.Hasher
}

func newRouter(d routerDeps, logger *zap.Logger) (http.Handler, error) {
	hasher := d.Hasher
	if hasher == nil {
		hasher = password.NewBcrypt()
	}
	audit := newAuditLogger(d.AuditCfg, DBDeps{MongoDatabase: d.DB}, logger)

	authSvc, err := authn.New(userstore.New(d.DB), hasher, logger, d.AuthnOpts...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Behind a trusted proxy the forwarded client address replaces
	// RemoteAddr; rate limits and audit records read RemoteAddr only.
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestlog.RequestID)
	r.Use(requestlog.AccessLog(logger))
	r.Use(d.Metrics.Middleware)

	// Global auth middleware: loads the session snapshot into context if
	// signed in. Handlers read it via auth.CurrentUser(r).
	r.Use(d.SessionMgr.LoadSessionUser)

	var publicWrite []func(http.Handler) http.Handler
	if d.Writes != nil {
		publicWrite = append(publicWrite, ratelimit.PerIP(d.Writes))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Message(w, http.StatusNotFound, MsgNotFound)
	})

	// Liveness and readiness
	homefeature.MountRoutes(r, homefeature.NewHandler(logger))
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(d.Client, logger)))
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(authSvc, d.SessionMgr, d.Limiter, audit, d.Metrics, logger)
	loginfeature.MountRoutes(r, loginHandler)

	logoutHandler := logoutfeature.NewHandler(d.SessionMgr, audit, logger)
	logoutfeature.MountRoutes(r, logoutHandler)

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(), d.SessionMgr)

	// Accounts
	usersHandler := usersfeature.NewHandler(d.DB, hasher, d.SessionMgr, audit, d.Metrics, logger)
	usersfeature.MountRoutes(r, usersHandler, d.SessionMgr, publicWrite...)

	// Donation requests and donor commitments
	donationsfeature.MountRoutes(r, donationsfeature.NewHandler(d.DB, audit, logger), d.SessionMgr)
	donorsfeature.MountRoutes(r, donorsfeature.NewHandler(d.DB, logger), d.SessionMgr)

	// Content
	blogsfeature.MountRoutes(r, blogsfeature.NewHandler(d.DB, audit, logger), d.SessionMgr)
	contactfeature.MountRoutes(r, contactfeature.NewHandler(d.DB, logger), d.SessionMgr, publicWrite...)

	// Administration
	auditfeature.MountRoutes(r, auditfeature.NewHandler(d.DB, logger), d.SessionMgr)

	return r, nil
}
