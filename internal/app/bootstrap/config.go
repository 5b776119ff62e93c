// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for BloodBridge.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BLOODBRIDGE_MONGO_URI, BLOODBRIDGE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "blood_donation", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "336h", Desc: "Session lifetime (e.g., 336h for 14 days)"},
	{Name: "session_touch_after", Default: "24h", Desc: "Minimum interval between session lifetime extensions"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Credential attempts per client IP per window (0 disables)"},
	{Name: "login_rate_window", Default: "1m", Desc: "Window for login_rate_limit"},
	{Name: "public_write_rate_limit", Default: 30, Desc: "Public add-user and contact requests per client IP per window (0 disables)"},
	{Name: "public_write_rate_window", Default: "1m", Desc: "Window for public_write_rate_limit"},
	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Social login
	{Name: "google_verify_social", Default: false, Desc: "Verify the Google access token sent to /social-login"},

	// Database deadlines (0 keeps the built-in default)
	{Name: "db_timeout_short", Default: "0s", Desc: "Deadline for single-document operations"},
	{Name: "db_timeout_medium", Default: "0s", Desc: "Deadline for lists and aggregations"},
	{Name: "db_timeout_long", Default: "0s", Desc: "Deadline for startup work (connect, indexes, admin seed)"},

	// Admin bootstrap
	{Name: "admin_email", Default: "admin@bloodbridge.com", Desc: "Email of the admin account ensured on startup"},
	{Name: "admin_password", Default: "", Desc: "Password for the admin account (blank skips seeding)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, BLOODBRIDGE_* for app) and
// command-line flags with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BLOODBRIDGE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:        appValues.String("session_key"),
		SessionName:       appValues.String("session_name"),
		SessionDomain:     appValues.String("session_domain"),
		SessionTTL:        appValues.Duration("session_ttl", auth.DefaultTTL),
		SessionTouchAfter: appValues.Duration("session_touch_after", auth.DefaultTouchAfter),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),

		PublicWriteRateLimit:  appValues.Int("public_write_rate_limit"),
		PublicWriteRateWindow: appValues.Duration("public_write_rate_window", time.Minute),
		TrustProxy:            appValues.Bool("trust_proxy"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleVerifySocial: appValues.Bool("google_verify_social"),

		Timeouts: timeouts.Config{
			Short:  appValues.Duration("db_timeout_short", 0),
			Medium: appValues.Duration("db_timeout_medium", 0),
			Long:   appValues.Duration("db_timeout_long", 0),
		},

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection attempt. In production
// the development session key is refused.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(coreCfg.Env, appCfg)
}

func validateAppConfig(env string, appCfg AppConfig) error {
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if appCfg.SessionKey == "" {
		return errors.New("session_key is required")
	}
	if env == "prod" && appCfg.SessionKey == devSessionKey {
		return errors.New("session_key must be changed in production")
	}
	for name, mode := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		switch mode {
		case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, mode)
		}
	}
	if appCfg.LoginRateLimit < 0 {
		return errors.New("login_rate_limit must not be negative")
	}
	if appCfg.PublicWriteRateLimit < 0 {
		return errors.New("public_write_rate_limit must not be negative")
	}
	if appCfg.AdminPassword != "" && appCfg.AdminEmail == "" {
		return errors.New("admin_password is set but admin_email is blank")
	}
	return nil
}
