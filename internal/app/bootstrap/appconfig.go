// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for BloodBridge.
//
// These values come from environment variables (BLOODBRIDGE_*), config
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging, CORS and body
// limits. Everything specific to this service lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey        string        // Secret key for signing session cookies (must be strong in production)
	SessionName       string        // Cookie name for sessions (default: bloodbridge.sid)
	SessionDomain     string        // Cookie domain (blank means current host)
	SessionTTL        time.Duration // Idle lifetime of a session
	SessionTouchAfter time.Duration // Minimum interval between lifetime extensions

	// Credential endpoint throttling
	LoginRateLimit  int           // Attempts per client IP per window (0 disables)
	LoginRateWindow time.Duration // Window for LoginRateLimit

	// Public write throttling (add-user, contact)
	PublicWriteRateLimit  int           // Requests per client IP per window (0 disables)
	PublicWriteRateWindow time.Duration // Window for PublicWriteRateLimit

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that sets those headers.
	TrustProxy bool

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// GoogleVerifySocial makes /social-login check the caller's Google
	// access token before creating a session.
	GoogleVerifySocial bool

	// Timeouts overrides the database deadlines. Zero fields keep the
	// defaults.
	Timeouts timeouts.Config

	// Admin bootstrap. Seeding is skipped when AdminPassword is blank.
	AdminEmail    string
	AdminPassword string
}
