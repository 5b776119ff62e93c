package bootstrap

import (
	"strings"
	"testing"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "blood_donation",
		SessionKey:    "a-real-secret-of-reasonable-length-0001",
		AuditLogAuth:  "all",
		AuditLogAdmin: "db",
		AdminEmail:    "admin@bloodbridge.com",
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", env: "prod", mutate: func(*AppConfig) {}},
		{name: "dev key allowed in dev", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = devSessionKey }},
		{name: "dev key refused in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = devSessionKey }, wantErr: "session_key"},
		{name: "missing key", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = "" }, wantErr: "session_key"},
		{name: "missing database", env: "dev", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "bad audit mode", env: "dev", mutate: func(c *AppConfig) { c.AuditLogAdmin = "verbose" }, wantErr: "audit_log_admin"},
		{name: "negative rate limit", env: "dev", mutate: func(c *AppConfig) { c.LoginRateLimit = -1 }, wantErr: "login_rate_limit"},
		{name: "negative public write limit", env: "dev", mutate: func(c *AppConfig) { c.PublicWriteRateLimit = -1 }, wantErr: "public_write_rate_limit"},
		{name: "admin password without email", env: "dev", mutate: func(c *AppConfig) {
			c.AdminEmail = ""
			c.AdminPassword = "secret1"
		}, wantErr: "admin_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateAppConfig(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
