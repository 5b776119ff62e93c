// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditstore "github.com/bloodbridge/bloodbridge/internal/app/store/audit"
	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the schema is in place and
// before the handler is built. It ensures the admin account exists when an
// admin password is configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminPassword == "" {
		logger.Info("admin seeding skipped (admin_password not set)")
		return nil
	}

	seedCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	audit := newAuditLogger(appCfg, deps, logger)
	return ensureAdmin(seedCtx, deps, appCfg.AdminEmail, appCfg.AdminPassword, password.NewBcrypt(), audit, logger)
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// ensureAdmin creates the admin account, or forces an existing account with
// that email to role admin, status active and the configured password. A
// blank name becomes "Admin"; other fields are left alone.
func ensureAdmin(ctx context.Context, deps DBDeps, email, plain string, hasher password.Hasher, audit *auditlog.Logger, logger *zap.Logger) error {
	if !password.LongEnough(plain) {
		return fmt.Errorf("admin_password must be at least %d characters", password.MinLength)
	}
	digest, err := hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	users := userstore.New(deps.MongoDatabase)
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		u, err := users.Insert(ctx, models.User{
			Email:     email,
			Name:      "Admin",
			Password:  digest,
			Role:      models.RoleAdmin,
			Status:    models.StatusActive,
			CreatedAt: models.Timestamp(time.Now()),
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("admin account created", zap.String("email", u.Email))
		audit.AdminSeeded(ctx, u.ID.Hex(), u.Email)
		return nil
	case err != nil:
		return fmt.Errorf("look up admin: %w", err)
	}

	set := bson.M{
		"role":     models.RoleAdmin,
		"status":   models.StatusActive,
		"password": digest,
	}
	if existing.Name == "" {
		set["name"] = "Admin"
	}
	if _, err := users.UpdateByID(ctx, existing.ID.Hex(), set); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	logger.Info("admin account updated", zap.String("email", existing.Email))
	audit.AdminSeeded(ctx, existing.ID.Hex(), existing.Email)
	return nil
}
