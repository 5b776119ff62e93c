// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background helpers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if bg := deps.Background; bg != nil {
		if bg.LoginLimiter != nil {
			bg.LoginLimiter.Stop()
			bg.LoginLimiter = nil
		}
		if bg.WriteLimiter != nil {
			bg.WriteLimiter.Stop()
			bg.WriteLimiter = nil
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting BloodBridge MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
