// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the task runner and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if taskRunner != nil {
		logger.Info("stopping scheduled-task runner")
		taskRunner.Stop()
		taskRunner = nil
	}

	if deps.MemberHubMongoClient != nil {
		logger.Info("disconnecting MemberHub MongoDB client")
		if err := deps.MemberHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
