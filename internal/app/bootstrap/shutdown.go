// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.rt; rt != nil {
		rt.mu.Lock()
		if rt.monitor != nil {
			rt.monitor.Stop()
		}
		for _, l := range rt.limiters {
			l.Close()
		}
		rt.limiters = nil
		rt.mu.Unlock()
	}

	var errs []error
	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("Redis close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.Store != nil {
		logger.Info("closing document store", zap.String("backend", appCfg.StoreBackend))
		if err := deps.Store.Close(ctx); err != nil {
			logger.Error("document store close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
