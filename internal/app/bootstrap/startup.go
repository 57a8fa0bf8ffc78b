// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/dalemusser/reelhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Upload: appCfg.UploadTimeout})

	if appCfg.StoreMonitorEvery > 0 && deps.rt != nil {
		m := workers.NewStoreMonitor(deps.Store, logger, appCfg.StoreMonitorEvery, timeouts.Ping())
		m.Start()
		deps.rt.mu.Lock()
		deps.rt.monitor = m
		deps.rt.mu.Unlock()
	}
	return nil
}
