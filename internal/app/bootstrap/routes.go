// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/reelhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/reelhub/internal/app/features/errors"
	generatefeature "github.com/dalemusser/reelhub/internal/app/features/generate"
	groupsfeature "github.com/dalemusser/reelhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/reelhub/internal/app/features/health"
	reelsfeature "github.com/dalemusser/reelhub/internal/app/features/reels"
	searchfeature "github.com/dalemusser/reelhub/internal/app/features/search"
	"github.com/dalemusser/reelhub/internal/app/store/audit"
	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	userstore "github.com/dalemusser/reelhub/internal/app/store/users"
	"github.com/dalemusser/reelhub/internal/app/system/auditlog"
	"github.com/dalemusser/reelhub/internal/app/system/auth"
	"github.com/dalemusser/reelhub/internal/app/system/authutil"
	"github.com/dalemusser/reelhub/internal/app/system/limits"
	"github.com/dalemusser/reelhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Per-route limits, per client IP per minute. Every route also counts
// against rate_limit_default.
const (
	generateLimit = 20
	searchLimit   = 30
	youtubeLimit  = 5
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// reelhub builds the group store on the configured document store, wires the
// upstream vendor clients, and mounts:
//   - /health
//   - /groups and /audit (bearer token)
//   - /generate and /search
//   - /upload-reel, /upload-reel-yt (X-API-KEY) and /video-url/{fileID}
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	hasher, err := authutil.NewHasher(appCfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.Store)
	groups := groupstore.New(deps.Store, users, hasher, logger)
	auditEvents := audit.New(deps.Store)
	auditLog := auditlog.New(auditEvents, logger, auditlog.Config{
		Groups:   appCfg.AuditLogGroups,
		Security: appCfg.AuditLogSecurity,
	})

	v, err := buildVendors(context.Background(), appCfg, logger)
	if err != nil {
		logger.Error("vendor client init failed", zap.Error(err))
		return nil, err
	}

	var rdb redis.Cmdable
	if deps.Redis != nil {
		rdb = deps.Redis
	}
	limit := func(name string, perMinute int) func(http.Handler) http.Handler {
		p := ratelimit.Policy{Name: name, Limit: perMinute, Window: time.Minute}
		b := ratelimit.NewBackend(p, rdb, logger)
		deps.rt.addLimiter(b)
		return ratelimit.Middleware(b, p, logger)
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(limits.MaxBody(appCfg.MaxBodyBytes))
	r.Use(limit("default", appCfg.RateLimitDefault))
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Group membership
	requireUser := auth.RequireBearer(tokens, logger)
	groupsHandler := groupsfeature.NewHandler(groups, auditLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, requireUser))

	// The caller's own audit trail
	auditHandler := auditlogfeature.NewHandler(auditEvents, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, requireUser))

	// Upstream proxies
	generateHandler := generatefeature.NewHandler(appCfg.ImageBaseURL, v.images, logger)
	r.With(limit("generate", generateLimit)).Mount("/generate", generatefeature.Routes(generateHandler))

	searchHandler := searchfeature.NewHandler(v.tracks, logger)
	r.With(limit("search", searchLimit)).Mount("/search", searchfeature.Routes(searchHandler))

	// Reels
	reelsHandler := reelsfeature.NewHandler(v.videos, v.youtube, logger)
	reelsfeature.Register(r, reelsHandler,
		auth.RequireAPIKey(appCfg.UploadSecret, auditLog.APIKeyRejected),
		limit("upload-reel-yt", youtubeLimit))

	return r, nil
}
