// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/reelhub/internal/app/system/auditlog"
	"github.com/dalemusser/reelhub/internal/app/system/authutil"
	"github.com/dalemusser/reelhub/internal/app/system/limits"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the built-in default. ValidateConfig refuses it in prod.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for reelhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: REELHUB_MONGO_URI, REELHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Document store: 'mongo', 'postgres' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (replica set required for transactions)"},
	{Name: "mongo_database", Default: "reelhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "postgres_dsn", Default: "", Desc: "PostgreSQL DSN (store_backend=postgres)"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limits (blank = in-process)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "bcrypt_cost", Default: 10, Desc: "bcrypt cost for group passwords"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing key for bearer tokens (must be strong in production)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Lifetime of issued bearer tokens (0 = no expiry)"},
	{Name: "upload_secret", Default: "", Desc: "X-API-KEY value required by the upload routes"},

	// Image generation
	{Name: "image_base_url", Default: "https://image.pollinations.ai/prompt/", Desc: "Image generator URL; the prompt is appended"},
	{Name: "cloudinary_cloud_name", Default: "", Desc: "Cloudinary cloud name"},
	{Name: "cloudinary_api_key", Default: "", Desc: "Cloudinary API key"},
	{Name: "cloudinary_api_secret", Default: "", Desc: "Cloudinary API secret"},

	// Spotify
	{Name: "spotify_client_id", Default: "", Desc: "Spotify client id"},
	{Name: "spotify_client_secret", Default: "", Desc: "Spotify client secret"},

	// Telegram
	{Name: "telegram_bot_token", Default: "", Desc: "Telegram bot token"},
	{Name: "telegram_chat_id", Default: "", Desc: "Telegram chat that stores reels"},

	// YouTube
	{Name: "youtube_client_id", Default: "", Desc: "Google OAuth2 client id"},
	{Name: "youtube_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "youtube_refresh_token", Default: "", Desc: "Refresh token of the channel owner"},

	// Limits
	{Name: "rate_limit_default", Default: 60, Desc: "Requests per minute per client IP on routes without their own limit"},
	{Name: "upload_timeout", Default: "5m", Desc: "Deadline for vendor uploads (e.g., 5m)"},
	{Name: "max_body_bytes", Default: limits.MaxRequestBody, Desc: "Request body cap in bytes"},
	{Name: "store_monitor_interval", Default: "30s", Desc: "How often the store is pinged in the background (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_groups", Default: auditlog.All, Desc: "Group event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: auditlog.All, Desc: "Security event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, REELHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "REELHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend:     appValues.String("store_backend"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		PostgresDSN:      appValues.String("postgres_dsn"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		BcryptCost: appValues.Int("bcrypt_cost"),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTTTL:       appValues.Duration("jwt_ttl", 24*time.Hour),
		UploadSecret: appValues.String("upload_secret"),

		ImageBaseURL:        appValues.String("image_base_url"),
		CloudinaryCloudName: appValues.String("cloudinary_cloud_name"),
		CloudinaryAPIKey:    appValues.String("cloudinary_api_key"),
		CloudinaryAPISecret: appValues.String("cloudinary_api_secret"),

		SpotifyClientID:     appValues.String("spotify_client_id"),
		SpotifyClientSecret: appValues.String("spotify_client_secret"),

		TelegramBotToken: appValues.String("telegram_bot_token"),
		TelegramChatID:   appValues.String("telegram_chat_id"),

		YouTubeClientID:     appValues.String("youtube_client_id"),
		YouTubeClientSecret: appValues.String("youtube_client_secret"),
		YouTubeRefreshToken: appValues.String("youtube_refresh_token"),

		RateLimitDefault:  appValues.Int("rate_limit_default"),
		UploadTimeout:     appValues.Duration("upload_timeout", 5*time.Minute),
		MaxBodyBytes:      int64(appValues.Int("max_body_bytes")),
		StoreMonitorEvery: appValues.Duration("store_monitor_interval", 30*time.Second),

		AuditLogGroups:   appValues.String("audit_log_groups"),
		AuditLogSecurity: appValues.String("audit_log_security"),
	}

	if appCfg.UploadSecret == "" {
		logger.Warn("upload_secret is empty; upload routes will reject every request")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Connection strings are checked here so that typos fail fast, before
// any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return errors.New("mongo_database is required")
		}
	case BackendPostgres:
		if appCfg.PostgresDSN == "" {
			return errors.New("store_backend=postgres requires postgres_dsn")
		}
	case BackendMemory:
		logger.Warn("using the in-memory store; data is lost on restart")
	default:
		return fmt.Errorf("unknown store_backend %q (want mongo, postgres or memory)", appCfg.StoreBackend)
	}

	if _, err := authutil.NewHasher(appCfg.BcryptCost); err != nil {
		return fmt.Errorf("bcrypt_cost: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return errors.New("jwt_secret must be changed from the development default in prod")
	}

	if appCfg.RateLimitDefault <= 0 {
		return fmt.Errorf("rate_limit_default must be positive, got %d", appCfg.RateLimitDefault)
	}
	if appCfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", appCfg.MaxBodyBytes)
	}

	for key, v := range map[string]string{
		"audit_log_groups":   appCfg.AuditLogGroups,
		"audit_log_security": appCfg.AuditLogSecurity,
	} {
		switch v {
		case "", auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s: unknown value %q", key, v)
		}
	}

	return nil
}
