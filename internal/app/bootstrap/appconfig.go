// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Store backends selectable with store_backend.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//
// Vendor credentials are optional. A route whose vendor is not configured
// answers 503 instead of failing startup.
type AppConfig struct {
	// Document store
	StoreBackend     string // "mongo", "postgres" or "memory"
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	PostgresDSN      string // Required when StoreBackend is "postgres"

	// Redis for shared rate limit counters (blank means in-process limits)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Group passwords
	BcryptCost int

	// Request identity
	JWTSecret    string        // HS256 key for bearer tokens on /groups
	JWTTTL       time.Duration // lifetime of issued tokens (0 = no expiry)
	UploadSecret string        // X-API-KEY value for reel uploads

	// Image generation
	ImageBaseURL        string // prompt is appended, path-escaped
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Spotify search
	SpotifyClientID     string
	SpotifyClientSecret string

	// Telegram video storage
	TelegramBotToken string
	TelegramChatID   string

	// YouTube publishing
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string

	// Limits and timeouts
	RateLimitDefault  int           // requests per minute per client IP
	UploadTimeout     time.Duration // deadline for vendor uploads
	MaxBodyBytes      int64         // request body cap
	StoreMonitorEvery time.Duration // store ping interval (0 disables)

	// Audit logging: "all", "db", "log" or "off"
	AuditLogGroups   string
	AuditLogSecurity string
}
