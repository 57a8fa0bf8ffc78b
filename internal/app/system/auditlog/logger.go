// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/reelhub/internal/app/store/audit"
	"github.com/dalemusser/reelhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination values for Config fields.
const (
	All = "all" // store + zap
	DB  = "db"  // store only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Groups controls group events (created, member added, failed join).
	Groups string
	// Security controls security events (rejected API keys).
	Security string
}

// Logger provides convenience methods for logging audit events.
// It logs to the document store (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when every category is
// "log" or "off".
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers can run without auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryGroups:
		setting = l.config.Groups
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = All
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}

	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Group Events ---

// GroupCreated logs a successful CreateGroup.
func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, userID, group string) {
	e := requestEvent(r, audit.CategoryGroups, audit.EventGroupCreated)
	e.UserID = userID
	e.Success = true
	e.Details = map[string]string{"group": group}
	l.Log(ctx, e)
}

// MemberAddedToGroup logs a join that wrote at least one membership record.
func (l *Logger) MemberAddedToGroup(ctx context.Context, r *http.Request, userID, group, role string) {
	e := requestEvent(r, audit.CategoryGroups, audit.EventMemberAddedToGroup)
	e.UserID = userID
	e.Success = true
	e.Details = map[string]string{"group": group, "role": role}
	l.Log(ctx, e)
}

// GroupJoinFailedWrongPassword logs a join rejected for a bad password.
func (l *Logger) GroupJoinFailedWrongPassword(ctx context.Context, r *http.Request, userID, group string) {
	e := requestEvent(r, audit.CategoryGroups, audit.EventGroupJoinFailedWrongPassword)
	e.UserID = userID
	e.FailureReason = "incorrect password"
	e.Details = map[string]string{"group": group}
	l.Log(ctx, e)
}

// --- Security Events ---

// APIKeyRejected logs a request to an upload route with a missing or wrong
// X-API-KEY. It fits auth.RequireAPIKey's onReject hook.
func (l *Logger) APIKeyRejected(r *http.Request) {
	e := requestEvent(r, audit.CategorySecurity, audit.EventAPIKeyRejected)
	e.FailureReason = "invalid api key"
	e.Details = map[string]string{"path": r.URL.Path}
	l.Log(r.Context(), e)
}
