// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/reelhub/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given audit store and logger.
func NewHandler(events *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
	}
}
