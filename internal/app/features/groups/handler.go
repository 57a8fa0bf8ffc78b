// internal/app/features/groups/handler.go
package groups

import (
	"github.com/dalemusser/reelhub/internal/app/system/auditlog"
	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Groups   *groupstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a new groups Handler. audit may be nil.
func NewHandler(groups *groupstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Groups:   groups,
		AuditLog: audit,
		Log:      logger,
	}
}
