// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/store/audit"
	"github.com/dalemusser/reelhub/internal/app/system/auth"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type listResponse struct {
	Events []audit.Event `json:"events"`
}

// ServeMine handles GET /audit/me: the caller's own audit events, newest
// first. Optional query parameters: event_type, limit (1..200).
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		uierrors.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}
	eventType := normalize.QueryParam(r.URL.Query().Get("event_type"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	var (
		events []audit.Event
		err    error
	)
	if eventType != "" {
		events, err = h.Events.GetByUserAndType(ctx, uid, eventType, limit)
	} else {
		events, err = h.Events.GetByUser(ctx, uid, limit)
	}
	if err != nil {
		h.Log.Warn("audit log list failed", zap.String("user_id", uid), zap.Error(err))
		uierrors.WriteError(w, http.StatusServiceUnavailable, "audit log unavailable")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{Events: events})
}

func parseLimit(s string) (int, bool) {
	s = normalize.QueryParam(s)
	if s == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxLimit {
		return 0, false
	}
	return n, true
}
