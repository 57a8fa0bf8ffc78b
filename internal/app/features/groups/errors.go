// internal/app/features/groups/errors.go
package groups

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	"go.uber.org/zap"
)

// statusFor maps a groupstore error onto an HTTP status and the message
// shown to the client. Integrity and unknown faults never expose detail.
func statusFor(err error) (int, string) {
	switch groupstore.KindOf(err) {
	case groupstore.KindValidation:
		return http.StatusBadRequest, err.Error()
	case groupstore.KindNotFound:
		return http.StatusNotFound, err.Error()
	case groupstore.KindConflict:
		if errors.Is(err, groupstore.ErrIncorrectPassword) {
			return http.StatusForbidden, groupstore.ErrIncorrectPassword.Error()
		}
		return http.StatusConflict, groupstore.ErrGroupAlreadyExists.Error()
	case groupstore.KindForbidden:
		return http.StatusForbidden, groupstore.ErrNotMember.Error()
	case groupstore.KindTransient:
		return http.StatusServiceUnavailable, "service temporarily unavailable, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("groups request failed",
			zap.String("op", op),
			zap.String("kind", groupstore.KindOf(err).String()),
			zap.Error(err))
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	uierrors.WriteError(w, status, msg)
}
