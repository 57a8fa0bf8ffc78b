// internal/app/features/groups/membership.go
package groups

import (
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	"github.com/dalemusser/reelhub/internal/app/system/auth"
	"github.com/dalemusser/reelhub/internal/app/system/limits"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/dalemusser/reelhub/internal/domain/models"
)

// groupRequest is the body of POST /groups and POST /groups/join.
type groupRequest struct {
	GroupName string `json:"group_name"`
	Password  string `json:"password"`
}

type groupIDResponse struct {
	GroupID string `json:"group_id"`
}

func decodeGroupRequest(w http.ResponseWriter, r *http.Request) (groupRequest, bool) {
	var req groupRequest
	body := http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeGroupRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	name, err := h.Groups.CreateGroup(ctx, uid, req.GroupName, req.Password)
	if err != nil {
		h.writeStoreError(w, "create group", err)
		return
	}

	h.AuditLog.GroupCreated(r.Context(), r, uid, name)
	h.AuditLog.MemberAddedToGroup(r.Context(), r, uid, name, models.RoleMember)
	uierrors.WriteJSON(w, http.StatusCreated, groupIDResponse{GroupID: name})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/join                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeGroupRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join group")
	defer cancel()

	res, err := h.Groups.Join(ctx, uid, req.GroupName, req.Password)
	if err != nil {
		if errors.Is(err, groupstore.ErrIncorrectPassword) {
			h.AuditLog.GroupJoinFailedWrongPassword(r.Context(), r, uid, req.GroupName)
		}
		h.writeStoreError(w, "join group", err)
		return
	}

	if res.Added {
		h.AuditLog.MemberAddedToGroup(r.Context(), r, uid, res.Group, models.RoleMember)
	}
	uierrors.WriteJSON(w, http.StatusOK, groupIDResponse{GroupID: res.Group})
}
