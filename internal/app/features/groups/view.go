// internal/app/features/groups/view.go
package groups

import (
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/system/auth"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/dalemusser/reelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type mineResponse struct {
	Groups []models.UserGroup `json:"groups"`
}

type membersResponse struct {
	Group   string              `json:"group"`
	Members []models.Membership `json:"members"`
}

// ServeMine handles GET /groups/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list user groups")
	defer cancel()

	ugs, err := h.Groups.ListUserGroups(ctx, uid)
	if err != nil {
		h.writeStoreError(w, "list user groups", err)
		return
	}
	if ugs == nil {
		ugs = []models.UserGroup{}
	}
	uierrors.WriteJSON(w, http.StatusOK, mineResponse{Groups: ugs})
}

// ServeGroup handles GET /groups/{name}. Only members may read a group.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get group")
	defer cancel()

	g, err := h.Groups.GroupFor(ctx, uid, chi.URLParam(r, "name"))
	if err != nil {
		h.writeStoreError(w, "get group", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, g)
}

// ServeMembers handles GET /groups/{name}/members. Only members may list a
// group's members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list members")
	defer cancel()

	name := chi.URLParam(r, "name")
	ms, err := h.Groups.MembersFor(ctx, uid, name)
	if err != nil {
		h.writeStoreError(w, "list members", err)
		return
	}
	if ms == nil {
		ms = []models.Membership{}
	}
	uierrors.WriteJSON(w, http.StatusOK, membersResponse{Group: normalize.GroupName(name), Members: ms})
}
