package userrole

import (
	"context"
	"net/http"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
	"github.com/frahmantamala/user-rbac/internal/transport"
)

type ServiceAPI interface {
	ListRoles(ctx context.Context, userID int64) ([]role.Summary, error)
	ReplaceRoles(ctx context.Context, userID int64, dto ReplaceRolesDTO) ([]role.Summary, error)
	ListPermissions(ctx context.Context, userID int64) ([]*permission.Permission, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetRoles handles GET /users/{id}/roles
func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id", appErrors.ErrCodeUserRoleNotFound)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	roles, err := h.Service.ListRoles(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}

// ReplaceRoles handles PUT /users/{id}/roles
func (h *Handler) ReplaceRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id", appErrors.ErrCodeUserRoleNotFound)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ReplaceRolesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	roles, err := h.Service.ReplaceRoles(r.Context(), userID, dto)
	if err != nil {
		h.Logger.Warn("ReplaceRoles: service error", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}

// GetPermissions handles GET /users/{id}/permissions
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id", appErrors.ErrCodeUserRoleNotFound)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	perms, err := h.Service.ListPermissions(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perms)
}
