package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	ToggleRole(ctx context.Context, principal *coreUser.Principal) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetCurrentUser: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", principal.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ToggleRole handles POST /users/me/toggle-role
func (h *Handler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("ToggleRole: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	u, err := h.Service.ToggleRole(r.Context(), principal)
	if err != nil {
		h.Logger.Error("ToggleRole: service error", "user_id", principal.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ToggleRole: role switched", "user_id", u.ID, "role", u.Role)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":    u,
		"message": "Role switched to " + string(u.Role),
	})
}
