package leave

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, principal *user.Principal, dto SubmitLeaveDTO) (*Request, error)
	Approve(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO) (*Request, error)
	Reject(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO) (*Request, error)
	Get(ctx context.Context, principal *user.Principal, requestID int64) (*RequestResponse, error)
	ListOwn(ctx context.Context, principal *user.Principal) ([]RequestResponse, error)
	EmployeeDashboard(ctx context.Context, principal *user.Principal) (*EmployeeDashboard, error)
	ManagerDashboard(ctx context.Context, principal *user.Principal) (*ManagerDashboard, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("SubmitLeaveRequest: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	var dto SubmitLeaveDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("SubmitLeaveRequest: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Submit(r.Context(), principal, dto)
	if err != nil {
		h.Logger.Warn("SubmitLeaveRequest: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitLeaveRequest: leave request created",
		"request_id", req.ID,
		"user_id", principal.ID,
		"leave_type", req.LeaveType,
		"days", req.DaysCount())

	h.WriteJSON(w, http.StatusCreated, req.ToResponse())
}

func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetLeaveRequest: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	id, ok := h.PathID(r, "id")
	if !ok {
		h.WriteAppError(w, internal.NewValidationError("invalid leave request ID", internal.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Get(r.Context(), principal, id)
	if err != nil {
		h.Logger.Warn("GetLeaveRequest: service error", "error", err, "request_id", id, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListMyLeaveRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("ListMyLeaveRequests: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	requests, err := h.Service.ListOwn(r.Context(), principal)
	if err != nil {
		h.Logger.Error("ListMyLeaveRequests: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leave_requests": requests,
	})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetDashboard: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	dashboard, err := h.Service.EmployeeDashboard(r.Context(), principal)
	if err != nil {
		h.Logger.Error("GetDashboard: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) GetManagerDashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetManagerDashboard: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	dashboard, err := h.Service.ManagerDashboard(r.Context(), principal)
	if err != nil {
		h.Logger.Warn("GetManagerDashboard: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) ApproveLeaveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "ApproveLeaveRequest", h.Service.Approve)
}

func (h *Handler) RejectLeaveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "RejectLeaveRequest", h.Service.Reject)
}

type decideFunc func(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO) (*Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op string, fn decideFunc) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error(op + ": user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	id, ok := h.PathID(r, "id")
	if !ok {
		h.WriteAppError(w, internal.NewValidationError("invalid leave request ID", internal.ErrCodeValidationFailed))
		return
	}

	// the comments body is optional
	var dto DecisionDTO
	if r.ContentLength != 0 {
		if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
			h.WriteAppError(w, appErr)
			return
		}
	}

	req, err := fn(r.Context(), principal, id, dto)
	if err != nil {
		h.Logger.Warn(op+": service error", "error", err, "request_id", id, "manager_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info(op+": leave request decided", "request_id", req.ID, "status", req.Status, "manager_id", principal.ID)
	h.WriteJSON(w, http.StatusOK, req.ToResponse())
}
