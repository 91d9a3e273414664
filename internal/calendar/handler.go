package calendar

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Events(ctx context.Context, principal *user.Principal) ([]Event, error)
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

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetEvents: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	events, err := h.Service.Events(r.Context(), principal)
	if err != nil {
		h.Logger.Error("GetEvents: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, events)
}

// Export serves the calendar as a downloadable ics or csv file.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("Export: user not found in context")
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	format, ok := ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		h.WriteAppError(w, internal.NewValidationError("format must be one of: ics, csv", internal.ErrCodeValidationFailed))
		return
	}

	events, err := h.Service.Events(r.Context(), principal)
	if err != nil {
		h.Logger.Error("Export: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if format == FormatICS {
		err = WriteICS(&buf, events, time.Now())
	} else {
		err = WriteCSV(&buf, events)
	}
	if err != nil {
		h.Logger.Error("Export: failed to render calendar", "error", err, "format", format)
		h.WriteAppError(w, internal.NewInternalError("failed to export calendar", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
