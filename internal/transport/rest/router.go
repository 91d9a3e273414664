package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/frahmantamala/leave-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Dependencies groups everything the router mounts. Nil handlers leave
// their routes unregistered.
type Dependencies struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Health         *HealthHandler
	Metrics        *metrics.Collector
	MetricsPath    string
	OpenAPI        *swagger.Document

	Auth     *auth.Handler
	RBAC     *auth.RBACAuthorization
	User     *user.Handler
	Balance  *balance.Handler
	Leave    *leave.Handler
	Calendar *calendar.Handler
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	rbac := deps.RBAC
	if rbac == nil {
		rbac = auth.NewRBACAuthorization(deps.Logger)
	}

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, deps.Metrics.Handler())
	}

	if deps.OpenAPI != nil {
		router.Handle(swagger.DocumentURL, deps.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if deps.Health != nil {
			r.Get("/health", deps.Health.Health)
			r.Get("/ping", deps.Health.Ping)
		}

		if deps.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", deps.Auth.Register)
			sr.Post("/login", deps.Auth.Login)
			sr.Post("/refresh", deps.Auth.RefreshToken)
			sr.Post("/logout", deps.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)

			if deps.User != nil {
				pr.Get("/users/me", deps.User.GetCurrentUser)
				pr.Post("/users/me/toggle-role", deps.User.ToggleRole)
			}

			if deps.Balance != nil {
				pr.Get("/balances/me", deps.Balance.GetMyBalance)
			}

			if deps.Leave != nil {
				pr.Get("/dashboard", deps.Leave.GetDashboard)

				pr.Route("/leave-requests", func(lr chi.Router) {
					lr.With(rbac.Require(auth.ActionSubmitLeave)).Post("/", deps.Leave.SubmitLeaveRequest)
					lr.Get("/", deps.Leave.ListMyLeaveRequests)
					lr.Get("/{id}", deps.Leave.GetLeaveRequest)
				})

				pr.Route("/manager", func(mr chi.Router) {
					mr.Use(rbac.RequireManager())
					mr.Get("/dashboard", deps.Leave.GetManagerDashboard)
					mr.With(rbac.Require(auth.ActionApproveLeave)).Post("/leave-requests/{id}/approve", deps.Leave.ApproveLeaveRequest)
					mr.With(rbac.Require(auth.ActionRejectLeave)).Post("/leave-requests/{id}/reject", deps.Leave.RejectLeaveRequest)
				})
			}

			if deps.Calendar != nil {
				pr.Route("/calendar", func(cr chi.Router) {
					cr.Use(rbac.Require(auth.ActionViewCalendar))
					cr.Get("/events", deps.Calendar.GetEvents)
					cr.Get("/export", deps.Calendar.Export)
				})
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rbac.WriteError(w, http.StatusNotFound, "route not found")
	})
}
