package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/auth"
	authPostgres "github.com/frahmantamala/leave-management/internal/auth/postgres"
	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	"github.com/frahmantamala/leave-management/internal/calendar"
	calendarPostgres "github.com/frahmantamala/leave-management/internal/calendar/postgres"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/database"
	"github.com/frahmantamala/leave-management/internal/leave"
	leavePostgres "github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type client struct {
	server *httptest.Server
	token  string
}

func (c *client) do(method, path string, body interface{}) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, data
}

var _ = Describe("Router", func() {
	var (
		server    *httptest.Server
		bus       *events.EventBus
		collector *metrics.Collector
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{}, &balanceDatamodel.LeaveBalance{}, &leaveDatamodel.LeaveRequest{})).To(Succeed())
		sqlxDB := sqlx.NewDb(sqlDB, "sqlite3")

		txManager := database.NewTxManager(db)
		bus = events.NewEventBus(lg)
		collector = metrics.New()

		balanceService := balance.NewService(balancePostgres.NewBalanceRepository(db), balance.DefaultAllowance(), lg)
		authService := auth.NewService(
			authPostgres.NewRepository(db),
			auth.NewJWTTokenGenerator(strings.Repeat("a", 32), strings.Repeat("r", 32), 15*time.Minute, time.Hour),
			txManager,
			auth.ProvisionerFunc(func(ctx context.Context, userID int64) error {
				_, err := balanceService.Provision(ctx, userID)
				return err
			}),
			lg,
			auth.WithBCryptCost(bcrypt.MinCost),
		)
		leaveService := leave.NewService(leavePostgres.NewLeaveRepository(db), balanceService, txManager, lg,
			leave.WithPublisher(bus), leave.WithMetrics(collector))
		calendarService := calendar.NewService(calendarPostgres.NewReader(sqlxDB), nil, 0, collector, lg)
		bus.Subscribe(events.EventTypeLeaveApproved, calendarService.HandleLeaveApproved)

		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Dependencies{
			Logger:         lg,
			AllowedOrigins: []string{"*"},
			Health:         rest.NewHealthHandler(map[string]rest.Pinger{"postgres": sqlxDB}),
			Metrics:        collector,
			Auth:           auth.NewHandler(authService),
			RBAC:           auth.NewRBACAuthorization(lg),
			User:           user.NewHandler(user.NewService(userPostgres.NewUserRepository(db), lg)),
			Balance:        balance.NewHandler(balanceService),
			Leave:          leave.NewHandler(leaveService),
			Calendar:       calendar.NewHandler(calendarService),
		})

		server = httptest.NewServer(router)
		DeferCleanup(server.Close)
	})

	register := func(email, firstName string) *client {
		c := &client{server: server}
		resp, body := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email": email, "password": "password123", "first_name": firstName,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated), string(body))

		var reg struct {
			Tokens auth.AuthTokens `json:"tokens"`
		}
		Expect(json.Unmarshal(body, &reg)).To(Succeed())
		c.token = reg.Tokens.AccessToken
		return c
	}

	It("serves health and ping without a token", func() {
		c := &client{server: server}
		resp, _ := c.do(http.MethodGet, "/api/v1/ping", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-Trace-ID")).NotTo(BeEmpty())

		resp, _ = c.do(http.MethodGet, "/api/v1/health", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects protected routes without a token", func() {
		c := &client{server: server}
		resp, _ := c.do(http.MethodGet, "/api/v1/dashboard", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("answers unknown routes with a JSON 404", func() {
		c := &client{server: server}
		resp, body := c.do(http.MethodGet, "/api/v1/nope", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Expect(string(body)).To(ContainSubstring("route not found"))
	})

	It("refuses a duplicate registration", func() {
		register("alex@example.com", "Alex")
		c := &client{server: server}
		resp, _ := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email": "ALEX@example.com", "password": "password123",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("runs a request from submission to the shared calendar", func() {
		employee := register("alex@example.com", "Alex")
		manager := register("morgan@example.com", "Morgan")

		resp, body := employee.do(http.MethodGet, "/api/v1/balances/me", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(jsonField[int64](body, "sick_leave")).To(Equal(int64(10)))
		Expect(jsonField[int64](body, "vacation_leave")).To(Equal(int64(15)))
		Expect(jsonField[int64](body, "personal_leave")).To(Equal(int64(5)))

		resp, body = employee.do(http.MethodPost, "/api/v1/leave-requests", map[string]string{
			"leave_type": "vacation", "start_date": "2025-07-07", "end_date": "2025-07-11", "reason": "summer trip",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated), string(body))
		requestID := jsonField[int64](body, "id")

		By("keeping employees out of the manager routes")
		resp, _ = employee.do(http.MethodGet, "/api/v1/manager/dashboard", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

		By("promoting the second account")
		resp, body = manager.do(http.MethodPost, "/api/v1/users/me/toggle-role", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("Role switched to manager"))

		resp, body = manager.do(http.MethodGet, "/api/v1/manager/dashboard", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var dash struct {
			Pending []leave.RequestResponse `json:"pending_requests"`
		}
		Expect(json.Unmarshal(body, &dash)).To(Succeed())
		Expect(dash.Pending).To(HaveLen(1))
		Expect(dash.Pending[0].EmployeeName).To(Equal("Alex"))

		resp, body = manager.do(http.MethodPost, fmt.Sprintf("/api/v1/manager/leave-requests/%d/approve", requestID),
			map[string]string{"comments": "enjoy"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(body))
		Expect(bus.Drain(context.Background())).To(Succeed())

		resp, _ = manager.do(http.MethodPost, fmt.Sprintf("/api/v1/manager/leave-requests/%d/reject", requestID), nil)
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))

		resp, body = employee.do(http.MethodGet, "/api/v1/balances/me", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(jsonField[int64](body, "vacation_leave")).To(Equal(int64(10)))

		By("showing the approval on everyone's calendar")
		resp, body = employee.do(http.MethodGet, "/api/v1/calendar/events", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var evs []calendar.Event
		Expect(json.Unmarshal(body, &evs)).To(Succeed())
		Expect(evs).To(HaveLen(1))
		Expect(evs).To(ConsistOf(calendar.Event{
			ID:         requestID,
			Title:      "Alex - Vacation",
			Start:      "2025-07-07",
			End:        "2025-07-11",
			Color:      "#3b82f6",
			LeaveType:  "vacation",
			EmployeeID: evs[0].EmployeeID,
		}))

		resp, body = employee.do(http.MethodGet, "/api/v1/calendar/export?format=ics", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("leave-calendar.ics"))
		Expect(string(body)).To(ContainSubstring("DTEND;VALUE=DATE:20250712"))

		By("recording the traffic")
		resp, body = employee.do(http.MethodGet, "/metrics", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring(`leave_requests_decided_total{leave_type="vacation",status="approved"} 1`))
	})
})

func jsonField[T any](body []byte, key string) T {
	var fields map[string]json.RawMessage
	Expect(json.Unmarshal(body, &fields)).To(Succeed())
	var out T
	Expect(json.Unmarshal(fields[key], &out)).To(Succeed())
	return out
}
