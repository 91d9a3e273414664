package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	authPostgres "github.com/frahmantamala/leave-management/internal/auth/postgres"
	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	"github.com/frahmantamala/leave-management/internal/cache"
	"github.com/frahmantamala/leave-management/internal/calendar"
	calendarPostgres "github.com/frahmantamala/leave-management/internal/calendar/postgres"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/database"
	"github.com/frahmantamala/leave-management/internal/leave"
	leavePostgres "github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Cache  *cache.Store
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Drain(ctx); err != nil {
			deps.Logger.Error("Event handlers did not finish", "error", err)
		}
		deps.close()
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if err := d.Cache.Close(); err != nil {
		d.Logger.Error("Cache close error", "error", err)
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg)
	lg := logger.L()

	ctx := context.Background()

	sqlxDB, gormDB, err := openDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		// the calendar works uncached
		lg.Warn("redis unavailable, calendar cache disabled", "addr", cfg.Cache.Addr, "error", err)
		store = nil
	}

	var collector *metrics.Collector
	if cfg.Observability.Metrics.Enabled {
		collector = metrics.New()
	}

	var openAPI *swagger.Document
	if cfg.Server.OpenAPIPath != "" {
		openAPI, err = swagger.Load(ctx, cfg.Server.OpenAPIPath)
		if err != nil {
			_ = sqlxDB.Close()
			return nil, err
		}
	}

	bus := events.NewEventBus(lg)
	txManager := database.NewTxManager(gormDB)

	balanceService := balance.NewService(
		balancePostgres.NewBalanceRepository(gormDB),
		balance.AllowanceFromConfig(cfg.Leave),
		lg,
	)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authOpts := []auth.ServiceOption{auth.WithBCryptCost(cfg.Security.BCryptCost)}
	if store != nil {
		authOpts = append(authOpts, auth.WithRevocationStore(store))
	}
	authService := auth.NewService(
		authPostgres.NewRepository(gormDB),
		tokenGen,
		txManager,
		auth.ProvisionerFunc(func(ctx context.Context, userID int64) error {
			_, err := balanceService.Provision(ctx, userID)
			return err
		}),
		lg,
		authOpts...,
	)

	userService := user.NewService(userPostgres.NewUserRepository(gormDB), lg)

	leaveService := leave.NewService(
		leavePostgres.NewLeaveRepository(gormDB),
		balanceService,
		txManager,
		lg,
		leave.WithMetrics(collector),
		leave.WithPublisher(bus),
		leave.WithRecentLimit(cfg.Leave.RecentRequestsLimit),
	)

	var calendarCache calendar.Cache
	if store != nil {
		calendarCache = store
	}
	calendarService := calendar.NewService(
		calendarPostgres.NewReader(sqlxDB),
		calendarCache,
		cfg.Cache.CalendarTTL,
		collector,
		lg,
	)
	bus.Subscribe(events.EventTypeLeaveApproved, calendarService.HandleLeaveApproved)

	health := map[string]rest.Pinger{"postgres": sqlxDB}
	if store != nil {
		health["redis"] = rest.PingFunc(store.Ping)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		Logger:         lg,
		AllowedOrigins: cfg.Server.Origins(),
		Health:         rest.NewHealthHandler(health),
		Metrics:        collector,
		MetricsPath:    cfg.Observability.Metrics.Path,
		OpenAPI:        openAPI,
		Auth:           auth.NewHandler(authService),
		RBAC:           auth.NewRBACAuthorization(lg),
		User:           user.NewHandler(userService),
		Balance:        balance.NewHandler(balanceService),
		Leave:          leave.NewHandler(leaveService),
		Calendar:       calendar.NewHandler(calendarService),
	})

	return &Dependencies{
		Config: cfg,
		DB:     sqlxDB,
		Gorm:   gormDB,
		Cache:  store,
		Bus:    bus,
		Router: router,
		Logger: lg,
	}, nil
}
