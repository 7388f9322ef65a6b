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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/auth"
	authPostgres "github.com/frahmantamala/rbac-service/internal/auth/postgres"
	"github.com/frahmantamala/rbac-service/internal/authorization"
	authorizationPostgres "github.com/frahmantamala/rbac-service/internal/authorization/postgres"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/profile"
	profilePostgres "github.com/frahmantamala/rbac-service/internal/profile/postgres"
	"github.com/frahmantamala/rbac-service/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-service/internal/role/postgres"
	"github.com/frahmantamala/rbac-service/internal/storage"
	"github.com/frahmantamala/rbac-service/internal/transport"
	"github.com/frahmantamala/rbac-service/internal/transport/middleware"
	"github.com/frahmantamala/rbac-service/internal/transport/rest"
	"github.com/frahmantamala/rbac-service/internal/user"
	userPostgres "github.com/frahmantamala/rbac-service/internal/user/postgres"
	"github.com/frahmantamala/rbac-service/pkg/logger"
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
	DB     *gorm.DB
	Redis  *redis.Client
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.App.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
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
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}

	deps := &Dependencies{Config: config, DB: db, Router: chi.NewRouter(), Logger: slogger}

	var snapshotCache authorization.SnapshotCache
	if config.Redis.Enabled {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		snapshotCache = authorization.NewRedisCache(deps.Redis, config.Redis.SnapshotTTL)
	} else {
		snapshotCache = authorization.NewLocalCache(config.Redis.LocalSize, config.Redis.SnapshotTTL)
		slogger.Info("redis disabled, using in-process snapshot cache", "replicas", config.Server.Replicas)
	}

	images, err := storage.NewS3ImageStore(ctx, config.Storage)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}
	if config.Storage.S3Bucket == "" {
		slogger.Warn("storage.s3_bucket is empty, profile photo uploads will fail")
	}

	opts := rest.Options{
		Logger:           slogger,
		Production:       config.IsProduction(),
		ExposeErrors:     !config.IsProduction(),
		AllowedOrigins:   config.Server.Origins(),
		LoginPerMinute:   config.RateLimit.LoginPerMinute,
		RequestPerMinute: config.RateLimit.RequestPerMinute,
	}

	var registerer prometheus.Registerer
	if config.Observability.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(sqlDB, "rbac"),
		)
		registerer = registry
		opts.HTTPMetrics = middleware.NewHTTPMetrics(registry)
		opts.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
		opts.MetricsPath = config.Observability.Metrics.Path
	}

	bus := events.NewEventBus(slogger)

	resolver := authorization.NewResolver(
		authorizationPostgres.NewSnapshotStore(sqlx.NewDb(sqlDB, "pgx")),
		snapshotCache,
		authorization.NewMetrics(registerer),
		slogger,
	)
	resolver.Subscribe(bus)

	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
	roleService := role.NewService(rolePostgres.NewRoleRepository(db), permissionService, bus, slogger)
	userService := user.NewService(userPostgres.NewUserRepository(db), bus, config.Security.BCryptCost, slogger)
	profileService := profile.NewService(profilePostgres.NewProfileRepository(db), roleService, images, config.Storage.MaxImageBytes, slogger)
	authService := auth.NewService(
		authPostgres.NewRepository(db),
		auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration),
		slogger,
	)

	base := transport.NewBaseHandler(slogger)
	base.ExposeErrors = opts.ExposeErrors

	health := rest.NewHealthHandler(sqlDB, nil)
	if deps.Redis != nil {
		health = rest.NewHealthHandler(sqlDB, deps.Redis)
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		Role:       role.NewHandler(base, roleService),
		Permission: permission.NewHandler(base, permissionService),
		User:       user.NewHandler(base, userService),
		Profile:    profile.NewHandler(base, profileService),
		Health:     health,
	}, middleware.NewRBACAuthorization(resolver, slogger), opts)

	return deps, nil
}

func (d *Dependencies) close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}

// initDB opens postgres through gorm and applies the pool settings.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
