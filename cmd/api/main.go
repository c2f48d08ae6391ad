package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/repairdesk-backend/api/routes"
	"github.com/angelmondragon/repairdesk-backend/internal/auth"
	"github.com/angelmondragon/repairdesk-backend/internal/components"
	"github.com/angelmondragon/repairdesk-backend/internal/notifications"
	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	"github.com/angelmondragon/repairdesk-backend/internal/users"
	"github.com/angelmondragon/repairdesk-backend/pkg/auth/session"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/email"
	"github.com/angelmondragon/repairdesk-backend/pkg/instance"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/angelmondragon/repairdesk-backend/pkg/metrics"
	"github.com/angelmondragon/repairdesk-backend/pkg/migrate"
	"github.com/angelmondragon/repairdesk-backend/pkg/redis"
	"github.com/angelmondragon/repairdesk-backend/pkg/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return multierr.Append(err, dbClient.Close())
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return multierr.Append(err, dbClient.Close())
	}
	defer func() {
		err = multierr.Combine(err, redisClient.Close(), dbClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflow := metrics.NewWorkflow(registry)

	mailer := email.New(cfg, logg)
	hasher := security.NewHasher(cfg.Password)
	userRepo := users.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	publisher, err := notifications.NewPublisher(notifications.PublisherParams{
		Repo:         notificationRepo,
		Mailer:       mailer,
		Metrics:      workflow,
		Logger:       logg,
		ClientURL:    cfg.App.ClientURL,
		EmailTimeout: cfg.Notifications.EmailTimeout,
	})
	if err != nil {
		return err
	}

	notificationService, err := notifications.NewService(notificationRepo, dbClient, publisher)
	if err != nil {
		return err
	}

	componentService, err := components.NewService(components.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	repairRequestService, err := repairrequests.NewService(repairrequests.ServiceParams{
		Repo:      repairrequests.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Reserver:  components.NewReserver(workflow),
		Publisher: publisher,
		Metrics:   workflow,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(userRepo, hasher)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Blacklist:      auth.NewBlacklistRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Hasher:         hasher,
		Mailer:         mailer,
		JWTConfig:      cfg.JWT,
		ClientURL:      cfg.App.ClientURL,
		EmailTimeout:   cfg.Notifications.EmailTimeout,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			RateLimiter:    redisClient,
			Sessions:       sessionManager,
			Gatherer:       registry,
			Auth:           authService,
			Users:          userService,
			Components:     componentService,
			Notifications:  notificationService,
			RepairRequests: repairRequestService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
