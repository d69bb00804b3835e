package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rolodexhq/rolodex/pkg/api"
	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/config"
	"github.com/rolodexhq/rolodex/pkg/contacts"
	"github.com/rolodexhq/rolodex/pkg/mail"
	"github.com/rolodexhq/rolodex/pkg/middleware"
	"github.com/rolodexhq/rolodex/pkg/observability"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// metricsRefreshInterval paces the stored-rows gauge updates
const metricsRefreshInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rolodexd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting rolodexd")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	db, err := openPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	redisClient, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}
	cache := auth.NewIdentityCache(redisClient, cfg.Auth.IdentityCacheTTL, logger, metrics)
	hasher := auth.NewPasswordHasher()

	userStore := users.NewStore(db)
	authenticator := auth.NewAuthenticator(codec, cache, users.NewDirectory(userStore), hasher, logger, metrics)
	userService := users.NewService(userStore, cache, hasher, logger, metrics)

	contactStore := contacts.NewStore(db)
	contactService := contacts.NewService(contactStore, logger, metrics)

	templates, err := mail.NewTemplateSet(cfg.Mail.TemplateDir, logger)
	if err != nil {
		return fmt.Errorf("failed to load mail templates: %w", err)
	}
	mailer := mail.NewMailer(cfg.Mail, cfg.PublicBaseURL, templates, logger, metrics)

	var limiter api.Limiter
	if cfg.RateLimit.Distributed {
		limiter = middleware.NewDistributedRateLimiter(redisClient, cfg.RateLimit, logger)
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	health := observability.NewHealthChecker(db, redisClient)

	server := api.NewServer(api.ServerOptions{
		Authenticator:      authenticator,
		Users:              userService,
		Contacts:           contactService,
		Mailer:             mailer,
		Limiter:            limiter,
		Health:             health,
		Logger:             logger,
		Metrics:            metrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TracingEnabled:     cfg.Observability.OTelEnabled,
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	birthdays := contacts.NewBirthdayJob(userStore, contactStore, mailer, logger, cfg.BirthdaySchedule)
	if err := birthdays.Start(ctx); err != nil {
		return fmt.Errorf("failed to start birthday job: %w", err)
	}

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	go refreshGauges(refreshCtx, db, metrics, userService, contactService)

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		birthdays.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		stopRefresh()
		return templates.Close()
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB >= 0 {
		opts.DB = cfg.DB
	}
	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// refreshGauges keeps the stored-rows and connection-pool gauges current
func refreshGauges(ctx context.Context, db *sql.DB, metrics *observability.Metrics, userService *users.Service, contactService *contacts.Service) {
	ticker := time.NewTicker(metricsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			userService.RefreshMetrics(ctx)
			contactService.RefreshMetrics(ctx)
			metrics.CollectDBStats(db)
		}
	}
}
