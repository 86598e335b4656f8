package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"authbridge/internal/auth/supabase"
	"authbridge/internal/config"
	"authbridge/internal/email/noop"
	"authbridge/internal/email/ses"
	"authbridge/internal/handler"
	"authbridge/internal/identity"
	"authbridge/internal/logger"
	"authbridge/internal/metrics"
	"authbridge/internal/port"
	"authbridge/internal/ratelimit"
	"authbridge/internal/repository/postgres"
	"authbridge/internal/router"
	"authbridge/internal/service"
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", logger.Err(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(logger.Config{Format: cfg.Log.Format, Level: cfg.Log.Level, ServiceName: "authbridge"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories and external clients
	profileRepo := postgres.NewProfileRepo(db)
	provider := supabase.NewClient(cfg.Provider)

	emailSender, err := newEmailSender(ctx, cfg.Email)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeLimiter()

	policy, err := service.NewCompletenessPolicy(cfg.Profile.Completeness)
	if err != nil {
		return err
	}

	// Initialize services
	verifier := service.NewSessionVerifier(provider)
	settings := service.NewProviderSettingsCache(provider)
	mapper := identity.NewMapper(cfg.Provider.FederatedName, time.Now)
	reconciler := service.NewProfileReconciler(profileRepo, provider, policy)
	sessions := service.NewSessionService(provider, verifier, settings, mapper, reconciler, emailSender, cfg.Provider.FederatedName)

	// Initialize handlers
	authH := handler.NewAuthHandler(sessions, handler.CookieConfig{
		AccessName:  cfg.Session.AccessCookieName,
		RefreshName: cfg.Session.RefreshCookieName,
		Path:        cfg.Session.CookiePath,
		Domain:      cfg.Session.CookieDomain,
		Secure:      cfg.Server.IsProduction(),
	})
	healthH := handler.NewHealthHandler(profileRepo)

	r := router.Setup(cfg, verifier, limiter, authH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("completeness", policy.Name()),
			zap.String("rate_limit", cfg.RateLimit.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newEmailSender(ctx context.Context, cfg config.EmailConfig) (port.EmailSender, error) {
	switch cfg.Provider {
	case "ses":
		sender, err := ses.NewSESSender(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES sender: %w", err)
		}
		logger.L().Info("email sender configured", zap.String("provider", "ses"), zap.String("region", cfg.Region))
		return sender, nil
	default:
		logger.L().Info("email sender configured", zap.String("provider", "noop"))
		return noop.NewNoopSender(cfg.FrontendURL), nil
	}
}

// newLimiter builds the auth route limiter. A nil limiter disables rate limiting.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Limiter, func(), error) {
	switch cfg.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, func() {}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return ratelimit.NewRedisLimiter(client, "authbridge:rl:", cfg.Max, cfg.Window), func() { _ = client.Close() }, nil
	case "off":
		return nil, func() {}, nil
	default:
		return ratelimit.NewMemoryLimiter(cfg.Max, cfg.Window), func() {}, nil
	}
}
