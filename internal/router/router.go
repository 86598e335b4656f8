package router

import (
	"github.com/gin-gonic/gin"

	"authbridge/internal/config"
	"authbridge/internal/handler"
	"authbridge/internal/metrics"
	"authbridge/internal/middleware"
	"authbridge/internal/ratelimit"
	"authbridge/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
// A nil limiter disables rate limiting of the public auth routes.
func Setup(
	cfg *config.Config,
	verifier service.SessionVerifier,
	limiter ratelimit.Limiter,
	authH *handler.AuthHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	api := r.Group("/api")
	api.GET("/health", healthH.Health)

	// Public auth routes
	public := api.Group("/auth")
	if limiter != nil {
		public.Use(middleware.RateLimit(limiter, cfg.RateLimit.Max))
	}
	public.POST("/google/session", authH.GoogleSession)
	public.POST("/google/session/refresh", authH.GoogleRefresh)
	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)
	public.POST("/refresh", authH.Refresh)

	// Protected routes - require a provider-verified access token
	protected := api.Group("/auth")
	protected.Use(middleware.AuthMiddleware(verifier, cfg.Session.AccessCookieName))
	protected.POST("/logout", authH.Logout)
	protected.GET("/me", authH.Me)
	protected.PUT("/profile", authH.UpdateProfile)

	return r
}
