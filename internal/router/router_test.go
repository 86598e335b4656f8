package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"authbridge/internal/config"
	"authbridge/internal/domain"
	"authbridge/internal/handler"
	"authbridge/internal/ratelimit"
	"authbridge/internal/router"
	"authbridge/internal/service"
	"authbridge/mocks"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Session:   config.SessionConfig{AccessCookieName: "sb-access-token", RefreshCookieName: "refresh_token", CookiePath: "/api"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{Max: 2, Window: time.Minute},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func setup(t *testing.T, limiter ratelimit.Limiter) (*gin.Engine, *mocks.MockSessionService, *mocks.MockSessionVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	svc := new(mocks.MockSessionService)
	verifier := new(mocks.MockSessionVerifier)
	authH := handler.NewAuthHandler(svc, handler.CookieConfig{
		AccessName:  cfg.Session.AccessCookieName,
		RefreshName: cfg.Session.RefreshCookieName,
		Path:        cfg.Session.CookiePath,
	})
	return router.Setup(cfg, verifier, limiter, authH, handler.NewHealthHandler(okPinger{})), svc, verifier
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := setup(t, nil)

	for _, path := range []string{"/api/health", "/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r, svc, verifier := setup(t, nil)
	verifier.On("Verify", mock.Anything, "").Return(nil, domain.ErrAccessTokenMissing)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/auth/me", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestRouter_MeWithBearer(t *testing.T) {
	r, svc, verifier := setup(t, nil)
	caller := &domain.ExternalIdentity{ID: "user-123", Email: "jo@example.com"}
	verifier.On("Verify", mock.Anything, "good-token").Return(caller, nil)
	svc.On("GetProfile", mock.Anything, caller).
		Return(&service.ProfileOutput{Profile: &domain.Profile{ExternalID: "user-123"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/auth/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRouter_PublicAuthRoutesAreRateLimited(t *testing.T) {
	r, svc, _ := setup(t, ratelimit.NewMemoryLimiter(2, time.Minute))
	svc.On("Refresh", mock.Anything, "").Return(nil, domain.ErrRefreshTokenMissing)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/auth/refresh", http.NoBody)
		req.RemoteAddr = "192.0.2.10:5000"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
