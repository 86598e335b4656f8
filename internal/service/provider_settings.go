package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"authbridge/internal/domain"
	"authbridge/internal/logger"
	"authbridge/internal/metrics"
	"authbridge/internal/port"
)

// ProviderSettingsCache fetches the identity provider's auth settings once and
// serves them until Invalidate is called. Settings that fail validation are not
// cached, so the next call fetches again.
type ProviderSettingsCache struct {
	provider port.IdentityProvider

	mu       sync.RWMutex
	settings *domain.ProviderSettings
	group    singleflight.Group
}

// NewProviderSettingsCache creates an empty settings cache.
func NewProviderSettingsCache(provider port.IdentityProvider) *ProviderSettingsCache {
	return &ProviderSettingsCache{provider: provider}
}

// Get returns the cached settings, fetching them on first use. Concurrent first
// callers share one provider call.
func (c *ProviderSettingsCache) Get(ctx context.Context) (*domain.ProviderSettings, error) {
	c.mu.RLock()
	cached := c.settings
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := c.group.Do("settings", func() (any, error) {
		c.mu.RLock()
		cached := c.settings
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		// Shared by every waiting caller, so one cancelled request must not fail the rest.
		s, err := c.provider.GetAuthSettings(context.WithoutCancel(ctx))
		if err != nil {
			metrics.ProviderSettingsFetches.WithLabelValues("error").Inc()
			logger.From(ctx).Error("fetching identity provider settings failed", logger.Err(err))
			return nil, domain.ErrProviderUnavailable.WithCause(err)
		}
		if err := validateSettings(s); err != nil {
			metrics.ProviderSettingsFetches.WithLabelValues("rejected").Inc()
			logger.From(ctx).Error("identity provider settings rejected", logger.Err(err))
			return nil, err
		}

		metrics.ProviderSettingsFetches.WithLabelValues("ok").Inc()
		c.mu.Lock()
		c.settings = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProviderSettings), nil
}

// Require returns the settings after checking that method is enabled.
func (c *ProviderSettingsCache) Require(ctx context.Context, method domain.AuthMethod) (*domain.ProviderSettings, error) {
	s, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	enabled := false
	switch method {
	case domain.AuthMethodGoogle:
		enabled = s.GoogleEnabled
	case domain.AuthMethodEmail:
		enabled = s.EmailEnabled
	}
	if !enabled {
		return nil, domain.ErrProviderDisabled.WithMessage(string(method) + " authentication is not enabled in the identity provider")
	}
	return s, nil
}

// Invalidate drops the cached settings.
func (c *ProviderSettingsCache) Invalidate() {
	c.mu.Lock()
	c.settings = nil
	c.mu.Unlock()
}

func validateSettings(s *domain.ProviderSettings) error {
	if s == nil {
		return domain.ErrProviderUnavailable
	}
	if s.AccessTTL > seconds(domain.MaxAccessTokenTTL) {
		return domain.ErrConfigExceeded.WithMessage("Identity provider access token lifetime exceeds 5 hours")
	}
	if s.RefreshTTL > seconds(domain.MaxRefreshTokenTTL) {
		return domain.ErrConfigExceeded.WithMessage("Identity provider refresh token lifetime exceeds 30 days")
	}
	return nil
}

// AccessTTL caps a reported access token lifetime by the configured lifetime and
// the hard maximum. Non-positive values fall back to the ceiling.
func AccessTTL(reported int64, s *domain.ProviderSettings) int64 {
	ceiling := seconds(domain.MaxAccessTokenTTL)
	if s != nil && s.AccessTTL > 0 && s.AccessTTL < ceiling {
		ceiling = s.AccessTTL
	}
	if reported <= 0 || reported > ceiling {
		return ceiling
	}
	return reported
}

// RefreshTTL is the configured refresh lifetime capped at the hard maximum.
func RefreshTTL(s *domain.ProviderSettings) int64 {
	ceiling := seconds(domain.MaxRefreshTokenTTL)
	if s != nil && s.RefreshTTL > 0 && s.RefreshTTL < ceiling {
		return s.RefreshTTL
	}
	return ceiling
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
