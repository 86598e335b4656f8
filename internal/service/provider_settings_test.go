package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authbridge/internal/domain"
	"authbridge/internal/port"
	"authbridge/internal/service"
	"authbridge/mocks"
)

const (
	maxAccess  = int64(5 * 60 * 60)
	maxRefresh = int64(30 * 24 * 60 * 60)
)

func TestProviderSettingsCache_FetchesOnce(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("GetAuthSettings", mock.Anything).
		Return(&domain.ProviderSettings{GoogleEnabled: true, AccessTTL: 3600}, nil)
	cache := service.NewProviderSettingsCache(provider)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, int64(3600), s.AccessTTL)
		}()
	}
	wg.Wait()

	_, err := cache.Require(context.Background(), domain.AuthMethodGoogle)
	require.NoError(t, err)
	provider.AssertNumberOfCalls(t, "GetAuthSettings", 1)
}

func TestProviderSettingsCache_InvalidateRefetches(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("GetAuthSettings", mock.Anything).Return(&domain.ProviderSettings{EmailEnabled: true}, nil)
	cache := service.NewProviderSettingsCache(provider)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	provider.AssertNumberOfCalls(t, "GetAuthSettings", 2)
}

func TestProviderSettingsCache_FetchErrorNotCached(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("GetAuthSettings", mock.Anything).
		Return(nil, &port.ProviderError{Status: 500, Message: "down"}).Once()
	provider.On("GetAuthSettings", mock.Anything).
		Return(&domain.ProviderSettings{GoogleEnabled: true}, nil).Once()
	cache := service.NewProviderSettingsCache(provider)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, domain.KindServiceUnavailable, domain.KindOf(err))

	_, err = cache.Get(context.Background())
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestProviderSettingsCache_FetchSurvivesCallerCancellation(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("GetAuthSettings", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })).
		Return(&domain.ProviderSettings{EmailEnabled: true}, nil).Once()
	cache := service.NewProviderSettingsCache(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.EmailEnabled)

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestProviderSettingsCache_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.ProviderSettings
		method   domain.AuthMethod
		wantErr  *domain.Error
	}{
		{"access ttl above ceiling", &domain.ProviderSettings{GoogleEnabled: true, AccessTTL: maxAccess + 1}, domain.AuthMethodGoogle, domain.ErrConfigExceeded},
		{"refresh ttl above ceiling", &domain.ProviderSettings{GoogleEnabled: true, RefreshTTL: maxRefresh + 1}, domain.AuthMethodGoogle, domain.ErrConfigExceeded},
		{"google disabled", &domain.ProviderSettings{EmailEnabled: true}, domain.AuthMethodGoogle, domain.ErrProviderDisabled},
		{"email disabled", &domain.ProviderSettings{GoogleEnabled: true}, domain.AuthMethodEmail, domain.ErrProviderDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(mocks.MockIdentityProvider)
			provider.On("GetAuthSettings", mock.Anything).Return(tt.settings, nil)
			cache := service.NewProviderSettingsCache(provider)

			_, err := cache.Require(context.Background(), tt.method)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindServiceUnavailable, domain.KindOf(err))
		})
	}
}

func TestProviderSettingsCache_ExceededSettingsAreRefetched(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("GetAuthSettings", mock.Anything).
		Return(&domain.ProviderSettings{GoogleEnabled: true, AccessTTL: maxAccess * 2}, nil)
	cache := service.NewProviderSettingsCache(provider)

	_, err := cache.Get(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfigExceeded))
	_, err = cache.Get(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfigExceeded))
	provider.AssertNumberOfCalls(t, "GetAuthSettings", 2)
}

func TestAccessTTL_NeverExceedsCeiling(t *testing.T) {
	settings := []*domain.ProviderSettings{
		nil,
		{},
		{AccessTTL: 3600},
		{AccessTTL: maxAccess},
	}
	reported := []int64{-10, 0, 1, 900, 3600, maxAccess, maxAccess + 1, 1 << 40}

	for _, s := range settings {
		for _, r := range reported {
			got := service.AccessTTL(r, s)
			assert.LessOrEqual(t, got, maxAccess)
			assert.Positive(t, got)
			if s != nil && s.AccessTTL > 0 {
				assert.LessOrEqual(t, got, s.AccessTTL)
			}
		}
	}

	assert.Equal(t, int64(900), service.AccessTTL(900, &domain.ProviderSettings{AccessTTL: 3600}))
	assert.Equal(t, int64(3600), service.AccessTTL(0, &domain.ProviderSettings{AccessTTL: 3600}))
	assert.Equal(t, maxAccess, service.AccessTTL(0, &domain.ProviderSettings{}))
}

func TestRefreshTTL(t *testing.T) {
	assert.Equal(t, maxRefresh, service.RefreshTTL(nil))
	assert.Equal(t, maxRefresh, service.RefreshTTL(&domain.ProviderSettings{}))
	assert.Equal(t, int64(604800), service.RefreshTTL(&domain.ProviderSettings{RefreshTTL: 604800}))
	assert.Equal(t, maxRefresh, service.RefreshTTL(&domain.ProviderSettings{RefreshTTL: maxRefresh * 3}))
}
