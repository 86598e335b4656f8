package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"authbridge/internal/domain"
	"authbridge/internal/port"
)

// MockIdentityProvider is a mock implementation of port.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyAccessToken(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalIdentity), args.Error(1)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*port.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AuthResult), args.Error(1)
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string, claims map[string]any) (*port.AuthResult, error) {
	args := m.Called(ctx, email, password, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AuthResult), args.Error(1)
}

func (m *MockIdentityProvider) RefreshSession(ctx context.Context, refreshToken string) (*port.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AuthResult), args.Error(1)
}

func (m *MockIdentityProvider) AdminSignOut(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *MockIdentityProvider) AdminUpdateClaims(ctx context.Context, externalID string, claims map[string]any) error {
	args := m.Called(ctx, externalID, claims)
	return args.Error(0)
}

func (m *MockIdentityProvider) GetAuthSettings(ctx context.Context) (*domain.ProviderSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderSettings), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}
