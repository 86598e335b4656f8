package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"authbridge/internal/domain"
	"authbridge/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) ExchangeGoogleSession(ctx context.Context, input service.GoogleSessionInput) (*service.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthOutput), args.Error(1)
}

func (m *MockSessionService) Register(ctx context.Context, input service.RegisterInput) (*service.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthOutput), args.Error(1)
}

func (m *MockSessionService) Login(ctx context.Context, input service.LoginInput) (*service.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthOutput), args.Error(1)
}

func (m *MockSessionService) Refresh(ctx context.Context, refreshToken string) (*service.AuthOutput, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthOutput), args.Error(1)
}

func (m *MockSessionService) RefreshGoogleSession(ctx context.Context, refreshToken string) (*service.AuthOutput, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthOutput), args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context, input service.LogoutInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockSessionService) GetProfile(ctx context.Context, caller *domain.ExternalIdentity) (*service.ProfileOutput, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileOutput), args.Error(1)
}

func (m *MockSessionService) UpdateProfile(ctx context.Context, caller *domain.ExternalIdentity, attrs domain.ExtendedAttributes) (*service.ProfileOutput, error) {
	args := m.Called(ctx, caller, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileOutput), args.Error(1)
}
