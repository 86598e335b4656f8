package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"authbridge/internal/domain"
)

// MockSessionVerifier is a mock implementation of service.SessionVerifier.
type MockSessionVerifier struct {
	mock.Mock
}

func (m *MockSessionVerifier) Verify(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalIdentity), args.Error(1)
}
