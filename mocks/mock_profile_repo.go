package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"authbridge/internal/domain"
)

// MockProfileRepo is a mock implementation of port.ProfileRepository.
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) FindByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) Upsert(ctx context.Context, create *domain.Profile, update domain.IdentityFields) (*domain.Profile, error) {
	args := m.Called(ctx, create, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) UpdateIdentity(ctx context.Context, externalID string, fields domain.IdentityFields) (*domain.Profile, error) {
	args := m.Called(ctx, externalID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) UpdateAttributes(ctx context.Context, externalID string, fullName *string, attrs domain.ExtendedAttributes) (*domain.Profile, error) {
	args := m.Called(ctx, externalID, fullName, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
