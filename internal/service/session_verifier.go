package service

import (
	"context"
	"strings"

	"authbridge/internal/domain"
	"authbridge/internal/logger"
	"authbridge/internal/port"
)

// SessionVerifier validates access tokens against the identity provider.
type SessionVerifier interface {
	Verify(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error)
}

type sessionVerifier struct {
	provider port.IdentityProvider
}

// NewSessionVerifier creates a SessionVerifier. Every call reaches the provider;
// results are never cached.
func NewSessionVerifier(provider port.IdentityProvider) SessionVerifier {
	return &sessionVerifier{provider: provider}
}

func (v *sessionVerifier) Verify(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, domain.ErrAccessTokenMissing
	}

	ext, err := v.provider.VerifyAccessToken(ctx, token)
	if err != nil {
		logger.From(ctx).Debug("access token rejected", logger.Err(err))
		return nil, domain.ErrInvalidAccessToken.WithCause(err)
	}
	if ext == nil {
		return nil, domain.ErrInvalidAccessToken
	}
	return ext, nil
}
