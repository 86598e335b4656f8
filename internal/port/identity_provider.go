package port

import (
	"context"
	"fmt"
	"net/http"

	"authbridge/internal/domain"
)

// ProviderError is returned by IdentityProvider implementations when the provider
// answers with an error or cannot be reached. Status 0 means no response was received.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity provider %d: %s", e.Status, e.Message)
}

// Unavailable reports whether the provider failed rather than rejected the request.
func (e *ProviderError) Unavailable() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError
}

// AuthResult is an identity plus the session issued alongside it. Session is nil
// when the provider created the user but withheld a session (e.g. pending email
// confirmation).
type AuthResult struct {
	Identity *domain.ExternalIdentity
	Session  *domain.Session
}

// IdentityProvider is the external auth oracle.
type IdentityProvider interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	SignUp(ctx context.Context, email, password string, claims map[string]any) (*AuthResult, error)
	RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error)
	AdminSignOut(ctx context.Context, externalID string) error
	AdminUpdateClaims(ctx context.Context, externalID string, claims map[string]any) error
	GetAuthSettings(ctx context.Context) (*domain.ProviderSettings, error)
	// SignOut revokes the session behind accessToken from the client side.
	SignOut(ctx context.Context, accessToken string) error
}
