package port

import (
	"context"

	"authbridge/internal/domain"
)

// ProfileRepository defines the contract for local profile persistence.
// Profiles are keyed by the external identity id; lookups that miss return
// domain.ErrNotFound.
type ProfileRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.Profile, error)
	// Upsert inserts create, or applies update to the existing row with the same
	// external id. Only identity-derived columns are touched on conflict.
	Upsert(ctx context.Context, create *domain.Profile, update domain.IdentityFields) (*domain.Profile, error)
	UpdateIdentity(ctx context.Context, externalID string, fields domain.IdentityFields) (*domain.Profile, error)
	UpdateAttributes(ctx context.Context, externalID string, fullName *string, attrs domain.ExtendedAttributes) (*domain.Profile, error)
	Ping(ctx context.Context) error
}
