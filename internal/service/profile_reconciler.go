package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"authbridge/internal/domain"
	"authbridge/internal/identity"
	"authbridge/internal/logger"
	"authbridge/internal/port"
)

// ReconcileResult is the outcome of reconciling an identity with its local profile.
type ReconcileResult struct {
	Profile   *domain.Profile
	IsNewUser bool
}

// ProfileReconciler keeps the local profile in step with the identity provider.
type ProfileReconciler interface {
	// Reconcile creates the profile on first sight and otherwise refreshes its
	// identity-derived fields. Extended attributes are only written on create.
	Reconcile(ctx context.Context, payload *domain.ProfilePayload) (*ReconcileResult, error)
	// Refresh updates identity-derived fields of an existing profile. It never creates.
	Refresh(ctx context.Context, payload *domain.ProfilePayload) (*domain.Profile, error)
	Get(ctx context.Context, externalID string) (*domain.Profile, error)
	// UpdateProfile merges attrs into the caller's claims, pushes them to the
	// provider and then persists them locally.
	UpdateProfile(ctx context.Context, caller *domain.ExternalIdentity, attrs domain.ExtendedAttributes) (*domain.Profile, error)
	Complete(p *domain.Profile) bool
}

type profileReconciler struct {
	repo     port.ProfileRepository
	provider port.IdentityProvider
	policy   CompletenessPolicy
}

// NewProfileReconciler creates a ProfileReconciler.
func NewProfileReconciler(repo port.ProfileRepository, provider port.IdentityProvider, policy CompletenessPolicy) ProfileReconciler {
	return &profileReconciler{repo: repo, provider: provider, policy: policy}
}

func (r *profileReconciler) Reconcile(ctx context.Context, payload *domain.ProfilePayload) (*ReconcileResult, error) {
	// The pre-fetch decides isNewUser; the upsert result cannot tell which branch ran.
	_, err := r.repo.FindByExternalID(ctx, payload.ExternalID)
	isNew := false
	switch {
	case errors.Is(err, domain.ErrNotFound):
		isNew = true
	case err != nil:
		return nil, fmt.Errorf("looking up profile: %w", err)
	}

	create := &domain.Profile{
		ID:             uuid.New(),
		ExternalID:     payload.ExternalID,
		IdentityFields: payload.Identity,
		Attributes:     payload.Attributes.Sanitize(),
	}
	profile, err := r.repo.Upsert(ctx, create, payload.Identity)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	if isNew {
		logger.From(ctx).Info("profile created", logger.ExternalID(payload.ExternalID), logger.Provider(payload.Identity.Provider))
	}
	return &ReconcileResult{Profile: profile, IsNewUser: isNew}, nil
}

func (r *profileReconciler) Refresh(ctx context.Context, payload *domain.ProfilePayload) (*domain.Profile, error) {
	if _, err := r.repo.FindByExternalID(ctx, payload.ExternalID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("looking up profile: %w", err)
	}

	profile, err := r.repo.UpdateIdentity(ctx, payload.ExternalID, payload.Identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("updating profile identity: %w", err)
	}
	return profile, nil
}

func (r *profileReconciler) Get(ctx context.Context, externalID string) (*domain.Profile, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, domain.ErrMissingContext
	}
	profile, err := r.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("looking up profile: %w", err)
	}
	return profile, nil
}

func (r *profileReconciler) UpdateProfile(ctx context.Context, caller *domain.ExternalIdentity, attrs domain.ExtendedAttributes) (*domain.Profile, error) {
	if caller == nil || strings.TrimSpace(caller.ID) == "" || strings.TrimSpace(caller.Email) == "" {
		return nil, domain.ErrMissingContext
	}

	changes := attrs.Sanitize()
	if changes.IsEmpty() {
		return nil, domain.ErrNoChanges
	}

	existing, err := r.Get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	claims := make(map[string]any, len(caller.Claims))
	for k, v := range caller.Claims {
		claims[k] = v
	}
	for k, v := range changes.Claims() {
		claims[k] = v
	}

	if err := r.provider.AdminUpdateClaims(ctx, caller.ID, claims); err != nil {
		return nil, providerFailure(err, domain.ErrBadRequest, true)
	}

	// The full name follows claim precedence, so a provider full_name outranks an edited name.
	profile, err := r.repo.UpdateAttributes(ctx, caller.ID, identity.FullName(claims), existing.Attributes.Merge(changes))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("updating profile attributes: %w", err)
	}
	return profile, nil
}

func (r *profileReconciler) Complete(p *domain.Profile) bool {
	return r.policy.Complete(p)
}
