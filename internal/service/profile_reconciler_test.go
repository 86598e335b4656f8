package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authbridge/internal/domain"
	"authbridge/internal/identity"
	"authbridge/internal/port"
	"authbridge/internal/service"
	"authbridge/mocks"
)

func newReconciler(t *testing.T, policy string) (*memProfileRepo, *mocks.MockIdentityProvider, service.ProfileReconciler) {
	t.Helper()
	repo := newMemProfileRepo()
	provider := new(mocks.MockIdentityProvider)
	p, err := service.NewCompletenessPolicy(policy)
	require.NoError(t, err)
	return repo, provider, service.NewProfileReconciler(repo, provider, p)
}

func mapIdentity(t *testing.T, ext *domain.ExternalIdentity) *domain.ProfilePayload {
	t.Helper()
	m := identity.NewMapper("google", func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })
	payload, err := m.Map(ext, identity.Options{})
	require.NoError(t, err)
	return payload
}

func TestReconcile_GivenNameOnlyExample(t *testing.T) {
	ext := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com", Claims: map[string]any{"given_name": "Jo"}}

	for policy, wantComplete := range map[string]bool{"federated": true, "extended": false} {
		t.Run(policy, func(t *testing.T) {
			_, _, r := newReconciler(t, policy)

			res, err := r.Reconcile(context.Background(), mapIdentity(t, ext))

			require.NoError(t, err)
			assert.True(t, res.IsNewUser)
			require.NotNil(t, res.Profile.FullName)
			assert.Equal(t, "Jo", *res.Profile.FullName)
			assert.Equal(t, wantComplete, r.Complete(res.Profile))
		})
	}
}

func TestReconcile_IdempotentAndPreservesAttributes(t *testing.T) {
	repo, provider, r := newReconciler(t, "federated")
	ctx := context.Background()
	ext := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com", Claims: map[string]any{"full_name": "Jo Bloggs"}}

	first, err := r.Reconcile(ctx, mapIdentity(t, ext))
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)

	provider.On("AdminUpdateClaims", mock.Anything, "abc", mock.Anything).Return(nil)
	_, err = r.UpdateProfile(ctx, ext, domain.ExtendedAttributes{City: strPtr("Pune"), Gender: strPtr("FEMALE")})
	require.NoError(t, err)

	ext.Claims = map[string]any{"full_name": "Jo B."}
	second, err := r.Reconcile(ctx, mapIdentity(t, ext))
	require.NoError(t, err)

	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.Profile.ID, second.Profile.ID)
	assert.Equal(t, "Jo B.", *second.Profile.FullName)
	require.NotNil(t, second.Profile.Attributes.City)
	assert.Equal(t, "Pune", *second.Profile.Attributes.City)
	assert.Equal(t, "FEMALE", *second.Profile.Attributes.Gender)
	assert.Equal(t, 1, repo.count())
}

func TestReconcile_ExistingProfileKeepsAttributesFromClaims(t *testing.T) {
	_, _, r := newReconciler(t, "federated")
	ctx := context.Background()
	ext := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com", Claims: map[string]any{"city": "Pune"}}

	_, err := r.Reconcile(ctx, mapIdentity(t, ext))
	require.NoError(t, err)

	ext.Claims = map[string]any{"city": "Delhi"}
	res, err := r.Reconcile(ctx, mapIdentity(t, ext))
	require.NoError(t, err)
	assert.Equal(t, "Pune", *res.Profile.Attributes.City)
}

func TestReconcile_InterleavedFirstSignInsBothReportNew(t *testing.T) {
	repo := new(mocks.MockProfileRepo)
	policy, err := service.NewCompletenessPolicy("federated")
	require.NoError(t, err)
	r := service.NewProfileReconciler(repo, new(mocks.MockIdentityProvider), policy)

	stored := &domain.Profile{ExternalID: "abc"}
	// Both pre-fetches run before either upsert lands.
	repo.On("FindByExternalID", mock.Anything, "abc").Return(nil, domain.ErrNotFound).Twice()
	repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(stored, nil).Twice()

	payload := mapIdentity(t, &domain.ExternalIdentity{ID: "abc", Email: "a@b.com"})
	first, err := r.Reconcile(context.Background(), payload)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), payload)
	require.NoError(t, err)

	assert.True(t, first.IsNewUser)
	assert.True(t, second.IsNewUser)
	assert.Same(t, first.Profile, second.Profile)
	repo.AssertExpectations(t)
}

func TestRefresh_NeverCreates(t *testing.T) {
	repo, _, r := newReconciler(t, "federated")
	ext := &domain.ExternalIdentity{ID: "ghost", Email: "g@b.com"}

	_, err := r.Refresh(context.Background(), mapIdentity(t, ext))

	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.Equal(t, 0, repo.count())
	assert.Equal(t, 0, repo.writeCount())
}

func TestUpdateProfile_NoChanges(t *testing.T) {
	repo, provider, r := newReconciler(t, "extended")
	caller := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com"}

	_, err := r.UpdateProfile(context.Background(), caller, domain.ExtendedAttributes{City: strPtr("   ")})

	assert.ErrorIs(t, err, domain.ErrNoChanges)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, 0, repo.writeCount())
	provider.AssertNotCalled(t, "AdminUpdateClaims", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_MissingContext(t *testing.T) {
	_, provider, r := newReconciler(t, "extended")

	for _, caller := range []*domain.ExternalIdentity{nil, {ID: "abc"}, {Email: "a@b.com"}} {
		_, err := r.UpdateProfile(context.Background(), caller, domain.ExtendedAttributes{City: strPtr("Pune")})
		assert.ErrorIs(t, err, domain.ErrMissingContext)
	}
	provider.AssertNotCalled(t, "AdminUpdateClaims", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_MergesClaimsAndRederivesName(t *testing.T) {
	repo, provider, r := newReconciler(t, "extended")
	ctx := context.Background()
	caller := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com", Claims: map[string]any{"avatar_url": "https://img/a.png"}}
	_, err := r.Reconcile(ctx, mapIdentity(t, caller))
	require.NoError(t, err)

	var pushed map[string]any
	provider.On("AdminUpdateClaims", mock.Anything, "abc", mock.Anything).
		Run(func(args mock.Arguments) { pushed = args.Get(2).(map[string]any) }).
		Return(nil)

	profile, err := r.UpdateProfile(ctx, caller, domain.ExtendedAttributes{
		Name:         strPtr(" Jo Bloggs "),
		Gender:       strPtr("FEMALE"),
		DOB:          strPtr("1994-06-12"),
		HeightFeet:   intPtr(5),
		HeightInches: intPtr(0),
		Religion:     strPtr("HINDU"),
		Caste:        strPtr("Any"),
		Rashi:        strPtr("KARK"),
	})

	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", pushed["avatar_url"])
	assert.Equal(t, "Jo Bloggs", pushed["name"])
	assert.Equal(t, "Jo Bloggs", *profile.FullName)
	assert.True(t, r.Complete(profile))
	assert.Equal(t, 2, repo.writeCount())
}

func TestUpdateProfile_ProviderFullNameOutranksEditedName(t *testing.T) {
	repo, provider, r := newReconciler(t, "federated")
	ctx := context.Background()
	caller := &domain.ExternalIdentity{ID: "g-1", Email: "ada@b.com", Claims: map[string]any{
		"full_name": "Ada Lovelace",
		"name":      "Ada",
	}}
	_, err := r.Reconcile(ctx, mapIdentity(t, caller))
	require.NoError(t, err)

	var pushed map[string]any
	provider.On("AdminUpdateClaims", mock.Anything, "g-1", mock.Anything).
		Run(func(args mock.Arguments) { pushed = args.Get(2).(map[string]any) }).
		Return(nil)

	profile, err := r.UpdateProfile(ctx, caller, domain.ExtendedAttributes{Name: strPtr("Ada King")})

	require.NoError(t, err)
	assert.Equal(t, "Ada King", pushed["name"])
	assert.Equal(t, "Ada Lovelace", pushed["full_name"])
	assert.Equal(t, "Ada Lovelace", *profile.FullName)
	assert.Equal(t, "Ada King", *profile.Attributes.Name)
	assert.Equal(t, 2, repo.writeCount())
}

func TestUpdateProfile_ProviderRejection(t *testing.T) {
	repo, provider, r := newReconciler(t, "federated")
	ctx := context.Background()
	caller := &domain.ExternalIdentity{ID: "abc", Email: "a@b.com"}
	_, err := r.Reconcile(ctx, mapIdentity(t, caller))
	require.NoError(t, err)

	provider.On("AdminUpdateClaims", mock.Anything, "abc", mock.Anything).
		Return(&port.ProviderError{Status: 422, Message: "metadata too large"})

	_, err = r.UpdateProfile(ctx, caller, domain.ExtendedAttributes{City: strPtr("Pune")})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "metadata too large")
	assert.Equal(t, 1, repo.writeCount())
}
