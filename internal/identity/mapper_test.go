package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/domain"
	"authbridge/internal/identity"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMapper() *identity.Mapper {
	return identity.NewMapper("google", func() time.Time { return fixedNow })
}

func TestFullName_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   *string
	}{
		{"full_name wins", map[string]any{"full_name": "Ada Lovelace", "name": "Ada", "given_name": "A"}, ptr("Ada Lovelace")},
		{"name next", map[string]any{"name": "Ada", "given_name": "A", "family_name": "L"}, ptr("Ada")},
		{"given and family", map[string]any{"given_name": "Ada", "family_name": "Lovelace"}, ptr("Ada Lovelace")},
		{"first and last aliases", map[string]any{"first_name": "Ada", "last_name": "Lovelace"}, ptr("Ada Lovelace")},
		{"given only", map[string]any{"given_name": "Jo"}, ptr("Jo")},
		{"family only", map[string]any{"family_name": "Lovelace"}, ptr("Lovelace")},
		{"blank full_name skipped", map[string]any{"full_name": "  ", "name": "Ada"}, ptr("Ada")},
		{"non-string ignored", map[string]any{"full_name": 42, "given_name": "Jo"}, ptr("Jo")},
		{"nothing", map[string]any{"email": "a@b.com"}, nil},
		{"nil claims", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.FullName(tt.claims))
		})
	}
}

func TestFullNameExtractors_Order(t *testing.T) {
	// Each claim bag satisfies exactly one extractor; the index must match its position.
	bags := []map[string]any{
		{"full_name": "x"},
		{"name": "x"},
		{"given_name": "x", "family_name": "y"},
		{"given_name": "x"},
		{"family_name": "x"},
	}
	require.Len(t, identity.FullNameExtractors, len(bags))
	for i, bag := range bags {
		for j, ex := range identity.FullNameExtractors[:i] {
			assert.Nil(t, ex(bag), "extractor %d should not match bag %d", j, i)
		}
		assert.NotNil(t, identity.FullNameExtractors[i](bag), "extractor %d should match", i)
	}
}

func TestMap_GivenNameOnly(t *testing.T) {
	ext := &domain.ExternalIdentity{
		ID:     "abc",
		Email:  "a@b.com",
		Claims: map[string]any{"given_name": "Jo"},
	}

	payload, err := newMapper().Map(ext, identity.Options{})

	require.NoError(t, err)
	assert.Equal(t, "abc", payload.ExternalID)
	assert.Equal(t, "a@b.com", payload.Identity.Email)
	assert.Equal(t, "email", payload.Identity.Provider)
	require.NotNil(t, payload.Identity.FullName)
	assert.Equal(t, "Jo", *payload.Identity.FullName)
	assert.Equal(t, fixedNow, payload.Identity.LastLoginAt)
	assert.Nil(t, payload.Identity.ProviderSubject)
}

func TestMap_MissingIDOrEmail(t *testing.T) {
	m := newMapper()

	_, err := m.Map(&domain.ExternalIdentity{Email: "a@b.com"}, identity.Options{})
	assert.ErrorIs(t, err, domain.ErrIncompleteIdentity)

	_, err = m.Map(&domain.ExternalIdentity{ID: "abc", Email: "  "}, identity.Options{})
	assert.ErrorIs(t, err, domain.ErrIncompleteIdentity)

	_, err = m.Map(nil, identity.Options{})
	assert.ErrorIs(t, err, domain.ErrIncompleteIdentity)
}

func TestMap_SubjectChain(t *testing.T) {
	m := newMapper()
	base := func() *domain.ExternalIdentity {
		return &domain.ExternalIdentity{
			ID:          "abc",
			Email:       "a@b.com",
			Provider:    "google",
			Claims:      map[string]any{"sub": "claim-sub"},
			AppMetadata: map[string]any{"provider_id": "app-sub"},
			Identities: []domain.IdentityBinding{
				{Provider: "github", IdentityData: map[string]any{"sub": "gh-sub"}},
				{Provider: "google", IdentityData: map[string]any{"sub": "binding-sub"}},
			},
		}
	}

	ext := base()
	p, err := m.Map(ext, identity.Options{RequireSubject: true})
	require.NoError(t, err)
	assert.Equal(t, "binding-sub", *p.Identity.ProviderSubject)

	ext = base()
	ext.Identities = ext.Identities[:1]
	p, err = m.Map(ext, identity.Options{RequireSubject: true})
	require.NoError(t, err)
	assert.Equal(t, "app-sub", *p.Identity.ProviderSubject)

	ext = base()
	ext.Identities = nil
	ext.AppMetadata = nil
	p, err = m.Map(ext, identity.Options{RequireSubject: true})
	require.NoError(t, err)
	assert.Equal(t, "claim-sub", *p.Identity.ProviderSubject)

	ext = base()
	ext.Identities = nil
	ext.AppMetadata = nil
	ext.Claims = nil
	_, err = m.Map(ext, identity.Options{RequireSubject: true})
	assert.ErrorIs(t, err, domain.ErrMissingSubject)
	assert.Equal(t, domain.KindUnauthenticated, domain.KindOf(err))
}

func TestMap_DisplayAliasesAndSignInTime(t *testing.T) {
	signedIn := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)
	ext := &domain.ExternalIdentity{
		ID:           "abc",
		Email:        "a@b.com",
		LastSignInAt: &signedIn,
		Claims: map[string]any{
			"picture": "https://img/p.png",
			"country": "IN",
		},
	}

	p, err := newMapper().Map(ext, identity.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://img/p.png", *p.Identity.AvatarURL)
	assert.Equal(t, "IN", *p.Identity.CountryCode)
	assert.Equal(t, signedIn, p.Identity.LastLoginAt)

	p, err = newMapper().Map(ext, identity.Options{StampNow: true})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, p.Identity.LastLoginAt)

	ext.Claims["avatar_url"] = "https://img/a.png"
	ext.Claims["locale"] = "en-IN"
	p, err = newMapper().Map(ext, identity.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", *p.Identity.AvatarURL)
	assert.Equal(t, "en-IN", *p.Identity.CountryCode)
}

func TestAttributesFromClaims(t *testing.T) {
	attrs := identity.AttributesFromClaims(map[string]any{
		"name":       "Jo",
		"gender":     "FEMALE",
		"heightFeet": float64(5),
		"unknown":    true,
	})
	require.NotNil(t, attrs.Gender)
	assert.Equal(t, "FEMALE", *attrs.Gender)
	require.NotNil(t, attrs.HeightFeet)
	assert.Equal(t, 5, *attrs.HeightFeet)
	assert.Nil(t, attrs.Religion)

	bad := identity.AttributesFromClaims(map[string]any{"gender": 7})
	assert.True(t, bad.IsEmpty())
}

func ptr(s string) *string { return &s }
