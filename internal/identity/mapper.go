// Package identity converts identity provider users into local profile payloads.
package identity

import (
	"encoding/json"
	"strings"
	"time"

	"authbridge/internal/domain"
)

// Extractor derives one optional value from a claim bag.
type Extractor func(claims map[string]any) *string

// FullNameExtractors is the ordered full name derivation chain. The first
// extractor that yields a value wins.
var FullNameExtractors = []Extractor{
	Claim("full_name"),
	Claim("name"),
	givenAndFamily,
	Claim("given_name", "first_name"),
	Claim("family_name", "last_name"),
}

// AvatarExtractors and CountryExtractors resolve display fields the same way.
var (
	AvatarExtractors  = []Extractor{Claim("avatar_url", "picture")}
	CountryExtractors = []Extractor{Claim("locale", "country")}
)

// Claim returns an extractor yielding the first of keys holding a non-blank string.
func Claim(keys ...string) Extractor {
	return func(claims map[string]any) *string {
		for _, k := range keys {
			if s := stringClaim(claims, k); s != "" {
				return &s
			}
		}
		return nil
	}
}

func givenAndFamily(claims map[string]any) *string {
	given := Claim("given_name", "first_name")(claims)
	family := Claim("family_name", "last_name")(claims)
	if given == nil || family == nil {
		return nil
	}
	full := strings.TrimSpace(*given + " " + *family)
	return &full
}

// FirstOf evaluates extractors in order and returns the first non-nil result.
func FirstOf(extractors []Extractor, claims map[string]any) *string {
	for _, ex := range extractors {
		if v := ex(claims); v != nil {
			return v
		}
	}
	return nil
}

// FullName applies FullNameExtractors to claims.
func FullName(claims map[string]any) *string {
	return FirstOf(FullNameExtractors, claims)
}

// Options tune a single Map call.
type Options struct {
	// RequireSubject rejects identities with no federated subject identifier.
	RequireSubject bool
	// StampNow ignores the provider's sign-in time and uses the mapper clock.
	StampNow bool
}

// Mapper builds profile payloads from external identities.
type Mapper struct {
	federatedProvider string
	now               func() time.Time
}

// NewMapper creates a Mapper. federatedProvider names the identity binding
// consulted for the subject identifier (e.g. "google").
func NewMapper(federatedProvider string, now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{federatedProvider: federatedProvider, now: now}
}

// Map converts ext into a profile payload.
func (m *Mapper) Map(ext *domain.ExternalIdentity, opts Options) (*domain.ProfilePayload, error) {
	if ext == nil || strings.TrimSpace(ext.ID) == "" || strings.TrimSpace(ext.Email) == "" {
		return nil, domain.ErrIncompleteIdentity
	}

	subject := m.Subject(ext)
	if opts.RequireSubject && subject == nil {
		return nil, domain.ErrMissingSubject
	}

	claims := ext.Claims
	if claims == nil {
		claims = map[string]any{}
	}

	lastLogin := m.now().UTC()
	if !opts.StampNow && ext.LastSignInAt != nil && !ext.LastSignInAt.IsZero() {
		lastLogin = ext.LastSignInAt.UTC()
	}

	provider := ext.Provider
	if provider == "" {
		provider = string(domain.AuthMethodEmail)
	}

	return &domain.ProfilePayload{
		ExternalID: ext.ID,
		Identity: domain.IdentityFields{
			Email:           strings.TrimSpace(ext.Email),
			Provider:        provider,
			ProviderSubject: subject,
			FullName:        FullName(claims),
			AvatarURL:       FirstOf(AvatarExtractors, claims),
			CountryCode:     FirstOf(CountryExtractors, claims),
			LastLoginAt:     lastLogin,
		},
		Attributes: AttributesFromClaims(claims),
	}, nil
}

// Subject resolves the federated subject: the bound identity's sub, then the
// app metadata provider id, then the claim sub.
func (m *Mapper) Subject(ext *domain.ExternalIdentity) *string {
	if b := ext.Binding(m.federatedProvider); b != nil {
		if s := stringClaim(b.IdentityData, "sub"); s != "" {
			return &s
		}
	}
	if s := stringClaim(ext.AppMetadata, "provider_id"); s != "" {
		return &s
	}
	if s := stringClaim(ext.Claims, "sub"); s != "" {
		return &s
	}
	return nil
}

// AttributesFromClaims decodes the extended attributes carried in a claim bag.
// Claims that do not decode cleanly are ignored as a whole.
func AttributesFromClaims(claims map[string]any) domain.ExtendedAttributes {
	var attrs domain.ExtendedAttributes
	if len(claims) == 0 {
		return attrs
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return attrs
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return domain.ExtendedAttributes{}
	}
	return attrs
}

func stringClaim(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	switch v := claims[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
