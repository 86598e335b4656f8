package supabase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSigner mints short-lived user tokens signed with the project JWT secret.
type AdminSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAdminSigner creates an AdminSigner.
func NewAdminSigner(secret string, ttl time.Duration) *AdminSigner {
	return &AdminSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns an HS256 token whose subject is externalID.
func (s *AdminSigner) Sign(externalID string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("provider jwt secret is not configured")
	}
	if externalID == "" {
		return "", errors.New("external id is required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  externalID,
		"aud":  "authenticated",
		"role": "authenticated",
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
