package supabase

import (
	"encoding/json"
	"strconv"
	"time"

	"authbridge/internal/domain"
	"authbridge/internal/port"
)

type identityResponse struct {
	Provider     string         `json:"provider"`
	IdentityData map[string]any `json:"identity_data"`
}

type userResponse struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	AppMetadata  map[string]any     `json:"app_metadata"`
	UserMetadata map[string]any     `json:"user_metadata"`
	Identities   []identityResponse `json:"identities"`
	LastSignInAt *time.Time         `json:"last_sign_in_at"`
}

func (u *userResponse) toIdentity() *domain.ExternalIdentity {
	ext := &domain.ExternalIdentity{
		ID:           u.ID,
		Email:        u.Email,
		Claims:       u.UserMetadata,
		AppMetadata:  u.AppMetadata,
		LastSignInAt: u.LastSignInAt,
	}
	if p, ok := u.AppMetadata["provider"].(string); ok {
		ext.Provider = p
	}
	for _, id := range u.Identities {
		ext.Identities = append(ext.Identities, domain.IdentityBinding{
			Provider:     id.Provider,
			IdentityData: id.IdentityData,
		})
	}
	return ext
}

type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

func (s *sessionResponse) toResult() *port.AuthResult {
	res := &port.AuthResult{}
	if s.User != nil && s.User.ID != "" {
		res.Identity = s.User.toIdentity()
	}
	if s.AccessToken != "" {
		res.Session = &domain.Session{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			ExpiresIn:    s.ExpiresIn,
			TokenType:    s.TokenType,
		}
	}
	return res
}

// decodeSignUp handles both signup answers: a full session when the project
// auto-confirms users, or the bare user when confirmation is pending.
func decodeSignUp(raw json.RawMessage) (*port.AuthResult, error) {
	var s sessionResponse
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &port.ProviderError{Status: 200, Message: "decoding signup response: " + err.Error()}
	}
	if s.AccessToken != "" || s.User != nil {
		return s.toResult(), nil
	}

	var u userResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &port.ProviderError{Status: 200, Message: "decoding signup user: " + err.Error()}
	}
	res := &port.AuthResult{}
	if u.ID != "" {
		res.Identity = u.toIdentity()
	}
	return res, nil
}

// decodeSettings reads the auth settings document. Both the public settings
// shape ({"external":{"google":true}}) and the admin shape
// ({"external":{"google":{"enabled":true}}}) are accepted, as are snake and
// camel case lifetime keys.
func decodeSettings(raw map[string]any) *domain.ProviderSettings {
	if nested, ok := raw["settings"].(map[string]any); ok {
		raw = nested
	}
	external, _ := raw["external"].(map[string]any)
	return &domain.ProviderSettings{
		GoogleEnabled: enabled(external["google"]),
		EmailEnabled:  enabled(external["email"]),
		AccessTTL:     number(raw, "jwt_expiry", "jwtExpiry"),
		RefreshTTL:    number(raw, "refresh_token_expiry", "refreshTokenExpiry"),
	}
}

func enabled(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case map[string]any:
		b, _ := t["enabled"].(bool)
		return b
	default:
		return false
	}
}

func number(raw map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch t := raw[k].(type) {
		case float64:
			if t > 0 {
				return int64(t)
			}
		case string:
			if n, err := strconv.ParseInt(t, 10, 64); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}
