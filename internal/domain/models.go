package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityBinding links an external identity to one federated provider account.
type IdentityBinding struct {
	Provider     string         `json:"provider"`
	IdentityData map[string]any `json:"identity_data"`
}

// ExternalIdentity is the identity provider's view of a user at the time of one call.
type ExternalIdentity struct {
	ID           string
	Email        string
	Provider     string
	Claims       map[string]any
	AppMetadata  map[string]any
	LastSignInAt *time.Time
	Identities   []IdentityBinding
}

// Binding returns the identity binding for provider, or nil.
func (e *ExternalIdentity) Binding(provider string) *IdentityBinding {
	for i := range e.Identities {
		if e.Identities[i].Provider == provider {
			return &e.Identities[i]
		}
	}
	return nil
}

// Session is a provider-issued token pair. It is never persisted.
type Session struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken,omitempty"`
	ExpiresIn        int64  `json:"expiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
	TokenType        string `json:"tokenType"`
}

// ProviderSettings holds the identity provider's auth configuration.
// TTLs are in seconds; zero means the provider did not report a value.
type ProviderSettings struct {
	GoogleEnabled bool
	EmailEnabled  bool
	AccessTTL     int64
	RefreshTTL    int64
}

// IdentityFields are the profile columns derived from an external identity.
// They are rewritten on every login and refresh.
type IdentityFields struct {
	Email           string    `db:"email" json:"email"`
	Provider        string    `db:"provider" json:"provider"`
	ProviderSubject *string   `db:"provider_subject" json:"-"`
	FullName        *string   `db:"full_name" json:"fullName"`
	AvatarURL       *string   `db:"avatar_url" json:"avatarUrl"`
	CountryCode     *string   `db:"country_code" json:"countryCode"`
	LastLoginAt     time.Time `db:"last_login_at" json:"lastLoginAt"`
}

// ProfilePayload is what the identity mapper produces for the reconciler.
type ProfilePayload struct {
	ExternalID string
	Identity   IdentityFields
	// Attributes are only applied when the profile is created.
	Attributes ExtendedAttributes
}

// Profile is the durable local record of a user, keyed by ExternalID.
type Profile struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	ExternalID string             `db:"external_id" json:"-"`
	Attributes ExtendedAttributes `db:"attributes" json:"attributes"`
	CreatedAt  time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updatedAt"`
	IdentityFields
}

// ExtendedAttributes are user-entered profile fields, owned by the profile update flow.
type ExtendedAttributes struct {
	Name          *string `json:"name,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	DOB           *string `json:"dob,omitempty"`
	HeightFeet    *int    `json:"heightFeet,omitempty"`
	HeightInches  *int    `json:"heightInches,omitempty"`
	Religion      *string `json:"religion,omitempty"`
	Caste         *string `json:"caste,omitempty"`
	Rashi         *string `json:"rashi,omitempty"`
	Education     *string `json:"education,omitempty"`
	Occupation    *string `json:"occupation,omitempty"`
	AnnualIncome  *int64  `json:"annualIncome,omitempty"`
	MaritalStatus *string `json:"maritalStatus,omitempty"`
	HomeAddress   *string `json:"homeAddress,omitempty"`
	Expectation   *string `json:"expectation,omitempty"`
	City          *string `json:"city,omitempty"`
	Pincode       *int    `json:"pincode,omitempty"`
	State         *string `json:"state,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
}

// Scan implements sql.Scanner for the JSONB attributes column.
func (a *ExtendedAttributes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = ExtendedAttributes{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ExtendedAttributes.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*a = ExtendedAttributes{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Value implements driver.Valuer for the JSONB attributes column.
func (a ExtendedAttributes) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Claims flattens the attributes into a claim bag keyed by their JSON names.
func (a ExtendedAttributes) Claims() map[string]any {
	out := map[string]any{}
	b, err := json.Marshal(a)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

// IsEmpty reports whether no attribute is set.
func (a ExtendedAttributes) IsEmpty() bool {
	return len(a.Claims()) == 0
}

// Sanitize trims string attributes and drops the ones left empty.
func (a ExtendedAttributes) Sanitize() ExtendedAttributes {
	out := a
	for _, f := range []**string{
		&out.Name, &out.Gender, &out.DOB, &out.Religion, &out.Caste, &out.Rashi,
		&out.Education, &out.Occupation, &out.MaritalStatus, &out.HomeAddress,
		&out.Expectation, &out.City, &out.State, &out.ContactNumber,
	} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			*f = nil
			continue
		}
		*f = &v
	}
	return out
}

// Merge returns a with every attribute set in b overlaid on top.
func (a ExtendedAttributes) Merge(b ExtendedAttributes) ExtendedAttributes {
	merged := a.Claims()
	for k, v := range b.Claims() {
		merged[k] = v
	}
	var out ExtendedAttributes
	raw, err := json.Marshal(merged)
	if err != nil {
		return a
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return a
	}
	return out
}
