package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"authbridge/internal/domain"
	"authbridge/internal/port"
)

const profileColumns = `id, external_id, email, provider, provider_subject, full_name, avatar_url,
	country_code, attributes, last_login_at, created_at, updated_at`

type profileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo creates a new PostgreSQL-backed ProfileRepository.
func NewProfileRepo(db *sqlx.DB) port.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) FindByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.GetContext(ctx, &p,
		"SELECT "+profileColumns+" FROM profiles WHERE external_id = $1", externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("profileRepo.FindByExternalID: %w", err)
	}
	return &p, nil
}

// Upsert inserts create or, when a row with the same external id exists, rewrites
// only its identity-derived columns. external_id and attributes are never updated.
func (r *profileRepo) Upsert(ctx context.Context, create *domain.Profile, update domain.IdentityFields) (*domain.Profile, error) {
	now := time.Now().UTC()
	query := `INSERT INTO profiles (id, external_id, email, provider, provider_subject, full_name,
		avatar_url, country_code, attributes, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (external_id) DO UPDATE SET
			email = $12, provider = $13, provider_subject = $14, full_name = $15,
			avatar_url = $16, country_code = $17, last_login_at = $18, updated_at = $11
		RETURNING ` + profileColumns

	var p domain.Profile
	err := r.db.GetContext(ctx, &p, query,
		create.ID, create.ExternalID, create.Email, create.Provider, create.ProviderSubject,
		create.FullName, create.AvatarURL, create.CountryCode, create.Attributes, create.LastLoginAt, now,
		update.Email, update.Provider, update.ProviderSubject, update.FullName,
		update.AvatarURL, update.CountryCode, update.LastLoginAt)
	if err != nil {
		return nil, fmt.Errorf("profileRepo.Upsert: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) UpdateIdentity(ctx context.Context, externalID string, fields domain.IdentityFields) (*domain.Profile, error) {
	query := `UPDATE profiles SET email = $1, provider = $2, provider_subject = $3, full_name = $4,
		avatar_url = $5, country_code = $6, last_login_at = $7, updated_at = $8
		WHERE external_id = $9
		RETURNING ` + profileColumns

	var p domain.Profile
	err := r.db.GetContext(ctx, &p, query,
		fields.Email, fields.Provider, fields.ProviderSubject, fields.FullName,
		fields.AvatarURL, fields.CountryCode, fields.LastLoginAt, time.Now().UTC(), externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("profileRepo.UpdateIdentity: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) UpdateAttributes(ctx context.Context, externalID string, fullName *string, attrs domain.ExtendedAttributes) (*domain.Profile, error) {
	query := `UPDATE profiles SET full_name = $1, attributes = $2, updated_at = $3
		WHERE external_id = $4
		RETURNING ` + profileColumns

	var p domain.Profile
	err := r.db.GetContext(ctx, &p, query, fullName, attrs, time.Now().UTC(), externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("profileRepo.UpdateAttributes: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("profileRepo.Ping: %w", err)
	}
	return nil
}
