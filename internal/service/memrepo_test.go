package service_test

import (
	"context"
	"sync"
	"time"

	"authbridge/internal/domain"
)

// memProfileRepo is an in-memory port.ProfileRepository with the same upsert
// semantics as the Postgres implementation.
type memProfileRepo struct {
	mu     sync.Mutex
	rows   map[string]domain.Profile
	writes int
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{rows: map[string]domain.Profile{}}
}

func (r *memProfileRepo) FindByExternalID(_ context.Context, externalID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memProfileRepo) Upsert(_ context.Context, create *domain.Profile, update domain.IdentityFields) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	now := time.Now().UTC()
	p, ok := r.rows[create.ExternalID]
	if !ok {
		p = *create
		p.CreatedAt = now
	} else {
		p.IdentityFields = update
	}
	p.UpdatedAt = now
	r.rows[p.ExternalID] = p
	return &p, nil
}

func (r *memProfileRepo) UpdateIdentity(_ context.Context, externalID string, fields domain.IdentityFields) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.writes++
	p.IdentityFields = fields
	p.UpdatedAt = time.Now().UTC()
	r.rows[externalID] = p
	return &p, nil
}

func (r *memProfileRepo) UpdateAttributes(_ context.Context, externalID string, fullName *string, attrs domain.ExtendedAttributes) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.writes++
	p.FullName = fullName
	p.Attributes = attrs
	p.UpdatedAt = time.Now().UTC()
	r.rows[externalID] = p
	return &p, nil
}

func (r *memProfileRepo) Ping(context.Context) error { return nil }

func (r *memProfileRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memProfileRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
