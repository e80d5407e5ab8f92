// Package memstore is a mutex-guarded in-memory IdentityStore. It enforces
// the same unique-key semantics as the Mongo backend so flows and tests
// exercise identical failure modes without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	authflow "github.com/mvalko/go-authflow"
)

// Store implements authflow.IdentityStore in memory.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*authflow.Identity
	byEmail map[string]string
	now     func() time.Time
}

var _ authflow.IdentityStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*authflow.Identity),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock overrides the time source used for upsert timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// FindByEmail looks an identity up by its normalized email.
func (s *Store) FindByEmail(_ context.Context, email string) (*authflow.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[authflow.NormalizeEmail(email)]
	if !ok {
		return nil, authflow.ErrIdentityNotFound
	}
	return clone(s.byID[id]), nil
}

// FindByExternalID looks an identity up by its stable identifier.
func (s *Store) FindByExternalID(_ context.Context, id string) (*authflow.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authflow.ErrIdentityNotFound
	}
	return clone(identity), nil
}

// Insert adds a new identity; a colliding ID or email fails with
// ErrDuplicateEmail and leaves the store untouched.
func (s *Store) Insert(_ context.Context, identity *authflow.Identity) (*authflow.Identity, error) {
	if identity == nil || identity.ID == "" {
		return nil, authflow.ErrInvalidInput.WithMetadata(map[string]any{"identity": "id is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := authflow.NormalizeEmail(identity.Email)
	if _, exists := s.byID[identity.ID]; exists {
		return nil, authflow.ErrDuplicateEmail
	}
	if _, exists := s.byEmail[email]; exists {
		return nil, authflow.ErrDuplicateEmail
	}

	stored := clone(identity)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID

	return clone(stored), nil
}

// UpsertByExternalID creates or merges the identity under one lock,
// mirroring the atomic Mongo upsert: set fields merge, methods union,
// creation fields only apply on first insert.
func (s *Store) UpsertByExternalID(_ context.Context, up authflow.UpsertIdentity) (*authflow.Identity, bool, error) {
	if up.ID == "" {
		return nil, false, authflow.ErrInvalidInput.WithMetadata(map[string]any{"identity": "id is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	email := authflow.NormalizeEmail(up.Email)

	existing, ok := s.byID[up.ID]
	if !ok {
		if _, taken := s.byEmail[email]; taken {
			return nil, false, authflow.ErrDuplicateEmail
		}
		created := &authflow.Identity{
			ID:        up.ID,
			Email:     email,
			Name:      up.Name,
			PhotoURL:  up.PhotoURL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, m := range up.Methods {
			created.AddMethod(m)
		}
		s.byID[created.ID] = created
		s.byEmail[email] = created.ID
		return clone(created), true, nil
	}

	if email != "" && email != existing.Email {
		if owner, taken := s.byEmail[email]; taken && owner != existing.ID {
			return nil, false, authflow.ErrDuplicateEmail
		}
		delete(s.byEmail, existing.Email)
		existing.Email = email
		s.byEmail[email] = existing.ID
	}
	if up.Name != "" {
		existing.Name = up.Name
	}
	if up.PhotoURL != "" {
		existing.PhotoURL = up.PhotoURL
	}
	for _, m := range up.Methods {
		existing.AddMethod(m)
	}
	existing.UpdatedAt = now

	return clone(existing), false, nil
}

// List returns all identities, newest first.
func (s *Store) List(_ context.Context) ([]*authflow.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*authflow.Identity, 0, len(s.byID))
	for _, identity := range s.byID {
		out = append(out, clone(identity))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteByExternalID removes an identity and returns the removed record.
func (s *Store) DeleteByExternalID(_ context.Context, id string) (*authflow.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authflow.ErrIdentityNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, identity.Email)
	return clone(identity), nil
}

func clone(identity *authflow.Identity) *authflow.Identity {
	if identity == nil {
		return nil
	}
	copied := *identity
	copied.Methods = append([]authflow.AuthMethod(nil), identity.Methods...)
	return &copied
}
