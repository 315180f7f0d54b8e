package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	identities map[string]Identity
	byEmail    map[string]string
}

// NewMemoryRepository builds an in-memory identity store for testing and the
// memory backend.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		identities: make(map[string]Identity),
		byEmail:    make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, identity Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[identity.Email]; exists {
		return ErrUserExists
	}
	r.identities[identity.ID] = identity
	r.byEmail[identity.Email] = identity.ID
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return r.identities[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}

func (r *memoryRepository) RotatePassword(_ context.Context, id, recoveryHash string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return ErrNotFound
	}
	if identity.Metadata.RecoveryCodeHash == "" || identity.Metadata.RecoveryCodeHash != recoveryHash {
		return ErrInvalidRecoveryCode
	}
	identity.PasswordHash = passwordHash
	identity.Metadata.RecoveryCodeHash = ""
	r.identities[id] = identity
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.identities, id)
	delete(r.byEmail, identity.Email)
	return nil
}
