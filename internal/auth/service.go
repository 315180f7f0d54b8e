package auth

import (
	"context"
	"errors"
	"time"
)

// Manager issues revocable session tokens. It satisfies identity.Sessions.
type Manager struct {
	tokens   *Tokens
	registry Registry
}

// NewManager wires token signing to a session registry.
func NewManager(tokens *Tokens, registry Registry) *Manager {
	return &Manager{tokens: tokens, registry: registry}
}

// Issue signs a token for userID and registers its session.
func (m *Manager) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	token, sessionID, expiresAt, err := m.tokens.Sign(userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := m.registry.Save(ctx, sessionID, userID, m.tokens.ttl); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve verifies the token and checks the session is still registered.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	owner, err := m.registry.Lookup(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if owner != claims.Subject {
		return "", ErrInvalidToken
	}
	return owner, nil
}

// Revoke removes the session behind token. Unknown or expired sessions are
// not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.tokens.ParseUnverifiedExpiry(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}
	return m.registry.Delete(ctx, claims.ID)
}

// RevokeAll removes every session belonging to userID.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	return m.registry.DeleteUser(ctx, userID)
}
