package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sessions issues and resolves session tokens for user identifiers.
type Sessions interface {
	Issue(ctx context.Context, userID string) (string, time.Time, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) error
}

// Service is the self-hosted Credential Store. It keeps identities in a
// Repository and delegates token handling to Sessions.
type Service struct {
	repo     Repository
	sessions Sessions
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for failures that do not fail the call.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new identity service.
func NewService(repo Repository, sessions Sessions, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, sessions: sessions, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HashRecoveryCode hashes a recovery code for storage in identity metadata.
func HashRecoveryCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizeCode(code)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SignUp creates an identity and opens a session for it.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Session{}, err
	}
	if input.Password == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	identity := Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     input.Metadata,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		return Session{}, err
	}

	return s.open(ctx, identity)
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (Session, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(creds.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.open(ctx, identity)
}

// Resume resolves a previously issued token back to its user.
func (s *Service) Resume(ctx context.Context, token string) (User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return User{}, err
	}
	identity, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return identity.public(), nil
}

// SignOut revokes a session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// DeleteIdentity removes an identity and every session it holds. Once the
// identity is gone the call succeeds even if revoking its sessions fails.
func (s *Service) DeleteIdentity(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeAll(ctx, id, "delete identity")
	return nil
}

// Recover resets a password using the single-use recovery code issued at
// registration. Existing sessions are revoked on success.
func (s *Service) Recover(ctx context.Context, input RecoveryInput) error {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return ErrInvalidRecoveryCode
	}
	if input.NewPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidRecoveryCode
		}
		return err
	}
	stored := identity.Metadata.RecoveryCodeHash
	if stored == "" {
		return ErrInvalidRecoveryCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(normalizeCode(input.RecoveryCode))); err != nil {
		return ErrInvalidRecoveryCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.RotatePassword(ctx, identity.ID, stored, hash); err != nil {
		return err
	}
	// Rotation is committed and the code spent; revocation failures are only logged.
	s.revokeAll(ctx, identity.ID, "recover")
	return nil
}

func (s *Service) revokeAll(ctx context.Context, userID, op string) {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "revoke sessions",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

func (s *Service) open(ctx context.Context, identity Identity) (Session, error) {
	token, expiresAt, err := s.sessions.Issue(ctx, identity.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: identity.public()}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	return email, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
