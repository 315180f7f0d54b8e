package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserExists          = errors.New("user already registered")
	ErrNotFound            = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrInvalidRecoveryCode = errors.New("invalid email or recovery code")
	ErrInvalidInput        = errors.New("invalid input")
	// ErrUnsupported is returned by backends that cannot perform an operation
	// with the credentials they were configured with.
	ErrUnsupported = errors.New("operation not supported by backend")
)

// Metadata is the auxiliary data attached to an identity at sign-up.
type Metadata struct {
	DisplayName      string `json:"display_name,omitempty"`
	Country          string `json:"country,omitempty"`
	Residence        string `json:"residence,omitempty"`
	RecoveryCodeHash string `json:"recovery_code_hash,omitempty"`
}

// Identity is a stored credential record.
type Identity struct {
	ID           string
	Email        string
	PasswordHash []byte
	Metadata     Metadata
	CreatedAt    time.Time
}

// User is the public view of an identity handed to callers.
type User struct {
	ID        string
	Email     string
	Metadata  Metadata
	CreatedAt time.Time
}

// Session is an authenticated session issued by a Store.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Credentials carries an email/password pair.
type Credentials struct {
	Email    string
	Password string
}

// SignUpInput carries everything needed to create an identity.
type SignUpInput struct {
	Email    string
	Password string
	Metadata Metadata
}

// RecoveryInput carries a recovery-code password reset.
type RecoveryInput struct {
	Email        string
	RecoveryCode string
	NewPassword  string
}

// Store is the Credential Store contract the account session depends on.
// Implementations: Service (self-hosted) and supabase.Client (managed backend).
type Store interface {
	SignUp(ctx context.Context, input SignUpInput) (Session, error)
	SignIn(ctx context.Context, creds Credentials) (Session, error)
	Resume(ctx context.Context, token string) (User, error)
	SignOut(ctx context.Context, token string) error
	DeleteIdentity(ctx context.Context, id string) error
	Recover(ctx context.Context, input RecoveryInput) error
}

func (i Identity) public() User {
	md := i.Metadata
	md.RecoveryCodeHash = ""
	return User{ID: i.ID, Email: i.Email, Metadata: md, CreatedAt: i.CreatedAt}
}
