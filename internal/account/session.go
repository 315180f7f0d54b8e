package account

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/collegetrack/collegetrack/internal/identity"
	"github.com/collegetrack/collegetrack/internal/profile"
	"github.com/collegetrack/collegetrack/internal/reconcile"
)

const (
	recoveryAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	recoveryCodeLength = 12

	msgRegistrationFailed = "Registration failed"
	msgProfileFailed      = "Failed to create user profile"
)

// RegisterInput is the data collected by the registration form.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Country     string
	Residence   string
}

// RegisterResult reports a registration attempt. RecoveryCode is only set on
// success and is not retrievable again.
type RegisterResult struct {
	Success      bool
	RecoveryCode string
	Error        string
}

// RecoverInput is the data collected by the recovery form.
type RecoverInput struct {
	Email        string
	RecoveryCode string
	NewPassword  string
}

// Session is the client-side authentication state: one per running app.
// Its operations report outcomes as values and log failures instead of
// returning errors.
type Session struct {
	store    identity.Store
	profiles profile.Store
	recorder reconcile.Recorder
	logger   *slog.Logger
	codes    func() (string, error)
	now      func() time.Time

	mu      sync.RWMutex
	token   string
	current *profile.Profile
}

// Option customizes a Session.
type Option func(*Session)

// WithRecoveryCodes overrides the recovery code generator.
func WithRecoveryCodes(gen func() (string, error)) Option {
	return func(s *Session) { s.codes = gen }
}

// NewSession builds a signed-out session.
func NewSession(store identity.Store, profiles profile.Store, recorder reconcile.Recorder, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = reconcile.NewLoggerRecorder(logger)
	}
	s := &Session{
		store:    store,
		profiles: profiles,
		recorder: recorder,
		logger:   logger,
		codes:    GenerateRecoveryCode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateRecoveryCode returns a random 12-character code over [A-Z0-9].
func GenerateRecoveryCode() (string, error) {
	return gonanoid.Generate(recoveryAlphabet, recoveryCodeLength)
}

// Init resumes a previously persisted session token. Any failure leaves the
// session signed out.
func (s *Session) Init(ctx context.Context, token string) {
	if token == "" {
		return
	}
	user, err := s.store.Resume(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "resume session", slog.Any("error", err))
		s.clear()
		return
	}
	p, err := s.profiles.Get(ctx, user.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "load profile on resume", slog.String("user_id", user.ID), slog.Any("error", err))
		s.clear()
		return
	}
	s.set(token, p)
}

// Login signs in and caches the user's profile.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	session, err := s.store.SignIn(ctx, identity.Credentials{Email: email, Password: password})
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", slog.Any("error", err))
		return false
	}
	p, err := s.profiles.Get(ctx, session.User.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load profile after login", slog.String("user_id", session.User.ID), slog.Any("error", err))
		s.signOut(ctx, session.Token)
		return false
	}
	s.replace(ctx, session.Token, p)
	return true
}

// Register creates the identity and its profile. If the profile cannot be
// written the identity is deleted again, and recorded for reconciliation
// when that delete fails too.
func (s *Session) Register(ctx context.Context, input RegisterInput) RegisterResult {
	code, err := s.codes()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate recovery code", slog.Any("error", err))
		return RegisterResult{Error: msgRegistrationFailed}
	}
	hash, err := identity.HashRecoveryCode(code)
	if err != nil {
		s.logger.ErrorContext(ctx, "hash recovery code", slog.Any("error", err))
		return RegisterResult{Error: msgRegistrationFailed}
	}

	session, err := s.store.SignUp(ctx, identity.SignUpInput{
		Email:    input.Email,
		Password: input.Password,
		Metadata: identity.Metadata{
			DisplayName:      input.DisplayName,
			Country:          input.Country,
			Residence:        input.Residence,
			RecoveryCodeHash: hash,
		},
	})
	if err != nil {
		s.logger.InfoContext(ctx, "sign up failed", slog.Any("error", err))
		return RegisterResult{Error: err.Error()}
	}
	if session.User.ID == "" {
		return RegisterResult{Error: msgRegistrationFailed}
	}

	p := profile.Profile{
		ID:          session.User.ID,
		Email:       session.User.Email,
		DisplayName: input.DisplayName,
		Country:     input.Country,
		Residence:   input.Residence,
		CreatedAt:   s.now().UTC(),
	}
	if p.Email == "" {
		p.Email = input.Email
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "create profile", slog.String("user_id", p.ID), slog.Any("error", err))
		s.rollback(ctx, session, err)
		return RegisterResult{Error: msgProfileFailed}
	}

	s.replace(ctx, session.Token, p)
	return RegisterResult{Success: true, RecoveryCode: code}
}

func (s *Session) rollback(ctx context.Context, session identity.Session, cause error) {
	if err := s.store.DeleteIdentity(ctx, session.User.ID); err != nil {
		s.logger.ErrorContext(ctx, "rollback identity", slog.String("user_id", session.User.ID), slog.Any("error", err))
		record := reconcile.Record{
			Kind:       reconcile.KindOrphanedIdentity,
			IdentityID: session.User.ID,
			Email:      session.User.Email,
			Cause:      errors.Join(cause, err).Error(),
			At:         s.now().UTC(),
		}
		if recErr := s.recorder.Record(ctx, record); recErr != nil {
			s.logger.ErrorContext(ctx, "record orphaned identity", slog.String("user_id", session.User.ID), slog.Any("error", recErr))
		}
	}
	s.signOut(ctx, session.Token)
}

// Recover resets the password with a recovery code.
func (s *Session) Recover(ctx context.Context, input RecoverInput) bool {
	err := s.store.Recover(ctx, identity.RecoveryInput{
		Email:        input.Email,
		RecoveryCode: input.RecoveryCode,
		NewPassword:  input.NewPassword,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "recovery failed", slog.Any("error", err))
		return false
	}
	return true
}

// UpdateProfile writes the provided fields and merges them into the cached
// profile on success.
func (s *Session) UpdateProfile(ctx context.Context, update profile.Update) bool {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil {
		return false
	}
	if err := s.profiles.Update(ctx, current.ID, update); err != nil {
		s.logger.ErrorContext(ctx, "update profile", slog.String("user_id", current.ID), slog.Any("error", err))
		return false
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == current.ID {
		merged := update.Apply(*s.current)
		s.current = &merged
	}
	s.mu.Unlock()
	return true
}

// Logout signs out of the store and clears the cache. Safe to call when
// already signed out.
func (s *Session) Logout(ctx context.Context) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	s.signOut(ctx, token)
	s.clear()
}

// CurrentUser returns a copy of the cached profile, or nil when signed out.
func (s *Session) CurrentUser() *profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// IsAuthenticated reports whether a profile is cached.
func (s *Session) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// Token is the held session token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) signOut(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.store.SignOut(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "sign out", slog.Any("error", err))
	}
}

func (s *Session) set(token string, p profile.Profile) {
	s.mu.Lock()
	s.token = token
	s.current = &p
	s.mu.Unlock()
}

// replace caches a new sign-in and signs out the token it displaces.
func (s *Session) replace(ctx context.Context, token string, p profile.Profile) {
	s.mu.Lock()
	prev := s.token
	s.token = token
	s.current = &p
	s.mu.Unlock()
	if prev != token {
		s.signOut(ctx, prev)
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.current = nil
	s.mu.Unlock()
}
