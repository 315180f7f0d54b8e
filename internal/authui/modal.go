// Package authui is the terminal-agnostic state machine behind the sign-in
// dialog: login, registration, password recovery and the one-time display of
// a new account's recovery code.
package authui

import (
	"context"
	"strings"
	"time"

	"github.com/collegetrack/collegetrack/internal/account"
)

// Mode is the screen the modal is showing.
type Mode string

const (
	ModeLogin           Mode = "login"
	ModeRegister        Mode = "register"
	ModeRecover         Mode = "recover"
	ModeRecoverySuccess Mode = "recovery-success"
)

// CopiedFor is how long Copied stays true after copying the recovery code.
const CopiedFor = 2 * time.Second

// Authenticator is the part of account.Session the modal drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) bool
	Register(ctx context.Context, input account.RegisterInput) account.RegisterResult
	Recover(ctx context.Context, input account.RecoverInput) bool
}

// Form holds the editable fields. Fields not used by the current mode are
// ignored on submit.
type Form struct {
	Email        string
	Password     string
	DisplayName  string
	Country      string
	Residence    string
	RecoveryCode string
	NewPassword  string
}

func emptyForm() Form {
	return Form{Country: DefaultCountry, Residence: DefaultCountry}
}

// Modal is the sign-in dialog state. It is not safe for concurrent use.
type Modal struct {
	Form Form

	auth      Authenticator
	clipboard Clipboard
	messages  Messages
	now       func() time.Time
	onSuccess func()

	open         bool
	mode         Mode
	err          string
	notice       string
	loading      bool
	showPassword bool
	recoveryCode string
	copiedAt     time.Time
}

// ModalOption customizes a Modal.
type ModalOption func(*Modal)

// WithMessages replaces the English message catalogue.
func WithMessages(m Messages) ModalOption {
	return func(modal *Modal) { modal.messages = m }
}

// WithClock overrides the time source used for the copy acknowledgement.
func WithClock(now func() time.Time) ModalOption {
	return func(modal *Modal) { modal.now = now }
}

// OnSuccess registers a callback run when the modal closes after a
// successful login or registration.
func OnSuccess(fn func()) ModalOption {
	return func(modal *Modal) { modal.onSuccess = fn }
}

// NewModal builds a closed modal in login mode.
func NewModal(auth Authenticator, clipboard Clipboard, opts ...ModalOption) *Modal {
	m := &Modal{
		Form:      emptyForm(),
		auth:      auth,
		clipboard: clipboard,
		messages:  English(),
		now:       time.Now,
		mode:      ModeLogin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open shows the modal in the given mode.
func (m *Modal) Open(mode Mode) {
	m.open = true
	m.Switch(mode)
}

// IsOpen reports whether the modal is visible.
func (m *Modal) IsOpen() bool { return m.open }

// Mode is the current screen.
func (m *Modal) Mode() Mode { return m.mode }

// Error is the inline error of the last submit, empty when none.
func (m *Modal) Error() string { return m.err }

// Notice is an informational line, e.g. after a successful recovery.
func (m *Modal) Notice() string { return m.notice }

// Loading is true while a submit is in flight.
func (m *Modal) Loading() bool { return m.loading }

// PasswordVisible reports whether password fields are shown in clear text.
func (m *Modal) PasswordVisible() bool { return m.showPassword }

// TogglePassword flips password visibility.
func (m *Modal) TogglePassword() { m.showPassword = !m.showPassword }

// Title is the heading for the current mode.
func (m *Modal) Title() string {
	switch m.mode {
	case ModeRegister:
		return m.messages.TitleRegister
	case ModeRecover:
		return m.messages.TitleRecover
	case ModeRecoverySuccess:
		return m.messages.TitleRecoverySuccess
	default:
		return m.messages.TitleLogin
	}
}

// Warning is shown next to the recovery code.
func (m *Modal) Warning() string {
	if m.mode != ModeRecoverySuccess {
		return ""
	}
	return m.messages.RecoveryCodeWarning
}

// RecoveryCode is the freshly issued code, only while in recovery-success.
func (m *Modal) RecoveryCode() string {
	if m.mode != ModeRecoverySuccess {
		return ""
	}
	return m.recoveryCode
}

// Switch moves between the login, register and recover screens. Leaving
// recovery-success discards the code.
func (m *Modal) Switch(mode Mode) {
	switch mode {
	case ModeLogin, ModeRegister, ModeRecover:
	default:
		return
	}
	m.mode = mode
	m.err = ""
	m.notice = ""
	m.recoveryCode = ""
	m.copiedAt = time.Time{}
}

// Close hides the modal and resets every field.
func (m *Modal) Close() {
	m.Form = emptyForm()
	m.open = false
	m.mode = ModeLogin
	m.err = ""
	m.notice = ""
	m.loading = false
	m.showPassword = false
	m.recoveryCode = ""
	m.copiedAt = time.Time{}
}

// CopyRecoveryCode writes the code to the clipboard.
func (m *Modal) CopyRecoveryCode() bool {
	code := m.RecoveryCode()
	if code == "" || m.clipboard == nil {
		return false
	}
	if err := m.clipboard.Write(code); err != nil {
		m.err = m.messages.CopyFailed
		return false
	}
	m.copiedAt = m.now()
	return true
}

// Copied is true for CopiedFor after a successful copy.
func (m *Modal) Copied() bool {
	if m.copiedAt.IsZero() || m.mode != ModeRecoverySuccess {
		return false
	}
	return m.now().Sub(m.copiedAt) < CopiedFor
}

// Submit runs the action of the current mode.
func (m *Modal) Submit(ctx context.Context) {
	if m.loading {
		return
	}
	m.err = ""
	m.notice = ""

	switch m.mode {
	case ModeLogin:
		m.submitLogin(ctx)
	case ModeRegister:
		m.submitRegister(ctx)
	case ModeRecover:
		m.submitRecover(ctx)
	case ModeRecoverySuccess:
		m.finish()
	}
}

func (m *Modal) submitLogin(ctx context.Context) {
	email := strings.TrimSpace(m.Form.Email)
	if email == "" || m.Form.Password == "" {
		m.err = m.messages.MissingFields
		return
	}

	m.loading = true
	ok := m.auth.Login(ctx, email, m.Form.Password)
	m.loading = false

	if !ok {
		m.err = retryOr(ctx, m.messages.LoginFailed, m.messages.InvalidCredentials)
		return
	}
	m.finish()
}

func (m *Modal) submitRegister(ctx context.Context) {
	email := strings.TrimSpace(m.Form.Email)
	if email == "" || m.Form.Password == "" || strings.TrimSpace(m.Form.DisplayName) == "" {
		m.err = m.messages.MissingFields
		return
	}
	if !StrongPassword(m.Form.Password) {
		m.err = m.messages.WeakPassword
		return
	}

	m.loading = true
	res := m.auth.Register(ctx, account.RegisterInput{
		Email:       email,
		Password:    m.Form.Password,
		DisplayName: strings.TrimSpace(m.Form.DisplayName),
		Country:     m.Form.Country,
		Residence:   m.Form.Residence,
	})
	m.loading = false

	if !res.Success {
		switch {
		case ctx.Err() != nil:
			m.err = m.messages.RegistrationRetry
		case res.Error != "":
			m.err = res.Error
		default:
			m.err = m.messages.RegistrationFailed
		}
		return
	}

	m.Form.Password = ""
	m.mode = ModeRecoverySuccess
	m.recoveryCode = res.RecoveryCode
	m.copiedAt = time.Time{}
}

func (m *Modal) submitRecover(ctx context.Context) {
	email := strings.TrimSpace(m.Form.Email)
	code := strings.TrimSpace(m.Form.RecoveryCode)
	if email == "" || code == "" || m.Form.NewPassword == "" {
		m.err = m.messages.MissingFields
		return
	}
	if !StrongPassword(m.Form.NewPassword) {
		m.err = m.messages.WeakPassword
		return
	}

	m.loading = true
	ok := m.auth.Recover(ctx, account.RecoverInput{Email: email, RecoveryCode: code, NewPassword: m.Form.NewPassword})
	m.loading = false

	if !ok {
		m.err = retryOr(ctx, m.messages.RecoveryFailed, m.messages.InvalidRecovery)
		return
	}

	m.Form.RecoveryCode = ""
	m.Form.NewPassword = ""
	m.Form.Password = ""
	m.Switch(ModeLogin)
	m.notice = m.messages.RecoveryCompleted
}

func (m *Modal) finish() {
	m.Close()
	if m.onSuccess != nil {
		m.onSuccess()
	}
}

// retryOr picks the retry message when the call was cut short by the context.
func retryOr(ctx context.Context, retry, otherwise string) string {
	if ctx.Err() != nil {
		return retry
	}
	return otherwise
}
