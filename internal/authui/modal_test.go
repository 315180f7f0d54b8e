package authui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegetrack/collegetrack/internal/account"
)

type fakeAuth struct {
	loginOK     bool
	register    account.RegisterResult
	recoverOK   bool
	loginCalls  int
	regCalls    int
	recCalls    int
	lastReg     account.RegisterInput
	lastRecover account.RecoverInput
}

func (f *fakeAuth) Login(context.Context, string, string) bool {
	f.loginCalls++
	return f.loginOK
}

func (f *fakeAuth) Register(_ context.Context, in account.RegisterInput) account.RegisterResult {
	f.regCalls++
	f.lastReg = in
	return f.register
}

func (f *fakeAuth) Recover(_ context.Context, in account.RecoverInput) bool {
	f.recCalls++
	f.lastRecover = in
	return f.recoverOK
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Write(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd":  true,
		"password1": false,
		"PASSWORD1": false,
		"Password":  false,
		"Pa1":       false,
		"Ünïcöde1a":   false,
		"ÄÖÜäöü12":    false,
		"Ecoleécole١": false,
		"Ünïcöde1aB":  true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, StrongPassword(pw), pw)
	}
}

func TestNewModalDefaults(t *testing.T) {
	m := NewModal(&fakeAuth{}, nil)
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Equal(t, "Welcome Back", m.Title())
	assert.Equal(t, "US", m.Form.Country)
	assert.Equal(t, "US", m.Form.Residence)
	assert.False(t, m.IsOpen())
	assert.Len(t, Countries, 15)
	assert.True(t, ValidCountry("HK"))
	assert.False(t, ValidCountry("ZZ"))
}

func TestWeakPasswordNeverReachesService(t *testing.T) {
	auth := &fakeAuth{}
	m := NewModal(auth, nil)
	m.Open(ModeRegister)
	m.Form = Form{Email: "a@b.co", Password: "weakpass", DisplayName: "A", Country: "US", Residence: "US"}

	m.Submit(context.Background())
	assert.Equal(t, English().WeakPassword, m.Error())
	assert.Zero(t, auth.regCalls)

	m.Switch(ModeRecover)
	m.Form.RecoveryCode = "ABC"
	m.Form.NewPassword = "short"
	m.Submit(context.Background())
	assert.Equal(t, English().WeakPassword, m.Error())
	assert.Zero(t, auth.recCalls)

	m.Switch(ModeRegister)
	m.Form.Password = "ÄÖÜäöü12"
	m.Submit(context.Background())
	assert.Equal(t, English().WeakPassword, m.Error())
	assert.Zero(t, auth.regCalls)
}

func TestLoginSuccessClosesModal(t *testing.T) {
	auth := &fakeAuth{loginOK: true}
	var succeeded bool
	m := NewModal(auth, nil, OnSuccess(func() { succeeded = true }))
	m.Open(ModeLogin)
	m.Form.Email = "a@b.co"
	m.Form.Password = "whatever"

	m.Submit(context.Background())
	assert.True(t, succeeded)
	assert.False(t, m.IsOpen())
	assert.Empty(t, m.Form.Password)
}

func TestLoginFailureShowsError(t *testing.T) {
	m := NewModal(&fakeAuth{}, nil)
	m.Open(ModeLogin)
	m.Form.Email = "a@b.co"
	m.Form.Password = "whatever"

	m.Submit(context.Background())
	assert.Equal(t, "Invalid email or password", m.Error())
	assert.True(t, m.IsOpen())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Submit(ctx)
	assert.Equal(t, "Login failed. Please try again.", m.Error())
}

func TestRegisterShowsRecoveryCodeOnce(t *testing.T) {
	auth := &fakeAuth{register: account.RegisterResult{Success: true, RecoveryCode: "ABCD1234EFGH"}}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clip := &fakeClipboard{}
	m := NewModal(auth, clip, WithClock(func() time.Time { return now }))
	m.Open(ModeRegister)
	m.Form.Email = " ada@example.com "
	m.Form.Password = "Passw0rdX"
	m.Form.DisplayName = "Ada"
	m.Form.Country = "UK"

	m.Submit(context.Background())
	require.Equal(t, ModeRecoverySuccess, m.Mode())
	assert.Equal(t, "Account Created!", m.Title())
	assert.Equal(t, "ABCD1234EFGH", m.RecoveryCode())
	assert.NotEmpty(t, m.Warning())
	assert.Equal(t, "ada@example.com", auth.lastReg.Email)
	assert.Equal(t, "UK", auth.lastReg.Country)
	assert.Equal(t, "US", auth.lastReg.Residence)

	assert.False(t, m.Copied())
	require.True(t, m.CopyRecoveryCode())
	assert.Equal(t, "ABCD1234EFGH", clip.text)
	assert.True(t, m.Copied())
	now = now.Add(1999 * time.Millisecond)
	assert.True(t, m.Copied())
	now = now.Add(time.Millisecond)
	assert.False(t, m.Copied())

	m.Switch(ModeLogin)
	assert.Empty(t, m.RecoveryCode())
	assert.False(t, m.CopyRecoveryCode())
}

func TestRecoverySuccessContinueCloses(t *testing.T) {
	auth := &fakeAuth{register: account.RegisterResult{Success: true, RecoveryCode: "ABCD1234EFGH"}}
	var succeeded bool
	m := NewModal(auth, &fakeClipboard{}, OnSuccess(func() { succeeded = true }))
	m.Open(ModeRegister)
	m.Form = Form{Email: "a@b.co", Password: "Passw0rdX", DisplayName: "A", Country: "US", Residence: "US"}
	m.Submit(context.Background())
	require.Equal(t, ModeRecoverySuccess, m.Mode())

	m.Submit(context.Background())
	assert.True(t, succeeded)
	assert.False(t, m.IsOpen())
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Empty(t, m.RecoveryCode())
}

func TestRegisterFailureSurfacesServiceMessage(t *testing.T) {
	auth := &fakeAuth{register: account.RegisterResult{Error: "user already registered"}}
	m := NewModal(auth, nil)
	m.Open(ModeRegister)
	m.Form = Form{Email: "a@b.co", Password: "Passw0rdX", DisplayName: "A", Country: "US", Residence: "US"}

	m.Submit(context.Background())
	assert.Equal(t, "user already registered", m.Error())
	assert.Equal(t, ModeRegister, m.Mode())

	auth.register = account.RegisterResult{}
	m.Submit(context.Background())
	assert.Equal(t, "Registration failed", m.Error())
}

func TestCopyFailureSetsError(t *testing.T) {
	auth := &fakeAuth{register: account.RegisterResult{Success: true, RecoveryCode: "ABCD1234EFGH"}}
	m := NewModal(auth, &fakeClipboard{err: errors.New("no tty")})
	m.Open(ModeRegister)
	m.Form = Form{Email: "a@b.co", Password: "Passw0rdX", DisplayName: "A", Country: "US", Residence: "US"}
	m.Submit(context.Background())

	assert.False(t, m.CopyRecoveryCode())
	assert.False(t, m.Copied())
	assert.NotEmpty(t, m.Error())
}

func TestRecoverFlow(t *testing.T) {
	auth := &fakeAuth{}
	m := NewModal(auth, nil)
	m.Open(ModeRecover)
	assert.Equal(t, "Recover Password", m.Title())
	m.Form.Email = "a@b.co"
	m.Form.RecoveryCode = " abcd1234efgh "
	m.Form.NewPassword = "N3wPassword"

	m.Submit(context.Background())
	assert.Equal(t, "Invalid email or recovery code", m.Error())
	assert.Equal(t, 1, auth.recCalls)
	assert.Equal(t, "abcd1234efgh", auth.lastRecover.RecoveryCode)

	auth.recoverOK = true
	m.Submit(context.Background())
	assert.Empty(t, m.Error())
	assert.Equal(t, ModeLogin, m.Mode())
	assert.NotEmpty(t, m.Notice())
	assert.Equal(t, "a@b.co", m.Form.Email)
	assert.Empty(t, m.Form.NewPassword)
}

func TestCloseResetsEverything(t *testing.T) {
	m := NewModal(&fakeAuth{}, nil)
	m.Open(ModeRegister)
	m.Form = Form{Email: "a@b.co", Password: "x", DisplayName: "A", Country: "FR", Residence: "DE"}
	m.TogglePassword()
	m.Submit(context.Background())
	require.NotEmpty(t, m.Error())

	m.Close()
	assert.Equal(t, emptyForm(), m.Form)
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Empty(t, m.Error())
	assert.False(t, m.PasswordVisible())
	assert.False(t, m.IsOpen())
}

func TestSwitchIgnoresRecoverySuccess(t *testing.T) {
	m := NewModal(&fakeAuth{}, nil)
	m.Switch(ModeRecoverySuccess)
	assert.Equal(t, ModeLogin, m.Mode())
}

func TestOSC52WritesEscapeSequence(t *testing.T) {
	var buf stringWriter
	require.NoError(t, OSC52{W: &buf}.Write("hi"))
	assert.Equal(t, "\x1b]52;c;aGk=\a", string(buf))
}

type stringWriter []byte

func (w *stringWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
