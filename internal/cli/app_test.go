package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegetrack/collegetrack/internal/account"
	"github.com/collegetrack/collegetrack/internal/auth"
	"github.com/collegetrack/collegetrack/internal/chat"
	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/identity"
	"github.com/collegetrack/collegetrack/internal/infra"
	"github.com/collegetrack/collegetrack/internal/logging"
	"github.com/collegetrack/collegetrack/internal/profile"
	"github.com/collegetrack/collegetrack/internal/reconcile"
	"github.com/collegetrack/collegetrack/internal/relay"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testCode     = "ABCD1234EFGH"
	testPassword = "Passw0rdX"
)

type fakeReplier struct {
	mu       sync.Mutex
	requests []relay.Request
}

func (f *fakeReplier) Send(_ context.Context, req relay.Request) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return "echo: " + req.Message
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) Write(text string) error {
	c.text = text
	return nil
}

// harness shares backend state between App instances, like restarts of the
// client against the same servers and local database.
type harness struct {
	credentials identity.Store
	profiles    profile.Store
	chats       chat.Store
	metadata    *MetadataStore
	replier     *fakeReplier
	clipboard   *fakeClipboard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := auth.NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	db, err := infra.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &harness{
		credentials: identity.NewService(identity.NewMemoryRepository(), auth.NewManager(tokens, auth.NewMemoryRegistry())),
		profiles:    profile.NewMemoryRepository(),
		chats:       chat.NewMemoryStore(),
		metadata:    NewMetadataStore(db),
		replier:     &fakeReplier{},
		clipboard:   &fakeClipboard{},
	}
}

func (h *harness) app(input string) (*App, *account.Session, *bytes.Buffer) {
	session := account.NewSession(h.credentials, h.profiles, nil, logging.Discard(),
		account.WithRecoveryCodes(func() (string, error) { return testCode, nil }))
	out := &bytes.Buffer{}
	a := New(Deps{
		Session:   session,
		Chats:     h.chats,
		Relay:     h.replier,
		Metadata:  h.metadata,
		Clipboard: h.clipboard,
		In:        strings.NewReader(input),
		Out:       out,
		Logger:    logging.Discard(),
	})
	return a, session, out
}

func (h *harness) storedToken(t *testing.T) string {
	t.Helper()
	token, err := h.metadata.Get(context.Background(), keySessionToken)
	require.NoError(t, err)
	return string(token)
}

func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no password queued")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}
}

func registerDirect(t *testing.T, session *account.Session) {
	t.Helper()
	res := session.Register(context.Background(), account.RegisterInput{
		Email:       "ada@example.com",
		Password:    testPassword,
		DisplayName: "Ada",
		Country:     "UK",
		Residence:   "US",
	})
	require.True(t, res.Success, res.Error)
}

func TestRegisterShowsCodeAndResumesOnRestart(t *testing.T) {
	h := newHarness(t)
	stubPasswords(t, testPassword)

	input := strings.Join([]string{
		"register",
		"ada@example.com",
		"Ada",
		"uk",
		"",
		"copy",
		"",
		"profile",
		"exit",
	}, "\n") + "\n"

	app, session, out := h.app(input)
	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Your recovery code: "+testCode)
	assert.Contains(t, text, "Copied!")
	assert.Contains(t, text, "Signed in as Ada")
	assert.Contains(t, text, "United Kingdom")
	assert.Equal(t, testCode, h.clipboard.text)
	require.True(t, session.IsAuthenticated())
	assert.Equal(t, session.Token(), h.storedToken(t))

	restarted, resumed, out := h.app("profile\nexit\n")
	require.NoError(t, restarted.Run(context.Background()))
	assert.True(t, resumed.IsAuthenticated())
	assert.Contains(t, out.String(), "Signed in as Ada")
	assert.Contains(t, out.String(), "ada@example.com")
}

func TestWeakPasswordIsReportedAndCanBeCancelled(t *testing.T) {
	h := newHarness(t)
	stubPasswords(t, "weak")

	app, session, out := h.app("register\nada@example.com\nAda\n\n\ncancel\nexit\n")
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Password must be at least 8 characters")
	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, h.storedToken(t))
}

func TestLoginFailureThenRetry(t *testing.T) {
	h := newHarness(t)
	first, firstSession, _ := h.app("exit\n")
	registerDirect(t, firstSession)
	first.Logout(context.Background())

	stubPasswords(t, "Wrong1234", testPassword)
	app, session, out := h.app("login\nada@example.com\n\n\nexit\n")
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Invalid email or password")
	assert.Contains(t, out.String(), "Signed in as Ada")
	assert.True(t, session.IsAuthenticated())
	assert.NotEmpty(t, h.storedToken(t))
}

func TestRecoverThenLoginWithNewPassword(t *testing.T) {
	h := newHarness(t)
	_, firstSession, _ := h.app("")
	registerDirect(t, firstSession)
	firstSession.Logout(context.Background())

	stubPasswords(t, "N3wPassword", "N3wPassword")
	app, session, out := h.app("recover\nada@example.com\n" + strings.ToLower(testCode) + "\n\nexit\n")
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Password updated. You can now sign in.")
	assert.True(t, session.IsAuthenticated())
}

func TestLogoutForgetsStoredSession(t *testing.T) {
	h := newHarness(t)
	stubPasswords(t, testPassword)
	app, session, _ := h.app("register\nada@example.com\nAda\n\n\n\nlogout\nexit\n")
	require.NoError(t, app.Run(context.Background()))

	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, h.storedToken(t))
}

func TestStaleStoredTokenIsForgotten(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.metadata.Set(context.Background(), keySessionToken, []byte("stale")))

	app, session, _ := h.app("exit\n")
	require.NoError(t, app.Run(context.Background()))

	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, h.storedToken(t))
}

func TestSignedOutCommands(t *testing.T) {
	h := newHarness(t)
	app, _, out := h.app("help\nchat\nessay\nprofile\nbogus\n")
	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Available commands: login, register, recover, exit")
	assert.Contains(t, text, "Not signed in.")
	assert.Contains(t, text, "Unknown command: bogus")
}

func TestChatSendsHistoryAndManagesConversations(t *testing.T) {
	h := newHarness(t)
	app, session, out := h.app("chat\nhello\nagain\n/new\n/list\n/open 2\n/delete\n/back\nexit\n")
	registerDirect(t, session)

	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Hello Ada! I'm your AI Assistant.")
	assert.Contains(t, text, "echo: hello")
	assert.Contains(t, text, "New Chat 2")

	require.Len(t, h.replier.requests, 2)
	assert.Equal(t, "again", h.replier.requests[1].Message)
	assert.Len(t, h.replier.requests[1].Conversation, 3)

	user := session.CurrentUser()
	require.NotNil(t, user)
	convs, err := h.chats.List(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "New Chat 2", convs[0].Title)
}

func TestEssayRequiresCategory(t *testing.T) {
	h := newHarness(t)
	app, session, out := h.app("essay\nhello\n2\nmy essay\n/back\nexit\n")
	registerDirect(t, session)

	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "I'm your Essay Assistant")
	assert.Contains(t, text, "Please choose 1, 2 or 3.")
	assert.Contains(t, text, "You selected: Personal statement assistance.")
	require.Len(t, h.replier.requests, 1)
	assert.Equal(t, "my essay", h.replier.requests[0].Message)
	assert.Equal(t, "2", h.replier.requests[0].Category)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	app, session, out := h.app("update\nAdaline\n\nfr\nupdate\n\n\n\nexit\n")
	registerDirect(t, session)

	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Profile updated.")
	assert.Contains(t, out.String(), "Nothing to update.")
	user := session.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Adaline", user.DisplayName)
	assert.Equal(t, "UK", user.Country)
	assert.Equal(t, "FR", user.Residence)

	stored, err := h.profiles.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "FR", stored.Residence)
}

func TestOpenBackendMemory(t *testing.T) {
	ctx := context.Background()
	db, err := infra.OpenSQLite(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer db.Close()

	backend, err := OpenBackend(ctx, config.ClientConfig{
		Backend:       config.BackendMemory,
		SessionSecret: testSecret,
		SessionTTL:    time.Hour,
	}, db, logging.Discard())
	require.NoError(t, err)
	defer backend.Close()

	assert.IsType(t, &identity.Service{}, backend.Credentials)
	assert.IsType(t, &chat.SQLiteStore{}, backend.Chats)

	require.NotNil(t, backend.Recorder)
	require.NoError(t, backend.Recorder.Record(ctx, reconcile.Record{Kind: reconcile.KindOrphanedIdentity, IdentityID: "id-1", Email: "a@b.co", Cause: "boom"}))
	pending, err := reconcile.NewSQLiteRecorder(db).Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "id-1", pending[0].IdentityID)

	_, err = OpenBackend(ctx, config.ClientConfig{Backend: "ftp"}, db, logging.Discard())
	assert.Error(t, err)
}
