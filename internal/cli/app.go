// Package cli is the interactive terminal client: sign-in dialog, profile
// screen and the chat views.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/collegetrack/collegetrack/internal/account"
	"github.com/collegetrack/collegetrack/internal/authui"
	"github.com/collegetrack/collegetrack/internal/chat"
	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/infra"
	"github.com/collegetrack/collegetrack/internal/relay"
)

// Deps are the collaborators of an App.
type Deps struct {
	Session   *account.Session
	Chats     chat.Store
	Relay     chat.Replier
	Metadata  *MetadataStore
	Clipboard authui.Clipboard
	In        io.Reader
	Out       io.Writer
	Logger    *slog.Logger
}

type App struct {
	session  *account.Session
	modal    *authui.Modal
	chats    chat.Store
	relay    chat.Replier
	metadata *MetadataStore
	reader   *bufio.Reader
	out      io.Writer
	logger   *slog.Logger

	closers []func()
}

// New builds an App from already constructed collaborators.
func New(d Deps) *App {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clipboard == nil {
		d.Clipboard = authui.OSC52{W: d.Out}
	}

	a := &App{
		session:  d.Session,
		chats:    d.Chats,
		relay:    d.Relay,
		metadata: d.Metadata,
		reader:   bufio.NewReader(d.In),
		out:      d.Out,
		logger:   d.Logger,
	}
	a.modal = authui.NewModal(d.Session, d.Clipboard, authui.OnSuccess(a.welcome))
	return a
}

// NewApp opens the local database and the configured backend.
func NewApp(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger) (*App, error) {
	local, err := infra.OpenSQLite(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(ctx, cfg, local, logger)
	if err != nil {
		local.Close()
		return nil, err
	}

	session := account.NewSession(backend.Credentials, backend.Profiles, backend.Recorder, logger)
	a := New(Deps{
		Session:  session,
		Chats:    backend.Chats,
		Relay:    relay.NewClient(cfg.RelayURL, 0, logger),
		Metadata: NewMetadataStore(local),
		Logger:   logger,
	})
	a.closers = append(a.closers, backend.Close, func() { _ = local.Close() })
	return a, nil
}

// Close releases the backend and the local database.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func (a *App) welcome() {
	if user := a.session.CurrentUser(); user != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", user.Name())
	}
}

// resume restores the persisted session, if any. A token that no longer
// resolves is forgotten.
func (a *App) resume(ctx context.Context) {
	if a.metadata == nil {
		return
	}
	token, err := a.metadata.Get(ctx, keySessionToken)
	if err != nil {
		a.logger.WarnContext(ctx, "read stored session", slog.Any("error", err))
		return
	}
	if len(token) == 0 {
		return
	}
	a.session.Init(ctx, string(token))
	if a.session.IsAuthenticated() {
		a.welcome()
		return
	}
	a.forgetToken(ctx)
}

func (a *App) rememberToken(ctx context.Context) {
	if a.metadata == nil {
		return
	}
	token := a.session.Token()
	if token == "" {
		return
	}
	if err := a.metadata.Set(ctx, keySessionToken, []byte(token)); err != nil {
		a.logger.WarnContext(ctx, "store session", slog.Any("error", err))
	}
}

func (a *App) forgetToken(ctx context.Context) {
	if a.metadata == nil {
		return
	}
	if err := a.metadata.Delete(ctx, keySessionToken); err != nil {
		a.logger.WarnContext(ctx, "forget session", slog.Any("error", err))
	}
}
