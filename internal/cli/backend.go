package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/collegetrack/collegetrack/internal/auth"
	"github.com/collegetrack/collegetrack/internal/chat"
	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/identity"
	"github.com/collegetrack/collegetrack/internal/infra"
	"github.com/collegetrack/collegetrack/internal/profile"
	"github.com/collegetrack/collegetrack/internal/reconcile"
	"github.com/collegetrack/collegetrack/internal/supabase"
)

// Backend bundles the stores the client talks to for one BACKEND setting.
type Backend struct {
	Credentials identity.Store
	Profiles    profile.Store
	Chats       chat.Store
	Recorder    reconcile.Recorder

	closers []func()
}

// Close releases connections opened by OpenBackend.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// OpenBackend builds the stores selected by cfg.Backend. local is the
// client's SQLite database. It keeps conversations for the memory backend and
// reconciliation records for every backend without a server-side table.
func OpenBackend(ctx context.Context, cfg config.ClientConfig, local *sql.DB, logger *slog.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		client, err := supabase.New(supabase.Config{
			URL:            cfg.SupabaseURL,
			AnonKey:        cfg.SupabaseAnonKey,
			ServiceRoleKey: cfg.SupabaseServiceKey,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Credentials: client,
			Profiles:    client.Profiles(),
			Chats:       client.Chats(),
			Recorder:    localRecorder(local, logger),
		}, nil

	case config.BackendPostgres:
		return openPostgres(ctx, cfg, logger)

	case config.BackendMemory:
		manager, err := sessionManager(cfg, auth.NewMemoryRegistry())
		if err != nil {
			return nil, err
		}
		return &Backend{
			Credentials: identity.NewService(identity.NewMemoryRepository(), manager, identity.WithLogger(logger)),
			Profiles:    profile.NewMemoryRepository(),
			Chats:       chat.NewSQLiteStore(local),
			Recorder:    localRecorder(local, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func openPostgres(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, pool.Close)

	if err := infra.MigratePostgres(ctx, pool); err != nil {
		b.Close()
		return nil, err
	}

	var registry auth.Registry = auth.NewMemoryRegistry()
	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = cache.Close() })
		registry = auth.NewRedisRegistry(cache)
	} else {
		logger.Warn("REDIS_URL not set, sessions will not survive a restart")
	}

	manager, err := sessionManager(cfg, registry)
	if err != nil {
		b.Close()
		return nil, err
	}

	b.Credentials = identity.NewService(identity.NewPostgresRepository(pool), manager, identity.WithLogger(logger))
	b.Profiles = profile.NewPostgresRepository(pool)
	b.Chats = chat.NewPostgresStore(pool)
	b.Recorder = reconcile.Tee(reconcile.NewLoggerRecorder(logger), reconcile.NewPostgresRecorder(pool))
	return b, nil
}

func localRecorder(local *sql.DB, logger *slog.Logger) reconcile.Recorder {
	return reconcile.Tee(reconcile.NewLoggerRecorder(logger), reconcile.NewSQLiteRecorder(local))
}

func sessionManager(cfg config.ClientConfig, registry auth.Registry) (*auth.Manager, error) {
	tokens, err := auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(tokens, registry), nil
}
