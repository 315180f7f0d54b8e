package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegetrack/collegetrack/internal/infra"
	"github.com/collegetrack/collegetrack/internal/reconcile"
)

func TestSQLiteRecorderPersistsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")
	db, err := infra.OpenSQLite(ctx, path)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := reconcile.NewSQLiteRecorder(db)
	require.NoError(t, rec.Record(ctx, reconcile.Record{Kind: reconcile.KindOrphanedIdentity, IdentityID: "id-1", Email: "a@b.co", Cause: "insert rejected", At: at}))
	require.NoError(t, rec.Record(ctx, reconcile.Record{Kind: reconcile.KindOrphanedIdentity, IdentityID: "id-2", Email: "c@d.co", Cause: "timeout"}))
	require.NoError(t, db.Close())

	db, err = infra.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	pending, err := reconcile.NewSQLiteRecorder(db).Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "id-1", pending[0].IdentityID)
	assert.Equal(t, "insert rejected", pending[0].Cause)
	assert.True(t, at.Equal(pending[0].At))
	assert.Equal(t, "id-2", pending[1].IdentityID)
	assert.False(t, pending[1].At.IsZero())
}

func TestTeeReachesEveryRecorder(t *testing.T) {
	var seen []string
	ok := reconcile.RecorderFunc(func(_ context.Context, r reconcile.Record) error {
		seen = append(seen, r.IdentityID)
		return nil
	})
	broken := reconcile.RecorderFunc(func(context.Context, reconcile.Record) error {
		return errors.New("disk full")
	})

	err := reconcile.Tee(broken, ok).Record(context.Background(), reconcile.Record{IdentityID: "id-1"})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"id-1"}, seen)
}

func TestPostgresRecorder(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, infra.MigratePostgres(ctx, pool))

	id := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM reconciliation WHERE identity_id = $1`, id)
	})
	require.NoError(t, reconcile.NewPostgresRecorder(pool).Record(ctx, reconcile.Record{Kind: reconcile.KindOrphanedIdentity, IdentityID: id, Email: id + "@example.com", Cause: "boom"}))

	var kind, cause string
	require.NoError(t, pool.QueryRow(ctx, `SELECT kind, cause FROM reconciliation WHERE identity_id = $1 AND resolved_at IS NULL`, id).Scan(&kind, &cause))
	assert.Equal(t, reconcile.KindOrphanedIdentity, kind)
	assert.Equal(t, "boom", cause)
}
