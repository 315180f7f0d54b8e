package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder appends records to the reconciliation table so a batch
// job can retry the cleanup.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder builds a recorder over a migrated pool.
func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Record(ctx context.Context, record Record) error {
	record = stamp(record)
	_, err := r.db.Exec(ctx, `INSERT INTO reconciliation (kind, identity_id, email, cause, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`, record.Kind, record.IdentityID, record.Email, record.Cause, record.At)
	if err != nil {
		return fmt.Errorf("insert reconciliation record: %w", err)
	}
	return nil
}

// SQLiteRecorder keeps records in the client's local database. Used when the
// backend has no server-side table to write to.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder wraps an already migrated database.
func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db}
}

func (r *SQLiteRecorder) Record(ctx context.Context, record Record) error {
	record = stamp(record)
	_, err := r.db.ExecContext(ctx, `INSERT INTO reconciliation (kind, identity_id, email, cause, recorded_at)
        VALUES (?, ?, ?, ?, ?)`, record.Kind, record.IdentityID, record.Email, record.Cause, record.At)
	if err != nil {
		return fmt.Errorf("insert reconciliation record: %w", err)
	}
	return nil
}

// Pending lists the locally recorded records, oldest first.
func (r *SQLiteRecorder) Pending(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, identity_id, email, cause, recorded_at FROM reconciliation ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation records: %w", err)
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Kind, &rec.IdentityID, &rec.Email, &rec.Cause, &rec.At); err != nil {
			return nil, fmt.Errorf("scan reconciliation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Tee sends each record to every recorder and returns the joined failures.
func Tee(recorders ...Recorder) Recorder {
	return RecorderFunc(func(ctx context.Context, record Record) error {
		var errs []error
		for _, rec := range recorders {
			if err := rec.Record(ctx, record); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func stamp(record Record) Record {
	if record.At.IsZero() {
		record.At = time.Now().UTC()
	}
	return record
}
