package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists identities.
type Repository interface {
	Create(ctx context.Context, identity Identity) error
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	// RotatePassword replaces the password hash and clears the recovery code
	// hash, but only while the stored recovery hash still equals recoveryHash.
	RotatePassword(ctx context.Context, id, recoveryHash string, passwordHash []byte) error
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new identity.
func (r *PostgresRepository) Create(ctx context.Context, identity Identity) error {
	id, err := uuid.Parse(identity.ID)
	if err != nil {
		return err
	}
	md := identity.Metadata
	md.RecoveryCodeHash = ""
	raw, err := json.Marshal(md)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO identities (id, email, password_hash, metadata, recovery_code_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, identity.Email, identity.PasswordHash, raw, identity.Metadata.RecoveryCodeHash, identity.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrUserExists
	}
	return err
}

// FindByEmail fetches an identity by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Identity, error) {
	return r.scan(r.db.QueryRow(ctx, `SELECT id, email, password_hash, metadata, recovery_code_hash, created_at
        FROM identities WHERE email = $1`, email))
}

// FindByID fetches an identity by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Identity{}, ErrNotFound
	}
	return r.scan(r.db.QueryRow(ctx, `SELECT id, email, password_hash, metadata, recovery_code_hash, created_at
        FROM identities WHERE id = $1`, uid))
}

// RotatePassword swaps the password hash and consumes the recovery code.
func (r *PostgresRepository) RotatePassword(ctx context.Context, id, recoveryHash string, passwordHash []byte) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE identities SET password_hash = $1, recovery_code_hash = ''
        WHERE id = $2 AND recovery_code_hash = $3 AND recovery_code_hash <> ''`, passwordHash, uid, recoveryHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvalidRecoveryCode
	}
	return nil
}

// Delete removes an identity.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM identities WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scan(row pgx.Row) (Identity, error) {
	var (
		id        uuid.UUID
		raw       []byte
		createdAt time.Time
		identity  Identity
	)
	if err := row.Scan(&id, &identity.Email, &identity.PasswordHash, &raw, &identity.Metadata.RecoveryCodeHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, err
	}
	recoveryHash := identity.Metadata.RecoveryCodeHash
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &identity.Metadata); err != nil {
			return Identity{}, err
		}
	}
	identity.Metadata.RecoveryCodeHash = recoveryHash
	identity.ID = id.String()
	identity.CreatedAt = createdAt.UTC()
	return identity, nil
}
