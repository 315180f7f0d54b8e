package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Store against the users table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the profile row for a new identity.
func (r *PostgresRepository) Create(ctx context.Context, profile Profile) error {
	id, err := uuid.Parse(profile.ID)
	if err != nil {
		return fmt.Errorf("profile id: %w", err)
	}
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, email, display_name, country, residence, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, profile.Email, nullable(profile.DisplayName), nullable(profile.Country), nullable(profile.Residence), createdAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrExists
	}
	return err
}

// Get loads a profile by identity id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Profile, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	var (
		profile                         Profile
		displayName, country, residence *string
		createdAt                       time.Time
	)
	err = r.db.QueryRow(ctx, `SELECT email, display_name, country, residence, created_at FROM users WHERE id = $1`, uid).
		Scan(&profile.Email, &displayName, &country, &residence, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	profile.ID = uid.String()
	profile.DisplayName = deref(displayName)
	profile.Country = deref(country)
	profile.Residence = deref(residence)
	profile.CreatedAt = createdAt.UTC()
	return profile, nil
}

// Update writes only the fields present in update.
func (r *PostgresRepository) Update(ctx context.Context, id string, update Update) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	if update.Empty() {
		return nil
	}

	sets := make([]string, 0, 3)
	args := []any{uid}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("display_name", update.DisplayName)
	add("country", update.Country)
	add("residence", update.Residence)

	cmd, err := r.db.Exec(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
