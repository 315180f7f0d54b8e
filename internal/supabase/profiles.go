package supabase

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/collegetrack/collegetrack/internal/profile"
)

// ProfileStore reads and writes the users table through PostgREST.
type ProfileStore struct {
	client *Client
}

// Profiles returns the profile store sharing this client's session.
func (c *Client) Profiles() *ProfileStore {
	return &ProfileStore{client: c}
}

type userRow struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
	Country     *string `json:"country"`
	Residence   *string `json:"residence"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func (s *ProfileStore) Create(ctx context.Context, p profile.Profile) error {
	row := userRow{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: optional(p.DisplayName),
		Country:     optional(p.Country),
		Residence:   optional(p.Residence),
	}
	if !p.CreatedAt.IsZero() {
		row.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	return s.client.callAs(ctx, fiber.MethodPost, "/rest/v1/users", s.client.cfg.AnonKey, s.client.bearer(), headers, row, nil)
}

func (s *ProfileStore) Get(ctx context.Context, id string) (profile.Profile, error) {
	var rows []userRow
	path := "/rest/v1/users?select=*&id=eq." + url.QueryEscape(id)
	if err := s.client.callAs(ctx, fiber.MethodGet, path, s.client.cfg.AnonKey, s.client.bearer(), nil, nil, &rows); err != nil {
		return profile.Profile{}, err
	}
	if len(rows) == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	row := rows[0]
	p := profile.Profile{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: value(row.DisplayName),
		Country:     value(row.Country),
		Residence:   value(row.Residence),
	}
	if row.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			p.CreatedAt = ts.UTC()
		}
	}
	return p, nil
}

func (s *ProfileStore) Update(ctx context.Context, id string, update profile.Update) error {
	if update.Empty() {
		return nil
	}
	body := map[string]string{}
	if update.DisplayName != nil {
		body["display_name"] = *update.DisplayName
	}
	if update.Country != nil {
		body["country"] = *update.Country
	}
	if update.Residence != nil {
		body["residence"] = *update.Residence
	}
	var updated []userRow
	headers := map[string]string{"Prefer": "return=representation"}
	path := "/rest/v1/users?id=eq." + url.QueryEscape(id)
	if err := s.client.callAs(ctx, fiber.MethodPatch, path, s.client.cfg.AnonKey, s.client.bearer(), headers, body, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
