package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

// Profile is the user-facing record kept alongside each identity.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Country     string    `json:"country,omitempty"`
	Residence   string    `json:"residence,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name is the display name, or the local part of the email when none is set.
func (p Profile) Name() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

// Update carries optional profile changes. Nil fields are left untouched.
type Update struct {
	DisplayName *string
	Country     *string
	Residence   *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.DisplayName == nil && u.Country == nil && u.Residence == nil
}

// Apply returns p with the update merged in.
func (u Update) Apply(p Profile) Profile {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.Residence != nil {
		p.Residence = *u.Residence
	}
	return p
}

// Store persists profiles.
type Store interface {
	Create(ctx context.Context, profile Profile) error
	Get(ctx context.Context, id string) (Profile, error)
	Update(ctx context.Context, id string, update Update) error
}
