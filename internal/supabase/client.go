// Package supabase implements the credential and profile stores against a
// Supabase project: GoTrue for identities and PostgREST for the users table.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/collegetrack/collegetrack/internal/identity"
)

const defaultTimeout = 15 * time.Second

// Config holds the project endpoint and keys.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.Status)
	}
	return e.Message
}

// Client talks to GoTrue and PostgREST. It keeps the access token of the
// signed-in user so profile requests run under that user's row policies.
type Client struct {
	cfg Config

	mu          sync.RWMutex
	accessToken string
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, errors.New("supabase url and anon key are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg}, nil
}

type gotrueUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata identity.Metadata `json:"user_metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

type gotrueSession struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   int64      `json:"expires_at"`
	User        gotrueUser `json:"user"`
}

// signupResponse is either a session (auto-confirm on) or a bare user.
type signupResponse struct {
	gotrueSession
	gotrueUser
}

func (u gotrueUser) toUser() identity.User {
	md := u.UserMetadata
	md.RecoveryCodeHash = ""
	return identity.User{ID: u.ID, Email: u.Email, Metadata: md, CreatedAt: u.CreatedAt}
}

func (s gotrueSession) toSession() identity.Session {
	expires := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		expires = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return identity.Session{Token: s.AccessToken, ExpiresAt: expires, User: s.User.toUser()}
}

// SignUp creates an identity with the given metadata.
func (c *Client) SignUp(ctx context.Context, input identity.SignUpInput) (identity.Session, error) {
	body := map[string]any{
		"email":    input.Email,
		"password": input.Password,
		"data":     input.Metadata,
	}
	var resp signupResponse
	if err := c.call(ctx, fiber.MethodPost, "/auth/v1/signup", c.cfg.AnonKey, body, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "already registered") {
			return identity.Session{}, fmt.Errorf("%w: %s", identity.ErrUserExists, apiErr.Message)
		}
		return identity.Session{}, err
	}

	if resp.AccessToken == "" {
		// Email confirmation is enabled: no session yet, only the user.
		user := resp.gotrueUser
		if user.ID == "" {
			user = resp.gotrueSession.User
		}
		return identity.Session{User: user.toUser()}, nil
	}
	c.setToken(resp.AccessToken)
	return resp.gotrueSession.toSession(), nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, creds identity.Credentials) (identity.Session, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	var resp gotrueSession
	if err := c.call(ctx, fiber.MethodPost, "/auth/v1/token?grant_type=password", c.cfg.AnonKey, body, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return identity.Session{}, identity.ErrInvalidCredentials
		}
		return identity.Session{}, err
	}
	c.setToken(resp.AccessToken)
	return resp.toSession(), nil
}

// Resume fetches the user behind a stored access token.
func (c *Client) Resume(ctx context.Context, token string) (identity.User, error) {
	var user gotrueUser
	if err := c.call(ctx, fiber.MethodGet, "/auth/v1/user", token, nil, &user); err != nil {
		return identity.User{}, err
	}
	c.setToken(token)
	return user.toUser(), nil
}

// SignOut revokes the session on the backend and forgets the token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	defer c.setToken("")
	if token == "" {
		return nil
	}
	return c.call(ctx, fiber.MethodPost, "/auth/v1/logout", token, nil, nil)
}

// DeleteIdentity removes a user through the admin API. It needs the service
// role key.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	if c.cfg.ServiceRoleKey == "" {
		return fmt.Errorf("%w: deleting users needs the service role key", identity.ErrUnsupported)
	}
	return c.callAs(ctx, fiber.MethodDelete, "/auth/v1/admin/users/"+id, c.cfg.ServiceRoleKey, c.cfg.ServiceRoleKey, nil, nil, nil)
}

// Recover is not available against the managed backend: rotating a password
// without a session requires admin lookups by email.
func (c *Client) Recover(context.Context, identity.RecoveryInput) error {
	return fmt.Errorf("%w: recovery codes are not supported by the managed backend", identity.ErrUnsupported)
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.cfg.AnonKey
}

func (c *Client) call(ctx context.Context, method, path, bearer string, body, out any) error {
	return c.callAs(ctx, method, path, c.cfg.AnonKey, bearer, nil, body, out)
}

func (c *Client) callAs(ctx context.Context, method, path, apiKey, bearer string, headers map[string]string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.cfg.URL + path)
	agent.Set("apikey", apiKey)
	agent.Bearer(bearer)
	for k, v := range headers {
		agent.Set(k, v)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("supabase %s %s: %w", method, path, err)
	}

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("supabase %s %s: %w", method, path, errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return &APIError{Status: code, Message: errorMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode supabase response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, candidate := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
