package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Client posts chat turns to a relay endpoint. It never fails: transport and
// decoding problems become fixed fallback replies.
type Client struct {
	url     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient builds a relay client for url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout + 5*time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, timeout: timeout, logger: logger}
}

// Send returns the relay's reply for req.
func (c *Client) Send(ctx context.Context, req Request) string {
	if err := ctx.Err(); err != nil {
		return ReplyTransportError
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	agent := fiber.Post(c.url)
	agent.JSON(req)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		c.logger.ErrorContext(ctx, "relay request", slog.Any("error", err))
		return ReplyTransportError
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.logger.ErrorContext(ctx, "relay request", slog.Any("error", errors.Join(errs...)))
		return ReplyTransportError
	}
	if code < 200 || code >= 300 {
		c.logger.WarnContext(ctx, "relay returned an error", slog.Int("status", code))
		return ReplyEmpty
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.WarnContext(ctx, "decode relay response", slog.Any("error", err))
		return ReplyEmpty
	}
	if resp.Reply == "" {
		return ReplyEmpty
	}
	return resp.Reply
}
