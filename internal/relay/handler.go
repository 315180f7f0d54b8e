package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/collegetrack/collegetrack/internal/middleware"
)

// Handler exposes the relay over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a relay HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Chat handles every method on the relay path so non-POST requests get the
// JSON 405 body rather than fiber's empty one.
func (h *Handler) Chat(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(http.StatusMethodNotAllowed).JSON(Response{Reply: ReplyMethodNotAllowed})
	}

	var req Request
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(Response{Reply: ReplyInvalidBody})
		}
	}

	ctx := c.UserContext()
	h.logger.InfoContext(ctx, "relay request",
		slog.String("request_id", middleware.RequestIDFrom(ctx)),
		slog.Int("history", len(req.Conversation)),
		slog.String("category", req.Category),
	)

	reply, err := h.service.Reply(ctx, req)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			return c.Status(http.StatusBadRequest).JSON(Response{Reply: ReplyNoMessage})
		}
		h.logger.ErrorContext(ctx, "relay failed",
			slog.String("request_id", middleware.RequestIDFrom(ctx)),
			slog.Any("error", err),
		)
		return c.Status(http.StatusInternalServerError).JSON(Response{Reply: ReplyProcessingError})
	}
	return c.Status(http.StatusOK).JSON(Response{Reply: reply})
}
