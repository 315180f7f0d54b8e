package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/collegetrack/collegetrack/internal/relay"
)

// RegisterRelayRoutes mounts the chat relay on its canonical path and the
// versioned alias. All methods are routed so the handler can answer 405.
func RegisterRelayRoutes(app *fiber.App, h *relay.Handler) {
	app.All("/api/openai", h.Chat)

	api := app.Group("/api/v1")
	api.All("/chat", h.Chat)
}
