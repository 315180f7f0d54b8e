package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/middleware"
	"github.com/collegetrack/collegetrack/internal/relay"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	Completer relay.Completer
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Completer == nil {
		return errors.New("completion client is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(cors.New())

	// Health
	RegisterHealthRoutes(app)

	relaySvc := relay.NewService(relay.Config{
		Model:         d.Cfg.ChatModel,
		MaxTokens:     d.Cfg.ChatMaxTokens,
		Timeout:       d.Cfg.ChatTimeout,
		CredentialEnv: config.CompletionKeyEnvVar,
		Prompts:       relay.DefaultPrompts(),
	}, d.Completer, d.Logger)
	relayHandler := relay.NewHandler(relaySvc, d.Logger)

	RegisterRelayRoutes(app, relayHandler)
	return nil
}

// ErrorHandler renders every unhandled error in the relay's {"reply": ...} shape.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		msg := relay.ReplyProcessingError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else if logger != nil {
			logger.ErrorContext(c.UserContext(), "unhandled error", slog.Any("error", err))
		}
		return c.Status(code).JSON(relay.Response{Reply: msg})
	}
}
