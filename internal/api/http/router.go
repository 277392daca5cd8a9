package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/api/http/handlers"
	"github.com/devbyzero/flowlens-gateway/internal/auth"
	"github.com/devbyzero/flowlens-gateway/internal/config"
	"github.com/devbyzero/flowlens-gateway/internal/observability"
)

// RouterDependencies bundles everything the HTTP surface needs.
type RouterDependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Webhook      *handlers.WebhookHandler
	Health       *handlers.HealthHandler
	Debug        *handlers.DebugHandler
	TokenManager *auth.TokenManager
}

// NewServer builds the fiber app with all routes registered.
func NewServer(deps RouterDependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.App.Name,
		ReadTimeout:  deps.Config.App.RequestTimeout(),
		WriteTimeout: deps.Config.App.RequestTimeout(),
		// raw body bytes must survive untouched for signature verification
		BodyLimit:    5 * 1024 * 1024,
		ErrorHandler: NewErrorHandler(deps.Logger, deps.Metrics, deps.Config.App.IsProduction()),
	})

	app.Use(recover.New())
	app.Use(RequestTimeout(deps.Config.App.RequestTimeout()))
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))

	app.Get("/health", deps.Health.Health)
	app.Get("/health/live", deps.Health.Live)
	app.Get("/health/ready", deps.Health.Ready)

	app.Post("/webhook", deps.Webhook.Handle)

	debug := app.Group("/debug")
	debug.Post("/token", deps.Debug.IssueToken)
	debug.Get("/change-requests", auth.OperatorMiddleware(deps.TokenManager), deps.Debug.ListChangeRequests)
	debug.Get("/pipeline-runs", auth.OperatorMiddleware(deps.TokenManager), deps.Debug.ListPipelineRuns)

	return app
}
