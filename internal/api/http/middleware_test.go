package http

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/api/http/handlers"
	"github.com/devbyzero/flowlens-gateway/internal/auth"
	"github.com/devbyzero/flowlens-gateway/internal/config"
	"github.com/devbyzero/flowlens-gateway/internal/events"
	"github.com/devbyzero/flowlens-gateway/internal/observability"
	"github.com/devbyzero/flowlens-gateway/internal/service"
	"github.com/devbyzero/flowlens-gateway/internal/webhook"
)

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(RequestTimeout(5 * time.Second))

	var hadDeadline bool
	app.Get("/", func(c *fiber.Ctx) error {
		_, hadDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, hadDeadline)
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	app := fiber.New()
	app.Use(RequestTimeout(0))

	var hadDeadline bool
	app.Get("/", func(c *fiber.Ctx) error {
		_, hadDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.False(t, hadDeadline)
}

// The ingest write path must inherit the request deadline so store writes
// cannot hang a handler goroutine indefinitely.
func TestServer_WebhookWritesCarryDeadline(t *testing.T) {
	repos := new(service.MockRepoRepository)
	crs := new(service.MockChangeRequestRepository)
	pipelines := new(service.MockPipelineRunRepository)
	diffs := new(service.MockDiffFetcher)
	diffs.On("ListChangedFiles", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	var hadDeadline bool
	repos.On("Upsert", mock.MatchedBy(func(ctx context.Context) bool {
		_, hadDeadline = ctx.Deadline()
		return true
	}), mock.Anything).Return(nil)
	repos.On("RefreshCounters", mock.Anything, mock.Anything).Return(nil)
	crs.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pipelines.On("EnsureExists", mock.Anything, mock.Anything).Return(nil)
	pipelines.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	ingest := service.NewIngestService(service.IngestDependencies{
		RepoRepo:          repos,
		ChangeRequestRepo: crs,
		PipelineRepo:      pipelines,
		Diffs:             diffs,
		Dispatcher:        events.NewInMemoryDispatcher(),
		Logger:            zap.NewNop(),
	})

	cfg := &config.Config{
		App: config.AppConfig{Name: "flowlens-gateway", RequestTimeoutSeconds: 30},
		Debug: config.DebugConfig{
			APISecret:       "test-secret",
			TokenTTLMinutes: 5,
		},
	}
	metrics := observability.NewMetrics()
	tokenManager := auth.NewTokenManager(cfg.Debug)

	app := NewServer(RouterDependencies{
		Config:       cfg,
		Logger:       zap.NewNop(),
		Metrics:      metrics,
		Webhook:      handlers.NewWebhookHandler(webhook.NewVerifier("", true), ingest, metrics, zap.NewNop()),
		Health:       handlers.NewHealthHandler("test", nil, nil),
		Debug:        handlers.NewDebugHandler(cfg.Debug.APISecret, tokenManager, crs, pipelines, zap.NewNop()),
		TokenManager: tokenManager,
	})

	body := `{
	  "action": "opened",
	  "number": 42,
	  "repository": {"id": 9001, "full_name": "acme/widgets", "owner": {"login": "acme"}},
	  "pull_request": {
	    "number": 42,
	    "title": "Add widget cache",
	    "user": {"login": "octocat"},
	    "head": {"ref": "feature/cache", "sha": "abc123"},
	    "base": {"ref": "main"}
	  }
	}`
	req := httptest.NewRequest(fiber.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-GitHub-Delivery", "test-delivery")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, hadDeadline, "store write context must carry a deadline")
	repos.AssertExpectations(t)
}
