package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/api/dto"
	"github.com/devbyzero/flowlens-gateway/internal/observability"
	"github.com/devbyzero/flowlens-gateway/internal/service"
	"github.com/devbyzero/flowlens-gateway/internal/webhook"
	"github.com/devbyzero/flowlens-gateway/pkg/errorutil"
)

const (
	headerSignature = "X-Hub-Signature-256"
	headerEvent     = "X-GitHub-Event"
	headerDelivery  = "X-GitHub-Delivery"
)

// WebhookHandler is the single ingress endpoint for source-control events.
type WebhookHandler struct {
	verifier *webhook.Verifier
	ingest   *service.IngestService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(verifier *webhook.Verifier, ingest *service.IngestService, metrics *observability.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, ingest: ingest, metrics: metrics, logger: logger}
}

// Handle authenticates and processes one delivery. Signature verification
// runs against the exact raw body bytes before any parsing.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	if err := h.verifier.Verify(body, c.Get(headerSignature)); err != nil {
		h.metrics.RecordEvent(c.Get(headerEvent), "", "unauthorized")
		h.logger.Warn("rejected webhook delivery",
			zap.String("delivery_id", c.Get(headerDelivery)),
			zap.Error(err))
		return errorutil.NewUnauthorized("invalid webhook signature")
	}

	eventType := c.Get(headerEvent)
	if eventType == "" {
		return errorutil.NewValidationError("missing event type header", nil)
	}

	result, err := h.ingest.ProcessEvent(c.UserContext(), eventType, c.Get(headerDelivery), body)
	if err != nil {
		h.metrics.RecordEvent(eventType, "", "error")
		return err
	}

	outcome := "ignored"
	switch {
	case result.Duplicate:
		outcome = "duplicate"
	case result.Changed:
		outcome = "changed"
	case result.Handled:
		outcome = "no_change"
	}
	h.metrics.RecordEvent(result.EventType, result.Action, outcome)

	return c.Status(fiber.StatusOK).JSON(dto.WebhookAck{
		Success:    true,
		EventType:  result.EventType,
		Action:     result.Action,
		Repository: result.Repository,
		Handled:    result.Handled,
		Changed:    result.Changed,
		Duplicate:  result.Duplicate,
	})
}
