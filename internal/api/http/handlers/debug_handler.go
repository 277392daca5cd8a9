package handlers

import (
	"crypto/subtle"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/api/dto"
	"github.com/devbyzero/flowlens-gateway/internal/auth"
	"github.com/devbyzero/flowlens-gateway/internal/repository"
	"github.com/devbyzero/flowlens-gateway/pkg/errorutil"
)

const defaultListLimit = 50

// DebugHandler exposes operator-only inspection endpoints over the stored
// change requests and pipeline runs.
type DebugHandler struct {
	secret    string
	tokens    *auth.TokenManager
	crs       repository.ChangeRequestRepository
	pipelines repository.PipelineRunRepository
	logger    *zap.Logger
}

// NewDebugHandler constructs the handler.
func NewDebugHandler(secret string, tokens *auth.TokenManager, crs repository.ChangeRequestRepository, pipelines repository.PipelineRunRepository, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{secret: secret, tokens: tokens, crs: crs, pipelines: pipelines, logger: logger}
}

// IssueToken exchanges the shared debug secret for a short-lived operator
// token. The exchange itself is the only unauthenticated debug route.
func (h *DebugHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		return errorutil.NewUnauthorized("invalid debug secret")
	}

	subject := req.Subject
	if subject == "" {
		subject = "operator"
	}
	token, err := h.tokens.Issue(subject)
	if err != nil {
		return errorutil.NewInternalError(err)
	}

	h.logger.Info("operator token issued", zap.String("subject", subject))
	return c.JSON(dto.TokenResponse{Token: token})
}

// ListChangeRequests returns the most recently updated change requests.
func (h *DebugHandler) ListChangeRequests(c *fiber.Ctx) error {
	records, err := h.crs.ListRecent(c.UserContext(), listLimit(c))
	if err != nil {
		return err
	}

	out := make([]dto.ChangeRequestSummary, 0, len(records))
	for _, cr := range records {
		out = append(out, dto.FromChangeRequest(cr))
	}
	return c.JSON(fiber.Map{"change_requests": out, "count": len(out)})
}

// ListPipelineRuns returns the most recently updated pipeline runs.
func (h *DebugHandler) ListPipelineRuns(c *fiber.Ctx) error {
	records, err := h.pipelines.ListRecent(c.UserContext(), listLimit(c))
	if err != nil {
		return err
	}

	out := make([]dto.PipelineRunSummary, 0, len(records))
	for _, run := range records {
		out = append(out, dto.FromPipelineRun(run))
	}
	return c.JSON(fiber.Map{"pipeline_runs": out, "count": len(out)})
}

func listLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
