package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/api/dto"
	"github.com/devbyzero/flowlens-gateway/internal/observability"
	"github.com/devbyzero/flowlens-gateway/pkg/errorutil"
)

// RequestTimeout bounds each request's user context so store writes and
// enrichment calls downstream inherit a deadline. A timed-out event surfaces
// as a failure and the source platform redelivers it.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// NewErrorHandler maps application errors to uniform JSON responses. In
// production mode internal error causes are withheld from the body; the
// full chain still lands in the log.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := errorutil.ToDomainError(err)

		if fiberErr, ok := err.(*fiber.Error); ok {
			domainErr = errorutil.NewDomainError("HTTP_ERROR", fiberErr.Message, fiberErr.Code, nil)
		}

		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
		} else {
			logger.Warn("request rejected",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.String("message", domainErr.Message),
			)
		}

		message := domainErr.Message
		if production && domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			message = "internal server error"
		}

		return c.Status(domainErr.HTTPStatus).JSON(dto.ErrorResponse{
			Code:    domainErr.Code,
			Message: message,
			Details: domainErr.Details,
		})
	}
}
