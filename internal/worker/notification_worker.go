package worker

import (
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/events"
	"github.com/devbyzero/flowlens-gateway/internal/service"
)

// StartNotificationWorker attaches the change feed relay to the event
// dispatcher. Relayed events fan out to Redis subscribers as they happen.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) {
	notifications.RegisterHandlers(dispatcher)
	logger.Info("notification worker registered")
}
