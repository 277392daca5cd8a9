package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/events"
	"github.com/devbyzero/flowlens-gateway/internal/persistence"
)

// NotificationService relays ingestion events onto the Redis change feed
// so downstream consumers can react without polling the database.
type NotificationService struct {
	redis   *persistence.Redis
	channel string
	logger  *zap.Logger
}

// NewNotificationService constructs the relay.
func NewNotificationService(redis *persistence.Redis, channel string, logger *zap.Logger) *NotificationService {
	return &NotificationService{redis: redis, channel: channel, logger: logger}
}

// RegisterHandlers subscribes the relay to all ingestion event types.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventChangeRequestUpserted, s.relay)
	dispatcher.Subscribe(events.EventPipelineTransitioned, s.relay)
}

// relay publishes the event as JSON on the configured channel. Publish
// failures are logged and swallowed so the feed never blocks ingestion.
func (s *NotificationService) relay(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal change feed event", zap.Error(err))
		return err
	}
	if err := s.redis.Client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("publish change feed event",
			zap.String("channel", s.channel),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return err
	}
	s.logger.Debug("change feed event published",
		zap.String("channel", s.channel),
		zap.String("type", string(event.Type)),
		zap.String("repository", event.Repository))
	return nil
}
