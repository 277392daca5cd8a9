package service

import (
	"context"
	"time"

	"github.com/devbyzero/flowlens-gateway/internal/persistence"
)

const deliveryKeyPrefix = "webhook:delivery:"

// redisDeduper records seen delivery identifiers in Redis with a TTL so
// retried deliveries inside the window are recognized.
type redisDeduper struct {
	redis *persistence.Redis
	ttl   time.Duration
}

// NewRedisDeduper builds a DeliveryDeduper backed by Redis SET NX.
func NewRedisDeduper(redis *persistence.Redis, ttl time.Duration) DeliveryDeduper {
	return &redisDeduper{redis: redis, ttl: ttl}
}

// MarkDelivery atomically claims the identifier. It returns false when the
// identifier was already claimed inside the TTL window.
func (d *redisDeduper) MarkDelivery(ctx context.Context, deliveryID string) (bool, error) {
	return d.redis.Client.SetNX(ctx, deliveryKeyPrefix+deliveryID, "1", d.ttl).Result()
}
