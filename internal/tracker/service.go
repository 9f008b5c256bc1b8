package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sawomule/go-resto-pos.git/internal/kafka"
	"github.com/sawomule/go-resto-pos.git/internal/orders"
	"github.com/sawomule/go-resto-pos.git/internal/redisx"
)

// Service keeps the order_status cache warm from the lifecycle event stream,
// so status polling never has to touch postgres.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

type cachedStatus struct {
	Status    orders.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Handle dipasang sebagai handler consumer untuk kedua topic.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "tracker", env.EventID)
	fresh, err := redisx.MarkOnce(ctx, s.Redis, dkey)
	if err == nil && !fresh {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.cache(ctx, p.OrderID, p.Status, env.OccurredAt)
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.cache(ctx, p.OrderID, p.Status, env.OccurredAt)
	default:
		return nil // ItemStatusChanged etc: nothing to cache
	}
}

func (s *Service) cache(ctx context.Context, orderID int64, st orders.Status, at time.Time) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, err := json.Marshal(cachedStatus{Status: st, UpdatedAt: at})
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
