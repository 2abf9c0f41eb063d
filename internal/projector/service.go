// Package projector keeps the order status cache in Redis in step with the
// order event stream.
package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/go-geoprice/internal/kafka"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
	"github.com/ariefcatur/go-geoprice/internal/tracing"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

const dedupScope = "projector"

type Service struct {
	Redis *redis.Client
	Log   *slog.Logger
}

// HandleOrderEvent dipasang sebagai handler consumer untuk semua topic order.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	ctx = tracing.ExtractKafkaHeaders(ctx, m.Headers)

	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Error("drop undecodable order event", "topic", m.Topic, "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != orders.EventOrderCreated && env.EventType != orders.EventOrderPaid {
		return nil
	}

	// 2) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderStatusPayload](env.Payload)
	if err != nil {
		s.Log.Error("drop order event with bad payload", "event_id", env.EventID, "err", err)
		return nil
	}
	if p.SessionID == "" {
		return nil
	}

	// 3) dedup via event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, dedupScope, env.EventID)
	seen, err := redisx.Seen(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if seen {
		s.Log.Debug("duplicate order event", "event_id", env.EventID)
		return nil
	}

	// 4) project
	if err := s.project(ctx, p); err != nil {
		// release the dedup mark so the retried message is applied
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	s.Log.Info("order status projected", "event_id", env.EventID, "session_id", p.SessionID, "status", p.Status)
	return nil
}

func (s *Service) project(ctx context.Context, p orders.OrderStatusPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, p.SessionID)

	// OrderCreated may arrive after OrderPaid (different topics), so it never
	// overwrites an existing entry.
	if p.Status == orders.StatusPending {
		if err := s.Redis.SetNX(ctx, key, string(b), redisx.TTLStatusCache).Err(); err != nil {
			return fmt.Errorf("cache status for %s: %w", p.SessionID, err)
		}
		return nil
	}
	if err := s.Redis.Set(ctx, key, string(b), redisx.TTLStatusCache).Err(); err != nil {
		return fmt.Errorf("cache status for %s: %w", p.SessionID, err)
	}
	return nil
}
