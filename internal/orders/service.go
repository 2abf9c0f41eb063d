package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	kafkax "github.com/ariefcatur/go-geoprice/internal/kafka"
	"github.com/ariefcatur/go-geoprice/internal/tracing"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

type Repository interface {
	Create(ctx context.Context, in NewOrder) (Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) (Order, error)
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// StatusCache drops a cached order status so readers see the change.
type StatusCache interface {
	Invalidate(ctx context.Context, sessionID string) error
}

type Service struct {
	Repo        Repository
	Events      Publisher   // optional
	Cache       StatusCache // optional
	Log         *slog.Logger
	ServiceName string
}

func (s *Service) CreatePending(ctx context.Context, in NewOrder) (Order, error) {
	in.Status = StatusPending
	return s.Create(ctx, in)
}

// Create stores a new order in its initial status. Only the reconciler
// creates orders directly in paid.
func (s *Service) Create(ctx context.Context, in NewOrder) (Order, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.Status != StatusPending && in.Status != StatusPaid {
		return Order{}, fmt.Errorf("invalid initial order status %q", in.Status)
	}
	if in.SessionID == "" {
		return Order{}, errors.New("order requires a payment session id")
	}

	o, err := s.Repo.Create(ctx, in)
	if err != nil {
		return Order{}, fmt.Errorf("create order for session %s: %w", in.SessionID, err)
	}
	s.Log.Info("order created",
		"order_id", o.ID, "product_id", o.ProductID, "session_id", o.SessionID,
		"status", o.Status, "amount", o.Amount.StringFixed(2), "currency", o.Currency)

	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o)
	return o, nil
}

// MarkPaid advances the order for sessionID to paid. An unknown session is
// not an error: the provider may deliver events for sessions we never stored.
func (s *Service) MarkPaid(ctx context.Context, sessionID string) (Order, bool, error) {
	o, err := s.Repo.GetBySessionID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		s.Log.Warn("order not found for completed checkout session", "session_id", sessionID)
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, fmt.Errorf("lookup order for session %s: %w", sessionID, err)
	}
	if !CanTransition(o.Status, StatusPaid) {
		s.Log.Warn("ignoring paid transition", "order_id", o.ID, "session_id", sessionID, "status", o.Status)
		return o, false, nil
	}

	updated, err := s.Repo.UpdateStatus(ctx, o.ID, StatusPaid)
	if err != nil {
		return Order{}, false, fmt.Errorf("mark order %s paid: %w", o.ID, err)
	}
	s.Log.Info("order marked as paid", "order_id", updated.ID, "session_id", sessionID, "product_id", updated.ProductID)

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, sessionID); err != nil {
			s.Log.Warn("order status cache invalidation failed", "session_id", sessionID, "err", err)
		}
	}

	s.publish(ctx, TopicOrderPaid, EventOrderPaid, updated)
	return updated, true, nil
}

func (s *Service) GetBySessionID(ctx context.Context, sessionID string) (Order, error) {
	o, err := s.Repo.GetBySessionID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperr.NotFound("Order")
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order for session %s: %w", sessionID, err)
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, topic, eventType string, o Order) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.SessionID,
		Payload:       kafkax.MustMarshal(PayloadFor(o)),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	headers := tracing.InjectKafkaHeaders(ctx, []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte("1")},
	})
	s.Events.Publish(topic, PartitionKey(o.SessionID), kafkax.MustMarshal(ev), headers...)
}
