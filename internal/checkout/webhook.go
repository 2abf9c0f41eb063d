package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/orders"
)

const EventCheckoutCompleted = "checkout.session.completed"

// Event is a verified provider event, reduced to what we act on.
type Event struct {
	ID        string
	Type      string
	SessionID string // set for checkout.session.* events
}

type EventVerifier interface {
	// VerifyEvent authenticates the exact request bytes against the signature header.
	VerifyEvent(payload []byte, signature string) (Event, error)
}

type PaidMarker interface {
	MarkPaid(ctx context.Context, sessionID string) (orders.Order, bool, error)
}

type Dispatcher struct {
	Verifier EventVerifier
	Orders   PaidMarker
	Log      *slog.Logger
}

// Handle verifies payload and applies it. Unknown event types succeed so the
// provider does not keep redelivering them.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return apperr.Validation("Missing stripe-signature header")
	}
	ev, err := d.Verifier.VerifyEvent(payload, signature)
	if err != nil {
		d.Log.Error("webhook signature verification failed", "err", err)
		return apperr.Validation("Invalid webhook signature")
	}
	d.Log.Info("webhook event received", "event_id", ev.ID, "event_type", ev.Type)

	switch ev.Type {
	case EventCheckoutCompleted:
		if ev.SessionID == "" {
			d.Log.Warn("checkout completed event without session id", "event_id", ev.ID)
			return nil
		}
		if _, _, err := d.Orders.MarkPaid(ctx, ev.SessionID); err != nil {
			return fmt.Errorf("handle %s: %w", ev.Type, err)
		}
	default:
		d.Log.Info("unhandled webhook event type", "event_type", ev.Type)
	}
	return nil
}
