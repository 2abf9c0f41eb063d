package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "geoprice-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // session_id
	Payload       json.RawMessage `json:"payload"`
}

// OrderStatusPayload is shared by OrderCreated and OrderPaid.
type OrderStatusPayload struct {
	OrderID         string    `json:"order_id"`
	SessionID       string    `json:"session_id"`
	ProductID       string    `json:"product_id"`
	Status          Status    `json:"status"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	CustomerCountry string    `json:"customer_country"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func PayloadFor(o Order) OrderStatusPayload {
	return OrderStatusPayload{
		OrderID:         o.ID,
		SessionID:       o.SessionID,
		ProductID:       o.ProductID,
		Status:          o.Status,
		Amount:          o.Amount.StringFixed(2),
		Currency:        o.Currency,
		CustomerCountry: o.CustomerCountry,
		UpdatedAt:       o.UpdatedAt,
	}
}
