package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type OrderGetter interface {
	GetBySessionID(ctx context.Context, sessionID string) (orders.Order, error)
}

type OrdersHandler struct {
	Orders OrderGetter
	Redis  *redis.Client // optional status cache
	Log    *slog.Logger
}

type orderStatusResp struct {
	SessionID string        `json:"sessionId"`
	Status    orders.Status `json:"status"`
	Amount    string        `json:"amount"`
	Currency  string        `json:"currency"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/api/orders/{sessionId}", h.getOrder)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		fail(w, r, h.Log, apperr.Validation("Session ID is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, sessionID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var p orders.OrderStatusPayload
			if json.Unmarshal([]byte(s), &p) == nil {
				ok(w, statusResp(p))
				return
			}
		}
	}

	// 2) fallback DB
	o, err := h.Orders.GetBySessionID(ctx, sessionID)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	p := orders.PayloadFor(o)
	if h.Redis != nil {
		if b, err := json.Marshal(p); err == nil {
			// SETNX: a newer status written meanwhile (projector) must win
			if err := h.Redis.SetNX(ctx, key, string(b), redisx.TTLStatusCache).Err(); err != nil {
				h.Log.Warn("order status cache write failed", "session_id", sessionID, "err", err)
			}
		}
	}
	ok(w, statusResp(p))
}

func statusResp(p orders.OrderStatusPayload) orderStatusResp {
	return orderStatusResp{SessionID: p.SessionID, Status: p.Status, Amount: p.Amount, Currency: p.Currency}
}
