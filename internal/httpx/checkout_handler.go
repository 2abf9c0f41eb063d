package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/checkout"
	"github.com/go-chi/chi/v5"
)

const maxWebhookBody = 64 << 10

type SessionCreator interface {
	CreateSession(ctx context.Context, productID, currency, country string) (checkout.Session, error)
}

type WebhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

type CheckoutHandler struct {
	Checkout SessionCreator
	Webhooks WebhookHandler
	Log      *slog.Logger
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/api/create-checkout-session", h.createSession)
	r.Post("/api/webhook", h.webhook)
}

type createSessionReq struct {
	ProductID string `json:"productId"`
	Currency  string `json:"currency"`
	Country   string `json:"country"`
}

type createSessionResp struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

func (h *CheckoutHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	switch {
	case strings.TrimSpace(req.ProductID) == "":
		fail(w, r, h.Log, apperr.Validation("Product ID is required"))
		return
	case req.Currency == "":
		fail(w, r, h.Log, apperr.Validation("Currency is required"))
		return
	case req.Country == "":
		fail(w, r, h.Log, apperr.Validation("Country is required"))
		return
	}

	s, err := h.Checkout.CreateSession(r.Context(), strings.TrimSpace(req.ProductID), req.Currency, req.Country)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	ok(w, createSessionResp{SessionID: s.ID, SessionURL: s.URL})
}

// webhook must see the exact bytes the provider signed, so the body is read
// raw and never decoded here.
func (h *CheckoutHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(w, r, h.Log, apperr.Validation("Webhook payload too large"))
			return
		}
		fail(w, r, h.Log, apperr.Validation("Unable to read webhook payload"))
		return
	}

	if err := h.Webhooks.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
