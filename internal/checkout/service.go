// Package checkout turns a product purchase into a hosted payment session
// and advances orders when the payment provider confirms them.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/catalog"
	"github.com/ariefcatur/go-geoprice/internal/currency"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/ariefcatur/go-geoprice/internal/checkout")

type ProductGetter interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

type PriceConverter interface {
	ConvertPrice(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type OrderCreator interface {
	CreatePending(ctx context.Context, in orders.NewOrder) (orders.Order, error)
}

type PaymentProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

type SessionRequest struct {
	ProductID       string
	Name            string
	Description     string
	Images          []string
	Currency        string // ISO 4217, upper case
	UnitAmount      int64  // smallest currency unit
	CustomerCountry string
}

type Session struct {
	ID  string
	URL string
}

type Service struct {
	Catalog  ProductGetter
	Rates    PriceConverter
	Orders   OrderCreator
	Payments PaymentProvider
	Log      *slog.Logger
}

// CreateSession prices productID in cur, opens a provider session and records
// a pending order for it. The order is written after the provider call, so a
// crash in between leaves a session without a local order.
func (s *Service) CreateSession(ctx context.Context, productID, cur, country string) (Session, error) {
	ctx, span := tracer.Start(ctx, "checkout.CreateSession")
	defer span.End()

	code := currency.Normalize(cur)
	if !currency.Supported(code) {
		return Session{}, apperr.Validation("Currency must be one of: %s", strings.Join(currency.SupportedList(), ", "))
	}
	if !currency.ValidCountry(strings.TrimSpace(country)) {
		return Session{}, apperr.Validation("country must be a 2-character ISO country code")
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.String("checkout.currency", code),
	)

	p, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return Session{}, err
	}

	amount, err := s.Rates.ConvertPrice(ctx, p.BasePrice, currency.USD, code)
	if err != nil {
		return Session{}, err
	}

	sess, err := s.Payments.CreateSession(ctx, SessionRequest{
		ProductID:       p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Images:          p.Images,
		Currency:        code,
		UnitAmount:      SmallestUnit(amount),
		CustomerCountry: country,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment session")
		s.Log.Error("failed to create checkout session", "product_id", p.ID, "currency", code, "err", err)
		return Session{}, fmt.Errorf("create payment session: %w", err)
	}
	if sess.ID == "" || sess.URL == "" {
		return Session{}, errors.New("payment session creation failed: missing session id or url")
	}

	if _, err := s.Orders.CreatePending(ctx, orders.NewOrder{
		ProductID:       p.ID,
		Amount:          amount,
		Currency:        code,
		SessionID:       sess.ID,
		CustomerCountry: country,
	}); errors.Is(err, orders.ErrDuplicateSession) {
		// the reconciler recorded this session between the two calls
		s.Log.Warn("order already recorded for checkout session", "session_id", sess.ID)
	} else if err != nil {
		s.Log.Error("pending order not stored for checkout session", "session_id", sess.ID, "err", err)
		return Session{}, err
	}

	s.Log.Info("checkout session created",
		"session_id", sess.ID, "product_id", p.ID, "currency", code, "amount", amount.StringFixed(2))
	return sess, nil
}

// SmallestUnit converts a two-decimal amount to minor units (cents, paise, pence).
// Zero-decimal currencies are not supported.
func SmallestUnit(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
