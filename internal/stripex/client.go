// Package stripex adapts the Stripe API to the checkout and reconcile packages.
package stripex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/checkout"
	"github.com/ariefcatur/go-geoprice/internal/reconcile"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	metaProductID       = "productId"
	metaCustomerCountry = "customerCountry"
)

type Client struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

type Options struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
	// Backend overrides the API endpoint; nil uses api.stripe.com.
	Backend stripe.Backend
}

func New(o Options) *Client {
	api := &client.API{}
	var backends *stripe.Backends
	if o.Backend != nil {
		backends = &stripe.Backends{API: o.Backend, Connect: o.Backend, Uploads: o.Backend}
	}
	api.Init(o.SecretKey, backends)

	front := strings.TrimRight(o.FrontendURL, "/")
	return &Client{
		api:           api,
		webhookSecret: o.WebhookSecret,
		successURL:    front + "/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:     front + "/cancel",
	}
}

func (c *Client) CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.Name),
						Description: stripe.String(req.Description),
						Images:      stripe.StringSlice(req.Images),
					},
					UnitAmount: stripe.Int64(req.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metaProductID, req.ProductID)
	params.AddMetadata(metaCustomerCountry, req.CustomerCountry)

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return checkout.Session{}, err
	}
	return checkout.Session{ID: s.ID, URL: s.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header over the raw payload.
func (c *Client) VerifyEvent(payload []byte, signature string) (checkout.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return checkout.Event{}, err
	}

	out := checkout.Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && ev.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return checkout.Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = s.ID
	}
	return out, nil
}

// RecentSessions lists checkout sessions created at or after since, newest first.
func (c *Client) RecentSessions(ctx context.Context, since time.Time) ([]reconcile.ProviderSession, error) {
	params := &stripe.CheckoutSessionListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.Filters.AddFilter("created", "gte", strconv.FormatInt(since.Unix(), 10))

	var out []reconcile.ProviderSession
	it := c.api.CheckoutSessions.List(params)
	for it.Next() {
		s := it.CheckoutSession()
		created := time.Unix(s.Created, 0)
		if created.Before(since) {
			break
		}
		out = append(out, reconcile.ProviderSession{
			ID:              s.ID,
			Status:          string(s.Status),
			Paid:            s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
			ProductID:       s.Metadata[metaProductID],
			CustomerCountry: s.Metadata[metaCustomerCountry],
			Currency:        strings.ToUpper(string(s.Currency)),
			AmountTotal:     s.AmountTotal,
			Created:         created,
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
