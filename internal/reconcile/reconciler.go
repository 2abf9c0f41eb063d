// Package reconcile repairs orders whose local record drifted from the
// payment provider: sessions created without an order, and completed
// payments whose webhook never arrived.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/currency"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/shopspring/decimal"
)

const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"
)

// ProviderSession is a checkout session as reported by the payment provider.
type ProviderSession struct {
	ID              string
	Status          string
	Paid            bool
	ProductID       string
	CustomerCountry string
	Currency        string
	AmountTotal     int64 // smallest currency unit
	Created         time.Time
}

type SessionLister interface {
	RecentSessions(ctx context.Context, since time.Time) ([]ProviderSession, error)
}

type OrderStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (orders.Order, error)
	Create(ctx context.Context, in orders.NewOrder) (orders.Order, error)
	MarkPaid(ctx context.Context, sessionID string) (orders.Order, bool, error)
}

type Report struct {
	Scanned    int
	Created    int
	MarkedPaid int
	Skipped    int
	Failed     int
}

type Reconciler struct {
	Sessions SessionLister
	Orders   OrderStore
	Log      *slog.Logger
	Window   time.Duration
	Now      func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOnce scans provider sessions created within Window. Per-session failures
// are logged and counted; only a failed listing aborts the pass.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	sessions, err := r.Sessions.RecentSessions(ctx, r.now().Add(-r.Window))
	if err != nil {
		return rep, fmt.Errorf("list provider sessions: %w", err)
	}

	for _, s := range sessions {
		rep.Scanned++
		if err := r.reconcile(ctx, s, &rep); err != nil {
			rep.Failed++
			r.Log.Error("reconcile session failed", "session_id", s.ID, "err", err)
		}
	}
	r.Log.Info("reconcile pass done",
		"scanned", rep.Scanned, "created", rep.Created, "marked_paid", rep.MarkedPaid,
		"skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}

func (r *Reconciler) reconcile(ctx context.Context, s ProviderSession, rep *Report) error {
	o, err := r.Orders.GetBySessionID(ctx, s.ID)
	switch {
	case err == nil:
		if s.Paid && o.Status == orders.StatusPending {
			if _, changed, err := r.Orders.MarkPaid(ctx, s.ID); err != nil {
				return err
			} else if changed {
				rep.MarkedPaid++
				return nil
			}
		}
		rep.Skipped++
		return nil
	case !apperr.Is(err, apperr.KindNotFound):
		return err
	}

	if s.Status == SessionExpired && !s.Paid {
		rep.Skipped++
		return nil
	}
	in, ok := orderFrom(s)
	if !ok {
		r.Log.Warn("session missing order metadata", "session_id", s.ID)
		rep.Skipped++
		return nil
	}

	created, err := r.Orders.Create(ctx, in)
	if errors.Is(err, orders.ErrDuplicateSession) {
		// checkout or the webhook got there first
		rep.Skipped++
		return nil
	}
	if err != nil {
		return err
	}
	r.Log.Info("recovered order from provider session",
		"order_id", created.ID, "session_id", s.ID, "status", created.Status)
	rep.Created++
	return nil
}

func orderFrom(s ProviderSession) (orders.NewOrder, bool) {
	cur := currency.Normalize(s.Currency)
	if s.ProductID == "" || !currency.Supported(cur) || !currency.ValidCountry(s.CustomerCountry) {
		return orders.NewOrder{}, false
	}
	st := orders.StatusPending
	if s.Paid {
		st = orders.StatusPaid
	}
	return orders.NewOrder{
		ProductID:       s.ProductID,
		Amount:          decimal.New(s.AmountTotal, -2),
		Currency:        cur,
		SessionID:       s.ID,
		CustomerCountry: s.CustomerCountry,
		Status:          st,
	}, true
}

// Run calls RunOnce immediately and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.Log.Error("reconcile pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
