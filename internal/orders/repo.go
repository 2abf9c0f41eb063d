package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-geoprice/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id::text, product_id::text, amount::text, currency, session_id, status, customer_country, created_at, updated_at`

// Create inserts a single order row. session_id is unique, so a second
// insert for the same provider session returns ErrDuplicateSession.
func (r *Repo) Create(ctx context.Context, in NewOrder) (Order, error) {
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, product_id, amount, currency, session_id, status, customer_country)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		uuid.NewString(), in.ProductID, in.Amount.StringFixed(2), in.Currency, in.SessionID, string(status), in.CustomerCountry,
	)
	o, err := scanOrder(row)
	if postgres.IsUniqueViolation(err, "orders_session_id_key") {
		return Order{}, ErrDuplicateSession
	}
	return o, err
}

func (r *Repo) GetBySessionID(ctx context.Context, sessionID string) (Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id=$1`, sessionID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) UpdateStatus(ctx context.Context, orderID string, status Status) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1
		RETURNING `+orderColumns, orderID, string(status))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		amount string
		status string
	)
	if err := row.Scan(&o.ID, &o.ProductID, &amount, &o.Currency, &o.SessionID, &status,
		&o.CustomerCountry, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Order{}, err
	}
	o.Amount = d
	o.Status = Status(status)
	return o, nil
}
