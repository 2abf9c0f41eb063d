package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-geoprice/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id::text, name, description, base_price::text, sku, images, created_at, updated_at`

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetBySKU(ctx context.Context, sku string) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku=$1`, strings.ToUpper(strings.TrimSpace(sku)))
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Create relies on the table constraints for sku uniqueness and a non-empty image list.
func (r *Repo) Create(ctx context.Context, in NewProduct) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, base_price, sku, images)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING `+productColumns,
		uuid.NewString(), in.Name, in.Description, in.BasePrice.String(), in.SKU, in.Images,
	)
	p, err := scanProduct(row)
	if postgres.IsUniqueViolation(err, "products_sku_key") {
		return Product{}, ErrDuplicateSKU
	}
	return p, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.SKU, &p.Images, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, err
	}
	p.BasePrice = d
	return p, nil
}
