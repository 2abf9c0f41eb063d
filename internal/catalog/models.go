package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrDuplicateSKU = errors.New("product sku already exists")
)

type Product struct {
	ID          string
	Name        string
	Description string
	BasePrice   decimal.Decimal // USD
	SKU         string
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewProduct struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
	SKU         string
	Images      []string
}
