package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Create(ctx context.Context, in NewProduct) (Product, error)
}

type Service struct {
	Repo Repository
	Log  *slog.Logger
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	ps, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ps, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, apperr.NotFound("Product")
	}
	p, err := s.Repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperr.NotFound("Product")
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in NewProduct) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))

	switch {
	case in.Name == "":
		return Product{}, apperr.Validation("Product name is required")
	case in.Description == "":
		return Product{}, apperr.Validation("Product description is required")
	case in.SKU == "":
		return Product{}, apperr.Validation("SKU is required")
	case in.BasePrice.IsNegative():
		return Product{}, apperr.Validation("Base price must be a positive number")
	case len(in.Images) == 0:
		return Product{}, apperr.Validation("Product must have at least one image")
	}

	p, err := s.Repo.Create(ctx, in)
	if errors.Is(err, ErrDuplicateSKU) {
		return Product{}, apperr.Validation("Product with SKU %s already exists", in.SKU)
	}
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.Log.Info("product created", "product_id", p.ID, "sku", p.SKU)
	return p, nil
}

// EnsureBySKU creates in unless a product with the same SKU exists.
func (s *Service) EnsureBySKU(ctx context.Context, in NewProduct) (p Product, created bool, err error) {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	existing, err := s.Repo.GetBySKU(ctx, in.SKU)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Product{}, false, fmt.Errorf("lookup sku %s: %w", in.SKU, err)
	}
	p, err = s.Create(ctx, in)
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}
