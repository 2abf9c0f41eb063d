package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-geoprice/internal/postgres/pgtest"
)

func TestRepoIntegration(t *testing.T) {
	repo := &Repo{DB: pgtest.New(t)}
	ctx := context.Background()

	first, err := repo.Create(ctx, NewProduct{
		Name: "Wireless Bluetooth Headphones", Description: "noise cancelling",
		BasePrice: decimal.RequireFromString("149.99"), SKU: "WBH-001",
		Images: []string{"https://img.example/1.jpg"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "149.99", first.BasePrice.StringFixed(2))

	second, err := repo.Create(ctx, NewProduct{
		Name: "Smart Fitness Watch", Description: "gps",
		BasePrice: decimal.RequireFromString("249.99"), SKU: "SFW-002",
		Images: []string{"https://img.example/2.jpg"},
	})
	require.NoError(t, err)

	t.Run("duplicate sku", func(t *testing.T) {
		_, err := repo.Create(ctx, NewProduct{
			Name: "dup", Description: "dup", BasePrice: decimal.NewFromInt(1),
			SKU: "WBH-001", Images: []string{"x"},
		})
		assert.ErrorIs(t, err, ErrDuplicateSKU)
	})

	t.Run("empty images rejected by schema", func(t *testing.T) {
		_, err := repo.Create(ctx, NewProduct{
			Name: "no images", Description: "d", BasePrice: decimal.NewFromInt(1),
			SKU: "NOIMG-1", Images: []string{},
		})
		assert.Error(t, err)
	})

	t.Run("list in creation order", func(t *testing.T) {
		ps, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, first.ID, ps[0].ID)
		assert.Equal(t, second.ID, ps[1].ID)
	})

	t.Run("get", func(t *testing.T) {
		p, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "SFW-002", p.SKU)

		_, err = repo.Get(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.Get(ctx, "6f1c1f2e-8d0b-4a7e-9d55-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("get by sku", func(t *testing.T) {
		p, err := repo.GetBySKU(ctx, "wbh-001")
		require.NoError(t, err)
		assert.Equal(t, first.ID, p.ID)
	})
}
