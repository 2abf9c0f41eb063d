package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/catalog"
	"github.com/ariefcatur/go-geoprice/internal/currency"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductLister interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

type RateSource interface {
	GetRates(ctx context.Context, base string, targets []string) (map[string]float64, error)
	ConvertPrice(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type productDTO struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"basePrice"`
	SKU         string    `json:"sku"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type localizedProductDTO struct {
	productDTO
	LocalizedPrice float64 `json:"localizedPrice"`
	Currency       string  `json:"currency"`
}

func toProductDTO(p catalog.Product) productDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice.InexactFloat64(),
		SKU:         p.SKU,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type ProductsHandler struct {
	Catalog ProductLister
	Rates   RateSource
	Log     *slog.Logger
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/rates", h.getRates)
	r.Post("/api/price", h.localizedPrices)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	out := make([]productDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductDTO(p))
	}
	ok(w, out)
}

func (h *ProductsHandler) getRates(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	raw := r.URL.Query().Get("targets")
	if base == "" || raw == "" {
		fail(w, r, h.Log, apperr.Validation("Base currency and target currencies are required"))
		return
	}
	var targets []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, currency.Normalize(t))
		}
	}
	if len(targets) == 0 {
		fail(w, r, h.Log, apperr.Validation("At least one target currency is required"))
		return
	}

	table, err := h.Rates.GetRates(r.Context(), base, targets)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	ok(w, map[string]any{"base": currency.Normalize(base), "rates": table})
}

type priceRequest struct {
	Country string `json:"country"`
}

func (h *ProductsHandler) localizedPrices(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	country := strings.TrimSpace(req.Country)
	if country == "" {
		fail(w, r, h.Log, apperr.Validation("country is required"))
		return
	}
	if !currency.ValidCountry(country) {
		fail(w, r, h.Log, apperr.Validation("country must be a 2-character ISO country code"))
		return
	}
	country = strings.ToUpper(country)
	cur := currency.For(country)

	ps, err := h.Catalog.List(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	out := make([]localizedProductDTO, 0, len(ps))
	for _, p := range ps {
		// one rate fetch at most: the table for USD is cached after the first product
		price, err := h.Rates.ConvertPrice(r.Context(), p.BasePrice, currency.USD, cur)
		if err != nil {
			fail(w, r, h.Log, err)
			return
		}
		out = append(out, localizedProductDTO{
			productDTO:     toProductDTO(p),
			LocalizedPrice: price.InexactFloat64(),
			Currency:       cur,
		})
	}
	ok(w, map[string]any{"country": country, "currency": cur, "products": out})
}
