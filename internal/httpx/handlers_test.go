package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/catalog"
	"github.com/ariefcatur/go-geoprice/internal/checkout"
	"github.com/ariefcatur/go-geoprice/internal/logging"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/rates"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

type stubCatalog struct {
	products []catalog.Product
	err      error
}

func (s stubCatalog) List(ctx context.Context) ([]catalog.Product, error) { return s.products, s.err }

type stubProvider struct {
	table map[string]float64
	err   error
}

func (p stubProvider) Latest(ctx context.Context, base string) (map[string]float64, error) {
	return p.table, p.err
}

var headphones = catalog.Product{
	ID: "4b7f8f8e-2f0c-4b8e-9a59-2d6f7a0c1e11", Name: "Wireless Headphones", Description: "Noise cancelling",
	BasePrice: decimal.RequireFromString("149.99"), SKU: "WBH-001", Images: []string{"https://img/1.jpg"},
	CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
}

func productsRouter(cat stubCatalog, p stubProvider) *chi.Mux {
	svc := rates.NewService(logging.Discard(), p, rates.NewMemoryStore())
	return NewRouter(logging.Discard(), "test", &ProductsHandler{Catalog: cat, Rates: svc, Log: logging.Discard()})
}

func TestHealth(t *testing.T) {
	rec, _ := do(t, NewRouter(logging.Discard(), "production"), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "production", body["environment"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListProducts(t *testing.T) {
	r := productsRouter(stubCatalog{products: []catalog.Product{headphones}}, stubProvider{})
	rec, env := do(t, r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, headphones.ID, got[0]["_id"])
	assert.Equal(t, 149.99, got[0]["basePrice"])
	assert.Equal(t, "WBH-001", got[0]["sku"])
}

func TestListProductsStoreFailureHidesDetail(t *testing.T) {
	r := productsRouter(stubCatalog{err: errors.New("pgx: connection reset")}, stubProvider{})
	rec, env := do(t, r, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Error)
	assert.NotContains(t, rec.Body.String(), "pgx")
}

func TestGetRates(t *testing.T) {
	r := productsRouter(stubCatalog{}, stubProvider{table: map[string]float64{"INR": 83, "GBP": 0.79}})

	rec, env := do(t, r, http.MethodGet, "/api/rates?base=usd&targets=INR,%20GBP", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "USD", data.Base)
	assert.Equal(t, 83.0, data.Rates["INR"])

	rec, env = do(t, r, http.MethodGet, "/api/rates?base=USD", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Base currency and target currencies are required", env.Error)
}

func TestLocalizedPrices(t *testing.T) {
	r := productsRouter(stubCatalog{products: []catalog.Product{headphones}}, stubProvider{table: map[string]float64{"GBP": 0.79}})

	rec, env := do(t, r, http.MethodPost, "/api/price", `{"country":"gb"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Country  string `json:"country"`
		Currency string `json:"currency"`
		Products []struct {
			ID             string  `json:"_id"`
			BasePrice      float64 `json:"basePrice"`
			LocalizedPrice float64 `json:"localizedPrice"`
			Currency       string  `json:"currency"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "GB", data.Country)
	assert.Equal(t, "GBP", data.Currency)
	require.Len(t, data.Products, 1)
	assert.Equal(t, 149.99, data.Products[0].BasePrice)
	assert.Equal(t, 118.49, data.Products[0].LocalizedPrice)
	assert.Equal(t, "GBP", data.Products[0].Currency)
}

func TestLocalizedPricesValidation(t *testing.T) {
	r := productsRouter(stubCatalog{}, stubProvider{})
	cases := map[string]string{
		`{}`:                "country is required",
		`{"country":"GBR"}`: "country must be a 2-character ISO country code",
		`{"country":`:       "invalid json",
	}
	for body, msg := range cases {
		rec, env := do(t, r, http.MethodPost, "/api/price", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, msg, env.Error, body)
	}
}

func TestLocalizedPricesRateServiceDown(t *testing.T) {
	r := productsRouter(stubCatalog{products: []catalog.Product{headphones}}, stubProvider{err: errors.New("timeout")})
	rec, env := do(t, r, http.MethodPost, "/api/price", `{"country":"IN"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Exchange Rate Service is currently unavailable", env.Error)
}

func TestLocalizedPricesUnmappedCountryUsesUSD(t *testing.T) {
	r := productsRouter(stubCatalog{products: []catalog.Product{headphones}}, stubProvider{err: errors.New("never called")})
	rec, env := do(t, r, http.MethodPost, "/api/price", `{"country":"ZZ"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"currency":"USD"`)
	assert.Contains(t, string(env.Data), `"localizedPrice":149.99`)
}

type stubCheckout struct {
	gotProduct, gotCurrency, gotCountry string
	sess                                checkout.Session
	err                                 error
}

func (s *stubCheckout) CreateSession(ctx context.Context, productID, cur, country string) (checkout.Session, error) {
	s.gotProduct, s.gotCurrency, s.gotCountry = productID, cur, country
	return s.sess, s.err
}

type stubWebhooks struct {
	payload   []byte
	signature string
	err       error
}

func (s *stubWebhooks) Handle(ctx context.Context, payload []byte, signature string) error {
	s.payload, s.signature = payload, signature
	return s.err
}

func checkoutRouter(c *stubCheckout, wh *stubWebhooks) *chi.Mux {
	return NewRouter(logging.Discard(), "test", &CheckoutHandler{Checkout: c, Webhooks: wh, Log: logging.Discard()})
}

func TestCreateCheckoutSession(t *testing.T) {
	c := &stubCheckout{sess: checkout.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	rec, env := do(t, checkoutRouter(c, &stubWebhooks{}), http.MethodPost, "/api/create-checkout-session",
		`{"productId":" p-1 ","currency":"inr","country":"IN"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionId":"cs_test_1","sessionUrl":"https://checkout.stripe.com/c/pay/cs_test_1"}`, string(env.Data))
	assert.Equal(t, "p-1", c.gotProduct)
	assert.Equal(t, "inr", c.gotCurrency)
	assert.Equal(t, "IN", c.gotCountry)
}

func TestCreateCheckoutSessionErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
		msg  string
	}{
		{"missing product", `{"currency":"USD","country":"US"}`, nil, 400, "Product ID is required"},
		{"missing currency", `{"productId":"p-1","country":"US"}`, nil, 400, "Currency is required"},
		{"missing country", `{"productId":"p-1","currency":"USD"}`, nil, 400, "Country is required"},
		{"not found", `{"productId":"p-9","currency":"USD","country":"US"}`, apperr.NotFound("Product"), 404, "Product not found"},
		{"unsupported", `{"productId":"p-1","currency":"EUR","country":"DE"}`, apperr.Validation("Currency must be one of: USD, INR, GBP"), 400, "Currency must be one of: USD, INR, GBP"},
		{"provider", `{"productId":"p-1","currency":"USD","country":"US"}`, errors.New("stripe: api key invalid"), 500, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, checkoutRouter(&stubCheckout{err: tc.err}, &stubWebhooks{}), http.MethodPost, "/api/create-checkout-session", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.msg, env.Error)
			assert.Equal(t, tc.code, env.StatusCode)
		})
	}
}

func TestWebhookPassesRawBody(t *testing.T) {
	wh := &stubWebhooks{}
	payload := `{"id":"evt_1",  "type":"checkout.session.completed"}`
	rec, _ := do(t, checkoutRouter(&stubCheckout{}, wh), http.MethodPost, "/api/webhook", payload,
		"Stripe-Signature", "t=1,v1=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, payload, string(wh.payload))
	assert.Equal(t, "t=1,v1=abc", wh.signature)
}

func TestWebhookErrors(t *testing.T) {
	rec, env := do(t, checkoutRouter(&stubCheckout{}, &stubWebhooks{err: apperr.Validation("Invalid webhook signature")}),
		http.MethodPost, "/api/webhook", `{}`, "Stripe-Signature", "bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid webhook signature", env.Error)

	rec, _ = do(t, checkoutRouter(&stubCheckout{}, &stubWebhooks{err: errors.New("db down")}),
		http.MethodPost, "/api/webhook", `{}`, "Stripe-Signature", "t=1,v1=abc")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookBodyLimit(t *testing.T) {
	wh := &stubWebhooks{}
	rec, _ := do(t, checkoutRouter(&stubCheckout{}, wh), http.MethodPost, "/api/webhook",
		strings.Repeat("x", maxWebhookBody+1), "Stripe-Signature", "t=1,v1=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, wh.payload)
}

type stubOrders struct {
	order orders.Order
	err   error
	calls int
}

func (s *stubOrders) GetBySessionID(ctx context.Context, id string) (orders.Order, error) {
	s.calls++
	return s.order, s.err
}

func TestGetOrderCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st := &stubOrders{}
	r := NewRouter(logging.Discard(), "test", &OrdersHandler{Orders: st, Redis: db, Log: logging.Discard()})

	mock.ExpectGet("order_status:cs_1").SetVal(`{"session_id":"cs_1","status":"paid","amount":"118.49","currency":"GBP"}`)

	rec, env := do(t, r, http.MethodGet, "/api/orders/cs_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","status":"paid","amount":"118.49","currency":"GBP"}`, string(env.Data))
	assert.Zero(t, st.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderCacheMissFillsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	o := orders.Order{
		ID: "o-1", ProductID: "p-1", Amount: decimal.RequireFromString("20749.17"), Currency: "INR",
		SessionID: "cs_2", Status: orders.StatusPending, CustomerCountry: "IN",
	}
	st := &stubOrders{order: o}
	r := NewRouter(logging.Discard(), "test", &OrdersHandler{Orders: st, Redis: db, Log: logging.Discard()})

	b, err := json.Marshal(orders.PayloadFor(o))
	require.NoError(t, err)
	mock.ExpectGet("order_status:cs_2").RedisNil()
	mock.ExpectSetNX("order_status:cs_2", string(b), redisx.TTLStatusCache).SetVal(true)

	rec, env := do(t, r, http.MethodGet, "/api/orders/cs_2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionId":"cs_2","status":"pending","amount":"20749.17","currency":"INR"}`, string(env.Data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderNotFoundWithoutCache(t *testing.T) {
	r := NewRouter(logging.Discard(), "test", &OrdersHandler{Orders: &stubOrders{err: apperr.NotFound("Order")}, Log: logging.Discard()})
	rec, env := do(t, r, http.MethodGet, "/api/orders/cs_missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", env.Error)
}

type sessionRepo struct{ order orders.Order }

func (r *sessionRepo) Create(ctx context.Context, in orders.NewOrder) (orders.Order, error) {
	return orders.Order{}, errors.New("not used")
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, id string) (orders.Order, error) {
	if id != r.order.SessionID {
		return orders.Order{}, orders.ErrNotFound
	}
	return r.order, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, st orders.Status) (orders.Order, error) {
	r.order.Status = st
	return r.order, nil
}

func TestGetOrderSeesPaidAfterWebhook(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := &sessionRepo{order: orders.Order{
		ID: "o-1", ProductID: "p-1", Amount: decimal.RequireFromString("118.49"), Currency: "GBP",
		SessionID: "cs_3", Status: orders.StatusPending, CustomerCountry: "GB",
	}}
	svc := &orders.Service{Repo: repo, Cache: redisx.StatusCache{RDB: db}, Log: logging.Discard()}
	r := NewRouter(logging.Discard(), "test", &OrdersHandler{Orders: svc, Redis: db, Log: logging.Discard()})

	pending, err := json.Marshal(orders.PayloadFor(repo.order))
	require.NoError(t, err)
	mock.ExpectGet("order_status:cs_3").RedisNil()
	mock.ExpectSetNX("order_status:cs_3", string(pending), redisx.TTLStatusCache).SetVal(true)

	_, env := do(t, r, http.MethodGet, "/api/orders/cs_3", "")
	assert.Contains(t, string(env.Data), `"status":"pending"`)

	mock.ExpectDel("order_status:cs_3").SetVal(1)
	_, changed, err := svc.MarkPaid(context.Background(), "cs_3")
	require.NoError(t, err)
	require.True(t, changed)

	paid, err := json.Marshal(orders.PayloadFor(repo.order))
	require.NoError(t, err)
	mock.ExpectGet("order_status:cs_3").RedisNil()
	mock.ExpectSetNX("order_status:cs_3", string(paid), redisx.TTLStatusCache).SetVal(true)

	_, env = do(t, r, http.MethodGet, "/api/orders/cs_3", "")
	assert.Contains(t, string(env.Data), `"status":"paid"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderFillDoesNotOverwriteNewerStatus(t *testing.T) {
	db, mock := redismock.NewClientMock()
	o := orders.Order{ID: "o-1", SessionID: "cs_4", Status: orders.StatusPending, Amount: decimal.RequireFromString("59.99"), Currency: "USD"}
	r := NewRouter(logging.Discard(), "test", &OrdersHandler{Orders: &stubOrders{order: o}, Redis: db, Log: logging.Discard()})

	b, err := json.Marshal(orders.PayloadFor(o))
	require.NoError(t, err)
	mock.ExpectGet("order_status:cs_4").RedisNil()
	// projector wrote "paid" between the read and the fill
	mock.ExpectSetNX("order_status:cs_4", string(b), redisx.TTLStatusCache).SetVal(false)
	mock.ExpectGet("order_status:cs_4").SetVal(`{"session_id":"cs_4","status":"paid","amount":"59.99","currency":"USD"}`)

	do(t, r, http.MethodGet, "/api/orders/cs_4", "")
	_, env := do(t, r, http.MethodGet, "/api/orders/cs_4", "")
	assert.Contains(t, string(env.Data), `"status":"paid"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
