package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentme-pricing/internal/app/bootstrap"
	pricingapp "rentme-pricing/internal/app/handlers/pricing"
	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/settlement"
	"rentme-pricing/internal/domain/shared/daterange"
	"rentme-pricing/internal/infra/obs"
	"rentme-pricing/internal/infra/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()
	listings := memory.NewListingRepository()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:       "villa",
		BrokerID: "broker-1",
		Pricing: domainpricing.Context{
			Model:       domainpricing.ModelPerNight,
			BasePrice:   10000,
			CleaningFee: 2500,
			Currency:    "EUR",
			MaxGuests:   4,
			Rules: []domainpricing.Rule{{
				ID: "peak", Name: "Peak", Multiplier: 120, Active: true,
				StartDate: daterange.MustParseDate("2025-08-02"), EndDate: daterange.MustParseDate("2025-08-03"),
			}},
		},
		Extras: []costs.Definition{{Code: "breakfast", Label: "Breakfast", Amount: 1200, Per: costs.PerNightPerGuest}},
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(ctx, listing))

	settings := memory.NewSettingsStore()
	require.NoError(t, settings.Put(ctx, settlement.BrokerSettings{
		BrokerID:           "broker-1",
		PlatformFeePercent: decimal.NewFromInt(10),
		WithholdingPercent: decimal.NewFromInt(21),
	}))

	buses := bootstrap.NewBuses(bootstrap.Deps{
		UoWFactory:  memory.Factory{ListingsRepo: listings, PeriodsRepo: memory.NewPeriodRepository()},
		Outbox:      memory.NewOutbox(),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Settings:    settlement.Defaults{Store: settings},
	})
	metrics := obs.NewMetrics()
	return NewRouter(obs.Middleware{Metrics: metrics}, obs.HealthHandlers{}, Handlers{
		Pricing: PricingHandler{Queries: buses.Queries, Commands: buses.Commands},
		Periods: PeriodsHandler{Queries: buses.Queries, Commands: buses.Commands},
		Metrics: metrics.Handler(),
	})
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestQuoteEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/v1/listings/villa/quote?check_in=2025-08-01&check_out=2025-08-04&guests=2&extras=breakfast&markup=-10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, 40880.0, breakdown["total"])
	assert.Equal(t, 48080.0, body["total"])
	assert.Equal(t, 4380.0, body["service_fee"])
	channel := body["channel"].(map[string]any)["breakdown"].(map[string]any)
	assert.Equal(t, 30600.0, channel["base_total"])
	split := body["split"].(map[string]any)
	assert.Equal(t, 43700.0, split["guest_total"])
}

func TestQuoteEndpointErrors(t *testing.T) {
	r := newTestRouter(t)
	cases := map[string]int{
		"/api/v1/listings/villa/quote?check_in=bad":                                          http.StatusBadRequest,
		"/api/v1/listings/villa/quote?check_in=2025-08-01&check_out=2025-08-04&guests=x":     http.StatusBadRequest,
		"/api/v1/listings/villa/quote?check_in=2025-08-01&check_out=2025-08-04&guests=5":     http.StatusBadRequest,
		"/api/v1/listings/villa/quote?check_in=2025-08-01&check_out=2025-08-04&markup=100.5": http.StatusBadRequest,
		"/api/v1/listings/villa/quote?check_in=2025-08-04&check_out=2025-08-01":              http.StatusBadRequest,
		"/api/v1/listings/ghost/quote?check_in=2025-08-01&check_out=2025-08-04":              http.StatusNotFound,
	}
	for path, want := range cases {
		rec := do(r, http.MethodGet, path, "")
		assert.Equal(t, want, rec.Code, path+" "+rec.Body.String())
		assert.Contains(t, decode(t, rec), "error")
	}
}

func TestPeriodEndpoints(t *testing.T) {
	r := newTestRouter(t)
	base := "/api/v1/host/listings/villa/pricing-periods"

	rec := do(r, http.MethodPost, base, `{"id":"jan","start_date":"2025-01-01","end_date":"2025-01-31","price":9000,"label":"January"}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1.0, decode(t, rec)["version"])

	rec = do(r, http.MethodPost, base, `{"id":"jan","start_date":"2025-01-01","end_date":"2025-01-31","price":9000,"label":"January"}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["version"], "replayed")

	rec = do(r, http.MethodPost, base+"?dry_run=true", `{"start_date":"2025-01-10","end_date":"2025-01-20","percentage":"25"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dry := decode(t, rec)
	assert.Equal(t, true, dry["dry_run"])
	assert.Len(t, dry["periods"], 3)

	rec = do(r, http.MethodPost, base, `{"start_date":"2025-01-10","end_date":"2025-01-20","price":1,"expected_version":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, base, `{"start_date":"2025-01-10","end_date":"2025-01-20"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, base, `{"start_date":"not-a-date"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["periods"], 1)

	rec = do(r, http.MethodDelete, base+"/jan?expected_version=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2.0, decode(t, rec)["version"])

	rec = do(r, http.MethodDelete, base+"/jan", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarRulesAndPayoutEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPut, "/api/v1/host/listings/villa/pricing-rules",
		`{"rules":[{"id":"w","name":"Winter","start_date":"2025-02-01","end_date":"2025-02-02","multiplier":50,"priority":1,"active":true}],"expected_version":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPut, "/api/v1/host/listings/villa/pricing-rules", `{"rules":[],"expected_version":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/listings/villa/price-calendar?from=2025-01-31&to=2025-02-02", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	days := decode(t, rec)["days"].([]any)
	require.Len(t, days, 3)
	assert.Equal(t, 10000.0, days[0].(map[string]any)["price"])
	assert.Equal(t, 5000.0, days[1].(map[string]any)["price"])
	assert.Equal(t, "2025-02-01", days[1].(map[string]any)["date"])

	rec = do(r, http.MethodGet, "/api/v1/listings/villa/price-calendar?from=2025-01-01&to=2026-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/payouts/split", `{"broker_id":"broker-1","nightly":80000,"additional_costs":10000,"extras":5000,"city_tax":3000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 70100.0, decode(t, rec)["split"].(map[string]any)["host_payout"])

	rec = do(r, http.MethodPost, "/api/v1/payouts/split", `{"nightly":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/listings/villa/costs/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	extras := decode(t, rec)["extras"].([]any)
	assert.Equal(t, "12.00 EUR per night per guest", extras[0].(map[string]any)["detail"])
	assert.Equal(t, "extra", extras[0].(map[string]any)["category"])
}

func TestOperationalEndpoints(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", "").Code)

	do(r, http.MethodGet, "/api/v1/listings/villa/costs/preview", "")
	rec := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pricing_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(pricingapp.ErrCannotPrice))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
