package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	cardsimhttp "github.com/movesion/cardsim/adapters/http"
	"github.com/movesion/cardsim/adapters/metrics"
	"github.com/movesion/cardsim/app"
	"github.com/movesion/cardsim/domain/plan"
	"github.com/movesion/cardsim/domain/tier"
	"github.com/movesion/cardsim/ports"
)

type stubPlanProvider struct{ p plan.Plan }

func (s stubPlanProvider) Plan() plan.Plan { return s.p }

type stubClock struct{ t time.Time }

func (c *stubClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type stubIDs struct{ n int }

func (g *stubIDs) New() string {
	g.n++
	return string(rune('a' + g.n - 1))
}

type memPresetStore struct {
	presets map[string]ports.Preset
}

func newMemPresetStore() *memPresetStore {
	return &memPresetStore{presets: map[string]ports.Preset{}}
}

func (s *memPresetStore) List(ctx context.Context) ([]ports.Preset, error) {
	out := make([]ports.Preset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memPresetStore) Get(ctx context.Context, name string) (ports.Preset, error) {
	p, ok := s.presets[name]
	if !ok {
		return ports.Preset{}, ports.ErrNotFound
	}
	return p, nil
}

func (s *memPresetStore) Put(ctx context.Context, p ports.Preset) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.presets[p.Name] = p
	return nil
}

func (s *memPresetStore) Delete(ctx context.Context, name string) error {
	if _, ok := s.presets[name]; !ok {
		return ports.ErrNotFound
	}
	delete(s.presets, name)
	return nil
}

func testPlan() plan.Plan {
	unbounded := func(price float64) []tier.Tier {
		return []tier.Tier{{UpTo: nil, Price: price}}
	}
	return plan.Plan{
		ID:       "test_plan",
		Currency: "EUR",
		FixedMonthly: []plan.FixedMonthlyFee{
			{Key: "program_maintenance", Label: "Program maintenance", Amount: 2495.0, Mandatory: true},
		},
		TieredMonthly: map[string]plan.TieredPricing{
			plan.MetricActiveCards:       {Unit: "card", Tiers: unbounded(0.95)},
			plan.MetricAuthorizationsEEA: {Unit: "authorization", Tiers: unbounded(0.010)},
			plan.MetricAuthorizationsNon: {Unit: "authorization", Tiers: unbounded(0.030)},
			plan.MetricThreeDS:           {Unit: "attempt", Tiers: unbounded(0.020)},
		},
		EventFees: []plan.EventFee{
			{Key: plan.EventCardIssue, Label: "Card issuance", Amount: 0.50, Mandatory: true},
		},
		PhysicalDelivery: plan.PhysicalDelivery{
			DefaultMethod: "dhl_tracked",
			Methods: []plan.DeliveryMethod{
				{Key: "dhl_tracked", Label: "DHL tracked", Price: 4.50},
			},
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	m := metrics.NewWithRegistry(nil)

	sim := app.NewSimulatorService(
		stubPlanProvider{p: testPlan()},
		&stubClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		&stubIDs{},
		logger,
		120,
	)
	presets := app.NewPresetService(newMemPresetStore(), &stubClock{t: time.Now()}, logger)

	return cardsimhttp.NewRouter(
		cardsimhttp.NewSimulationHandler(sim, logger, m),
		cardsimhttp.NewPricingHandler(stubPlanProvider{p: testPlan()}, logger),
		cardsimhttp.NewPresetHandler(presets, logger, m),
		logger,
	)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rr.Body.String())
	}
}

func validScenario() map[string]any {
	return map[string]any{
		"name":           "Base",
		"horizon_months": 12,
		"adoption":       map[string]any{"start_active_cards": 3000},
		"usage":          map[string]any{"spend_per_active_card_month": 200},
	}
}

func TestRunEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/run",
		map[string]any{"scenario": validScenario()})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var out struct {
		RunID string `json:"run_id"`
		Rows  []any  `json:"rows"`
		KPIs  struct {
			TotalProfit float64 `json:"total_profit"`
		} `json:"kpis"`
	}
	decode(t, rr, &out)

	if out.RunID == "" {
		t.Error("run_id is empty")
	}
	if len(out.Rows) != 12 {
		t.Errorf("len(rows) = %d, want 12", len(out.Rows))
	}
}

func TestRunEndpoint_InvalidScenario(t *testing.T) {
	h := newTestRouter(t)

	sc := validScenario()
	delete(sc, "horizon_months")

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/run",
		map[string]any{"scenario": sc})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var out cardsimhttp.ErrorResponseBody
	decode(t, rr, &out)
	if out.Error.Code != "invalid_scenario" {
		t.Errorf("error code = %s, want invalid_scenario", out.Error.Code)
	}
	if len(out.Error.Violations) == 0 {
		t.Error("expected field violations in the error body")
	}
}

func TestRunEndpoint_MalformedBody(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulation/run",
		strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	h := newTestRouter(t)

	lean := validScenario()
	rich := validScenario()
	rich["name"] = "Rich"
	rich["commercial"] = map[string]any{
		"b2b": map[string]any{"employee_fee_month": 10},
	}

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/compare",
		map[string]any{"scenarios": []any{lean, rich}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var out struct {
		Results    []any `json:"results"`
		Comparison struct {
			BestByProfit string `json:"best_by_profit"`
		} `json:"comparison"`
	}
	decode(t, rr, &out)

	if len(out.Results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(out.Results))
	}
	if out.Comparison.BestByProfit != "Rich" {
		t.Errorf("best_by_profit = %s, want Rich", out.Comparison.BestByProfit)
	}
}

func TestCompareEndpoint_Empty(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/compare",
		map[string]any{"scenarios": []any{}})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSensitivityEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost,
		"/api/v1/simulation/sensitivity/spend_per_active_card_month?min_value=100&max_value=300&steps=3",
		map[string]any{"scenario": validScenario()})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var out struct {
		Summary struct {
			Parameter string    `json:"parameter"`
			Values    []float64 `json:"values"`
		} `json:"summary"`
	}
	decode(t, rr, &out)

	if out.Summary.Parameter != "spend_per_active_card_month" {
		t.Errorf("parameter = %s", out.Summary.Parameter)
	}
	want := []float64{100, 200, 300}
	if len(out.Summary.Values) != len(want) {
		t.Fatalf("values = %v, want %v", out.Summary.Values, want)
	}
	for i := range want {
		if out.Summary.Values[i] != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, out.Summary.Values[i], want[i])
		}
	}
}

func TestSensitivityEndpoint_Unsupported(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/sensitivity/moon_phase",
		map[string]any{"scenario": validScenario()})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var out cardsimhttp.ErrorResponseBody
	decode(t, rr, &out)
	if out.Error.Code != "unsupported_parameter" {
		t.Errorf("error code = %s, want unsupported_parameter", out.Error.Code)
	}
}

func TestSensitivityEndpoint_BadQuery(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/simulation/sensitivity/churn_rate?steps=lots",
		map[string]any{"scenario": validScenario()})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/api/v1/simulation/export/json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var out struct {
		Format   string         `json:"format"`
		Template map[string]any `json:"template"`
	}
	decode(t, rr, &out)
	if out.Format != "json" {
		t.Errorf("format = %s, want json", out.Format)
	}
	if out.Template == nil {
		t.Error("template is missing")
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/simulation/export/xml", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unsupported format status = %d, want 400", rr.Code)
	}
}

func TestPricingPlanEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/api/v1/pricing/plan", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var out struct {
		ID       string `json:"id"`
		Currency string `json:"currency"`
	}
	decode(t, rr, &out)
	if out.ID != "test_plan" || out.Currency != "EUR" {
		t.Errorf("plan = %s / %s", out.ID, out.Currency)
	}
}

func TestPricingTiersEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/api/v1/pricing/tiers/active_cards", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/pricing/tiers/unknown_metric", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown metric status = %d, want 404", rr.Code)
	}
	var out cardsimhttp.ErrorResponseBody
	decode(t, rr, &out)
	if !strings.Contains(out.Error.Message, "active_cards") {
		t.Errorf("404 message should list available metrics, got %q", out.Error.Message)
	}
}

func TestPresetEndpoints(t *testing.T) {
	h := newTestRouter(t)

	put := map[string]any{
		"description": "small pilot",
		"scenario":    validScenario(),
	}
	rr := doJSON(t, h, http.MethodPut, "/api/v1/pricing/presets/pilot", put)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/pricing/presets/pilot", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var got struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	decode(t, rr, &got)
	if got.Name != "pilot" || got.Description != "small pilot" {
		t.Errorf("preset = %q / %q", got.Name, got.Description)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/pricing/presets", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var all []any
	decode(t, rr, &all)
	if len(all) != 1 {
		t.Errorf("len(list) = %d, want 1", len(all))
	}

	rr = doJSON(t, h, http.MethodDelete, "/api/v1/pricing/presets/pilot", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/pricing/presets/pilot", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rr := doJSON(t, h, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}

	rr := doJSON(t, h, http.MethodGet, "/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("version status = %d", rr.Code)
	}
	var v cardsimhttp.VersionResponse
	decode(t, rr, &v)
	if v.Service != "cardsim" {
		t.Errorf("service = %s, want cardsim", v.Service)
	}
}
