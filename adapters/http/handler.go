// Package http provides HTTP handlers for the simulator service.
package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/adapters/metrics"
	"github.com/movesion/cardsim/app"
	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/domain/simulation"
	"github.com/movesion/cardsim/ports"
)

// ErrorResponseBody is the envelope for all error responses.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable error code and, for validation
// failures, the field-level violations.
type ErrorDetail struct {
	Code       string               `json:"code"`
	Message    string               `json:"message"`
	Violations []scenario.Violation `json:"violations,omitempty"`
}

// VersionResponse is the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// SimulationHandler serves the simulation endpoints.
type SimulationHandler struct {
	sim     *app.SimulatorService
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(sim *app.SimulatorService, logger zerolog.Logger, m *metrics.Collector) *SimulationHandler {
	return &SimulationHandler{sim: sim, logger: logger, metrics: m}
}

type runRequest struct {
	Scenario scenario.Scenario `json:"scenario"`
}

type compareRequest struct {
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// Run executes one simulation.
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	mode := req.Scenario.Commercial.B2B.Mode
	if mode == "" {
		mode = scenario.ModeGiven
	}

	start := time.Now()
	out, err := h.sim.Run(r.Context(), req.Scenario)
	if err != nil {
		h.recordSimulation(mode, err)
		writeSimulationError(w, err)
		return
	}
	h.recordSimulation(mode, nil)
	if h.metrics != nil {
		h.metrics.SimulationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		h.metrics.SimulationMonths.Observe(float64(len(out.Rows)))
		if out.KPIs.RequiredEmployeeFeeMonth != nil {
			target := req.Scenario.Commercial.B2B.Target.Type
			if target == "" {
				target = scenario.TargetBreakeven
			}
			h.metrics.FeeSolvesTotal.WithLabelValues(target).Inc()
		}
	}

	writeJSON(w, http.StatusOK, out)
}

// Compare runs several scenarios and summarizes them side by side.
func (h *SimulationHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if len(req.Scenarios) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "at least one scenario is required")
		return
	}

	out, err := h.sim.Compare(r.Context(), req.Scenarios)
	if err != nil {
		writeSimulationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// Sensitivity sweeps one parameter across a value range.
func (h *SimulationHandler) Sensitivity(w http.ResponseWriter, r *http.Request) {
	parameter := chi.URLParam(r, "parameter")

	minValue, err := queryFloat(r, "min_value", 0.0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	maxValue, err := queryFloat(r, "max_value", 1.0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	steps, err := queryInt(r, "steps", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	out, err := h.sim.Sensitivity(r.Context(), parameter, req.Scenario, minValue, maxValue, steps)
	if err != nil {
		var uerr *app.UnsupportedParameterError
		if errors.As(err, &uerr) {
			writeError(w, http.StatusBadRequest, "unsupported_parameter", uerr.Error())
			return
		}
		writeSimulationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// Template returns a starter scenario derived from the current pricing plan.
func (h *SimulationHandler) Template(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"template": h.sim.Template(),
	})
}

// ExportTemplate returns the starter scenario in a named format.
func (h *SimulationHandler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != "json" && format != "csv_template" {
		writeError(w, http.StatusBadRequest, "bad_request",
			"unsupported format: "+format+" (supported: json, csv_template)")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"format":   format,
		"template": h.sim.Template(),
	})
}

func (h *SimulationHandler) recordSimulation(mode string, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		var verr *simulation.ValidationError
		if errors.As(err, &verr) {
			status = "invalid"
		}
	}
	h.metrics.SimulationsTotal.WithLabelValues(mode, status).Inc()
}

// PricingHandler serves read-only pricing plan endpoints.
type PricingHandler struct {
	plans  ports.PlanProvider
	logger zerolog.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(plans ports.PlanProvider, logger zerolog.Logger) *PricingHandler {
	return &PricingHandler{plans: plans, logger: logger}
}

// Plan returns the complete pricing plan.
func (h *PricingHandler) Plan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.plans.Plan())
}

// Tiers returns the tier schedule for one metric.
func (h *PricingHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	p := h.plans.Plan()
	tp, ok := p.TieredMonthly[metric]
	if !ok {
		available := make([]string, 0, len(p.TieredMonthly))
		for k := range p.TieredMonthly {
			available = append(available, k)
		}
		sort.Strings(available)
		writeError(w, http.StatusNotFound, "not_found",
			"metric not found: "+metric+" (available: "+strings.Join(available, ", ")+")")
		return
	}

	writeJSON(w, http.StatusOK, tp)
}

// FixedFees returns the fixed monthly fees.
func (h *PricingHandler) FixedFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.plans.Plan().FixedMonthly)
}

// EventFees returns the per-event fees.
func (h *PricingHandler) EventFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.plans.Plan().EventFees)
}

// OneOffFees returns the one-time fees.
func (h *PricingHandler) OneOffFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.plans.Plan().OneOffs)
}

// PresetHandler serves scenario preset CRUD endpoints.
type PresetHandler struct {
	presets *app.PresetService
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewPresetHandler creates a new preset handler.
func NewPresetHandler(presets *app.PresetService, logger zerolog.Logger, m *metrics.Collector) *PresetHandler {
	return &PresetHandler{presets: presets, logger: logger, metrics: m}
}

type presetResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scenario    scenario.Scenario `json:"scenario"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type presetPutRequest struct {
	Description string            `json:"description"`
	Scenario    scenario.Scenario `json:"scenario"`
}

func toPresetResponse(p ports.Preset) presetResponse {
	return presetResponse{
		Name:        p.Name,
		Description: p.Description,
		Scenario:    p.Scenario,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// List returns all presets.
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.presets.List(r.Context())
	if err != nil {
		h.recordOp("list", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.recordOp("list", nil)

	out := make([]presetResponse, 0, len(all))
	for _, p := range all {
		out = append(out, toPresetResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one preset by name.
func (h *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	p, err := h.presets.Get(r.Context(), name)
	if err != nil {
		h.recordOp("get", err)
		writePresetError(w, name, err)
		return
	}
	h.recordOp("get", nil)

	writeJSON(w, http.StatusOK, toPresetResponse(p))
}

// Put stores or replaces a preset.
func (h *PresetHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req presetPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	p, err := h.presets.Save(r.Context(), name, req.Description, req.Scenario)
	if err != nil {
		h.recordOp("put", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.recordOp("put", nil)

	writeJSON(w, http.StatusOK, toPresetResponse(p))
}

// Delete removes a preset.
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.presets.Delete(r.Context(), name); err != nil {
		h.recordOp("delete", err)
		writePresetError(w, name, err)
		return
	}
	h.recordOp("delete", nil)

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresetHandler) recordOp(op string, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, ports.ErrNotFound) {
			status = "not_found"
		}
	}
	h.metrics.PresetOps.WithLabelValues(op, status).Inc()
}

func writePresetError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "preset not found: "+name)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// Health returns a simple liveness check.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version returns the service version.
func Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: "dev",
		Service: "cardsim",
	})
}

// writeSimulationError maps simulation failures to HTTP errors. Validation
// failures become 400s carrying the field violations.
func writeSimulationError(w http.ResponseWriter, err error) {
	var verr *simulation.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponseBody{
			Error: ErrorDetail{
				Code:       "invalid_scenario",
				Message:    err.Error(),
				Violations: verr.Result.Violations,
			},
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "simulation_error", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already gone, so an encode failure cannot be
	// reported to the client anymore.
	_ = json.NewEncoder(w).Encode(v)
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}
