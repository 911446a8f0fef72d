package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/movesion/cardsim/adapters/metrics"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.RequestsInFlight == nil {
		t.Error("RequestsInFlight is nil")
	}
	if m.SimulationsTotal == nil {
		t.Error("SimulationsTotal is nil")
	}
	if m.SimulationDuration == nil {
		t.Error("SimulationDuration is nil")
	}
	if m.FeeSolvesTotal == nil {
		t.Error("FeeSolvesTotal is nil")
	}
	if m.PlanReloads == nil {
		t.Error("PlanReloads is nil")
	}
	if m.PresetOps == nil {
		t.Error("PresetOps is nil")
	}
}

func TestRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	// Record some requests
	m.RequestsTotal.WithLabelValues("POST", "/api/v1/simulation/run", "2xx").Inc()
	m.RequestsTotal.WithLabelValues("GET", "/api/v1/pricing/plan", "4xx").Add(5)

	// Verify metrics were gathered
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "cardsim_requests_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("cardsim_requests_total metric not found")
	}
}

func TestSimulationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.SimulationsTotal.WithLabelValues("given", "ok").Inc()
	m.SimulationsTotal.WithLabelValues("solve_employee_fee", "ok").Inc()
	m.SimulationsTotal.WithLabelValues("given", "invalid").Inc()
	m.SimulationDuration.WithLabelValues("given").Observe(0.002)
	m.SimulationMonths.Observe(36)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundTotal := false
	foundDuration := false
	for _, f := range families {
		if f.GetName() == "cardsim_simulations_total" {
			foundTotal = true
			if len(f.GetMetric()) != 3 {
				t.Errorf("expected 3 metric series, got %d", len(f.GetMetric()))
			}
		}
		if f.GetName() == "cardsim_simulation_duration_seconds" {
			foundDuration = true
		}
	}
	if !foundTotal {
		t.Error("cardsim_simulations_total metric not found")
	}
	if !foundDuration {
		t.Error("cardsim_simulation_duration_seconds metric not found")
	}
}

func TestFeeSolvesTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.FeeSolvesTotal.WithLabelValues("breakeven").Inc()
	m.FeeSolvesTotal.WithLabelValues("profit").Add(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "cardsim_fee_solves_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("cardsim_fee_solves_total metric not found")
	}
}

func TestPlanReloads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.PlanReloads.Inc()
	m.PlanLastReload.SetToCurrentTime()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundReloads := false
	foundLastReload := false
	for _, f := range families {
		if f.GetName() == "cardsim_plan_reloads_total" {
			foundReloads = true
		}
		if f.GetName() == "cardsim_plan_last_reload_timestamp" {
			foundLastReload = true
		}
	}
	if !foundReloads {
		t.Error("cardsim_plan_reloads_total metric not found")
	}
	if !foundLastReload {
		t.Error("cardsim_plan_last_reload_timestamp metric not found")
	}
}

func TestRequestsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	// Simulate requests in flight
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "cardsim_requests_in_flight" {
			found = true
			if len(f.GetMetric()) != 1 {
				t.Errorf("expected 1 metric, got %d", len(f.GetMetric()))
			}
			// Value should be 1 (2 inc - 1 dec)
			val := f.GetMetric()[0].GetGauge().GetValue()
			if val != 1 {
				t.Errorf("expected value 1, got %f", val)
			}
		}
	}
	if !found {
		t.Error("cardsim_requests_in_flight metric not found")
	}
}
