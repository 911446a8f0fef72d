// Package app contains application services that orchestrate domain logic.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/domain/simulation"
	"github.com/movesion/cardsim/ports"
)

// SimulatorService runs projections against the current pricing plan.
type SimulatorService struct {
	plans          ports.PlanProvider
	clock          ports.Clock
	ids            ports.IDGenerator
	logger         zerolog.Logger
	maxHorizon     int
	defaultHorizon int
}

// NewSimulatorService creates a new simulator service.
func NewSimulatorService(plans ports.PlanProvider, clock ports.Clock, ids ports.IDGenerator, logger zerolog.Logger, maxHorizon int) *SimulatorService {
	return &SimulatorService{
		plans:      plans,
		clock:      clock,
		ids:        ids,
		logger:     logger,
		maxHorizon: maxHorizon,
	}
}

// SetDefaultHorizon sets the horizon used when building template scenarios.
// Zero or negative values keep the built-in default.
func (s *SimulatorService) SetDefaultHorizon(months int) {
	s.defaultHorizon = months
}

// RunResult is a simulation result with run metadata attached.
type RunResult struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	DurationMs  float64   `json:"duration_ms"`
	simulation.Result
}

// Run executes one simulation.
func (s *SimulatorService) Run(ctx context.Context, sc scenario.Scenario) (RunResult, error) {
	start := s.clock.Now()

	engine := simulation.NewWithMaxHorizon(s.plans.Plan(), s.maxHorizon)
	result, err := engine.Simulate(sc)
	if err != nil {
		return RunResult{}, err
	}

	elapsed := s.clock.Now().Sub(start)
	out := RunResult{
		RunID:       s.ids.New(),
		GeneratedAt: start,
		DurationMs:  float64(elapsed.Microseconds()) / 1000.0,
		Result:      result,
	}

	s.logger.Info().
		Str("run_id", out.RunID).
		Str("scenario", result.ScenarioName).
		Str("plan", result.PricingPlanID).
		Int("months", len(result.Rows)).
		Dur("elapsed", elapsed).
		Msg("simulation run completed")

	return out, nil
}

// Comparison summarizes a set of simulation results side by side.
type Comparison struct {
	Scenarios           []string   `json:"scenarios"`
	BreakevenMonths     []*int     `json:"breakeven_months"`
	ProfitYear1         []float64  `json:"profit_year1"`
	TotalProfit         []float64  `json:"total_profit"`
	RequiredEmployeeFee []*float64 `json:"required_employee_fee"`
	ROIPercent          []*float64 `json:"roi_percent"`
	BestByProfit        string     `json:"best_by_profit"`
	FastestBreakeven    *string    `json:"fastest_breakeven"`
}

// CompareResult bundles individual results with their comparison summary.
type CompareResult struct {
	Results    []RunResult `json:"results"`
	Comparison Comparison  `json:"comparison"`
}

// Compare runs every scenario and derives a comparison summary.
func (s *SimulatorService) Compare(ctx context.Context, scenarios []scenario.Scenario) (CompareResult, error) {
	if len(scenarios) == 0 {
		return CompareResult{}, fmt.Errorf("no scenarios to compare")
	}

	results := make([]RunResult, 0, len(scenarios))
	for i, sc := range scenarios {
		r, err := s.Run(ctx, sc)
		if err != nil {
			return CompareResult{}, fmt.Errorf("scenario %d: %w", i, err)
		}
		results = append(results, r)
	}

	cmp := Comparison{FastestBreakeven: nil}
	bestProfitIdx := 0
	fastestIdx := -1
	for i, r := range results {
		k := r.KPIs
		cmp.Scenarios = append(cmp.Scenarios, r.ScenarioName)
		cmp.BreakevenMonths = append(cmp.BreakevenMonths, k.BreakevenMonth)
		cmp.ProfitYear1 = append(cmp.ProfitYear1, k.ProfitYear1)
		cmp.TotalProfit = append(cmp.TotalProfit, k.TotalProfit)
		cmp.RequiredEmployeeFee = append(cmp.RequiredEmployeeFee, k.RequiredEmployeeFeeMonth)
		cmp.ROIPercent = append(cmp.ROIPercent, k.ROIPercent)

		if k.TotalProfit > results[bestProfitIdx].KPIs.TotalProfit {
			bestProfitIdx = i
		}
		if k.BreakevenMonth != nil {
			if fastestIdx < 0 || *k.BreakevenMonth < *results[fastestIdx].KPIs.BreakevenMonth {
				fastestIdx = i
			}
		}
	}
	cmp.BestByProfit = results[bestProfitIdx].ScenarioName
	if fastestIdx >= 0 {
		name := results[fastestIdx].ScenarioName
		cmp.FastestBreakeven = &name
	}

	return CompareResult{Results: results, Comparison: cmp}, nil
}

// UnsupportedParameterError is returned by Sensitivity for parameters it
// cannot vary.
type UnsupportedParameterError struct {
	Parameter string
	Supported []string
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("unsupported parameter %q (supported: %v)", e.Parameter, e.Supported)
}

// sensitivitySetters maps parameter names to functions that set the value on
// a scenario copy. Setters assign fresh pointers so the caller's scenario is
// never touched.
var sensitivitySetters = map[string]func(*scenario.Scenario, float64){
	"in_app_share":                func(sc *scenario.Scenario, v float64) { sc.Usage.InAppShare = &v },
	"ecom_share":                  func(sc *scenario.Scenario, v float64) { sc.Usage.EcomShare = &v },
	"avg_ticket":                  func(sc *scenario.Scenario, v float64) { sc.Usage.AvgTicket = &v },
	"physical_share_issued":       func(sc *scenario.Scenario, v float64) { sc.Issuance.PhysicalShareIssued = v },
	"partner_fee_pct":             func(sc *scenario.Scenario, v float64) { sc.Commercial.PartnerFeePct = &v },
	"interchange_pct":             func(sc *scenario.Scenario, v float64) { sc.Commercial.InterchangePct = &v },
	"churn_rate":                  func(sc *scenario.Scenario, v float64) { sc.Adoption.ChurnRate = v },
	"start_active_cards":          func(sc *scenario.Scenario, v float64) { sc.Adoption.StartActiveCards = &v },
	"monthly_net_adds":            func(sc *scenario.Scenario, v float64) { sc.Adoption.MonthlyNetAdds = v },
	"spend_per_active_card_month": func(sc *scenario.Scenario, v float64) { sc.Usage.SpendPerActiveCardMonth = &v },
}

// SupportedSensitivityParameters lists the parameters Sensitivity accepts,
// sorted for stable output.
func SupportedSensitivityParameters() []string {
	params := make([]string, 0, len(sensitivitySetters))
	for p := range sensitivitySetters {
		params = append(params, p)
	}
	sort.Strings(params)
	return params
}

// SensitivityPoint is one run of a sensitivity sweep.
type SensitivityPoint struct {
	ParameterValue float64 `json:"parameter_value"`
	RunResult
}

// SensitivitySummary condenses a sweep into per-step KPI slices.
type SensitivitySummary struct {
	Parameter      string    `json:"parameter"`
	Values         []float64 `json:"values"`
	ProfitYear1    []float64 `json:"profit_year1"`
	TotalProfit    []float64 `json:"total_profit"`
	BreakevenMonth []*int    `json:"breakeven_month"`
}

// SensitivityResult bundles sweep results with their summary.
type SensitivityResult struct {
	Results []SensitivityPoint `json:"results"`
	Summary SensitivitySummary `json:"summary"`
}

// Sensitivity varies one parameter from minValue to maxValue over the given
// number of steps, running the scenario at each point.
func (s *SimulatorService) Sensitivity(ctx context.Context, parameter string, sc scenario.Scenario, minValue, maxValue float64, steps int) (SensitivityResult, error) {
	set, ok := sensitivitySetters[parameter]
	if !ok {
		return SensitivityResult{}, &UnsupportedParameterError{
			Parameter: parameter,
			Supported: SupportedSensitivityParameters(),
		}
	}
	if steps < 1 {
		return SensitivityResult{}, fmt.Errorf("steps must be >= 1, got %d", steps)
	}

	stepSize := 0.0
	if steps > 1 {
		stepSize = (maxValue - minValue) / float64(steps-1)
	}

	out := SensitivityResult{
		Summary: SensitivitySummary{Parameter: parameter},
	}
	for i := 0; i < steps; i++ {
		value := minValue + float64(i)*stepSize

		variant := sc
		set(&variant, value)

		r, err := s.Run(ctx, variant)
		if err != nil {
			return SensitivityResult{}, fmt.Errorf("step %d (%s=%v): %w", i, parameter, value, err)
		}

		out.Results = append(out.Results, SensitivityPoint{ParameterValue: value, RunResult: r})
		out.Summary.Values = append(out.Summary.Values, value)
		out.Summary.ProfitYear1 = append(out.Summary.ProfitYear1, r.KPIs.ProfitYear1)
		out.Summary.TotalProfit = append(out.Summary.TotalProfit, r.KPIs.TotalProfit)
		out.Summary.BreakevenMonth = append(out.Summary.BreakevenMonth, r.KPIs.BreakevenMonth)
	}

	return out, nil
}

// Template builds a starter scenario from the current pricing plan: every
// optional feature and event fee appears with its default toggle state.
func (s *SimulatorService) Template() scenario.Scenario {
	p := s.plans.Plan()

	features := map[string]bool{}
	for key, f := range p.OptionalFeatures {
		features[key] = f.EnabledByDefault
	}
	for _, fee := range p.FixedMonthly {
		if !fee.Mandatory {
			features[fee.Key] = fee.EnabledByDefault
		}
	}
	features["physical_manufacturing"] = p.PhysicalManufacturing.EnabledByDefault
	features["physical_delivery"] = p.PhysicalDelivery.EnabledByDefault

	eventFees := map[string]bool{}
	for _, fee := range p.EventFees {
		eventFees[fee.Key] = fee.Mandatory || fee.EnabledByDefault
	}

	horizon := 36
	if s.defaultHorizon > 0 {
		horizon = s.defaultHorizon
	}
	startCards := 3000.0
	spend := 200.0
	inApp := scenario.DefaultInAppShare
	ticket := scenario.DefaultAvgTicket
	ecom := scenario.DefaultEcomShare
	threeDS := scenario.DefaultThreeDSAttemptRate
	eea := scenario.DefaultEEAShare
	authMult := scenario.DefaultAuthMultiplier
	partner := scenario.DefaultPartnerFeePct
	interchange := scenario.DefaultInterchangePct
	companies := 1.0
	targetMonths := 12
	kyc := 1.0

	return scenario.Scenario{
		Name:          "New Scenario",
		HorizonMonths: &horizon,
		Adoption: scenario.Adoption{
			StartActiveCards: &startCards,
		},
		Usage: scenario.Usage{
			SpendPerActiveCardMonth: &spend,
			InAppShare:              &inApp,
			AvgTicket:               &ticket,
			EcomShare:               &ecom,
			ThreeDSAttemptRate:      &threeDS,
			EEAShare:                &eea,
			AuthMultiplier:          &authMult,
		},
		Commercial: scenario.Commercial{
			PartnerFeePct:  &partner,
			InterchangePct: &interchange,
			B2B: scenario.B2B{
				Companies: &companies,
				Mode:      scenario.ModeSolveEmployeeFee,
				Target: scenario.Target{
					Type:   scenario.TargetBreakeven,
					Months: &targetMonths,
				},
			},
		},
		Toggles: scenario.Toggles{
			Features:       features,
			EventFees:      eventFees,
			DeliveryMethod: p.PhysicalDelivery.DefaultMethod,
		},
		OpsAssumptions: scenario.OpsAssumptions{
			KYCAttemptsPerNewUser: &kyc,
		},
	}
}
