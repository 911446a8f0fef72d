// Package simulation implements the card program projection engine: the
// monthly state-evolution loop, cost aggregation, the B2B fee solver, and
// KPI derivation. The engine is deterministic and performs no I/O; instance
// state is read-only after construction, so concurrent Simulate calls are
// safe.
package simulation

import (
	"fmt"

	"github.com/movesion/cardsim/domain/plan"
	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/domain/tier"
)

// ValidationError carries the field-level violations that stopped a
// simulation before the monthly loop ran.
type ValidationError struct {
	Result scenario.Result
}

func (e *ValidationError) Error() string {
	return "invalid scenario: " + e.Result.Error()
}

// Engine projects scenarios against one pricing plan. The event-fee and
// optional-feature indices are built once at construction and never mutated.
type Engine struct {
	plan       plan.Plan
	eventFees  map[string]plan.EventFee
	features   map[string]plan.OptionalFeature
	maxHorizon int
}

// New creates an engine for the given pricing plan.
func New(p plan.Plan) *Engine {
	eventFees := make(map[string]plan.EventFee, len(p.EventFees))
	for _, f := range p.EventFees {
		eventFees[f.Key] = f
	}

	features := make(map[string]plan.OptionalFeature, len(p.OptionalFeatures))
	for key, f := range p.OptionalFeatures {
		if f.Key == "" {
			f.Key = key
		}
		features[key] = f
	}

	return &Engine{
		plan:       p,
		eventFees:  eventFees,
		features:   features,
		maxHorizon: scenario.DefaultMaxHorizonMonths,
	}
}

// NewWithMaxHorizon creates an engine that rejects horizons longer than
// maxHorizon months.
func NewWithMaxHorizon(p plan.Plan, maxHorizon int) *Engine {
	e := New(p)
	if maxHorizon > 0 {
		e.maxHorizon = maxHorizon
	}
	return e
}

// Simulate validates the scenario and runs the projection. Validation
// failures are returned as *ValidationError; anything else is an internal
// fault of the plan data.
func (e *Engine) Simulate(sc scenario.Scenario) (Result, error) {
	if r := sc.Validate(e.maxHorizon); !r.Valid {
		return Result{}, &ValidationError{Result: r}
	}
	return e.Project(sc.Normalized())
}

// Project runs the monthly loop over an already-validated parameter set.
// Exposed separately so the pure computation core can be exercised without
// the validation pass.
func (e *Engine) Project(n scenario.Normalized) (Result, error) {
	oneOffsByMonth := e.oneOffsByMonth(n.Toggles)
	fixedMonthly := e.fixedMonthlyTotal(n.Toggles)

	activeTiers := e.plan.Tiers(plan.MetricActiveCards)
	eeaTiers := e.plan.Tiers(plan.MetricAuthorizationsEEA)
	nonEEATiers := e.plan.Tiers(plan.MetricAuthorizationsNon)
	threeDSTiers := e.plan.Tiers(plan.MetricThreeDS)

	rows := make([]MonthlyResult, 0, n.HorizonMonths)
	active := n.StartActiveCards
	cumulative := 0.0

	for m := 1; m <= n.HorizonMonths; m++ {
		churned := active * n.ChurnRate
		active = max(0, active-churned+n.MonthlyNetAdds)

		issued := 0.0
		if n.IssuedEqualsNetAdds {
			issued = max(0, n.MonthlyNetAdds)
		}
		issuedPhysical := issued * n.PhysicalShareIssued
		issuedVirtual := issued - issuedPhysical

		totalSpend := active * n.SpendPerActiveCardMonth
		inAppSpend := totalSpend * n.InAppShare

		tx := 0.0
		if n.AvgTicket > 0 {
			tx = (totalSpend / n.AvgTicket) * n.AuthMultiplier
		}
		eeaAuth := tx * n.EEAShare
		nonEEAAuth := tx - eeaAuth
		threeDSAttempts := tx * n.EcomShare * n.ThreeDSAttemptRate

		partnerRev := inAppSpend * n.PartnerFeePct
		interchangeRev := totalSpend * n.InterchangePct

		activeCost, err := costOf(active, activeTiers, plan.MetricActiveCards)
		if err != nil {
			return Result{}, err
		}
		eeaCost, err := costOf(eeaAuth, eeaTiers, plan.MetricAuthorizationsEEA)
		if err != nil {
			return Result{}, err
		}
		nonEEACost, err := costOf(nonEEAAuth, nonEEATiers, plan.MetricAuthorizationsNon)
		if err != nil {
			return Result{}, err
		}
		threeDSCost, err := costOf(threeDSAttempts, threeDSTiers, plan.MetricThreeDS)
		if err != nil {
			return Result{}, err
		}

		eventCost := e.eventCosts(n, issued, issuedPhysical, tx, active, churned)
		physicalCost := e.physicalCosts(n.Toggles, issuedPhysical)

		costsExclB2B := fixedMonthly + oneOffsByMonth[m] + activeCost +
			eeaCost + nonEEACost + threeDSCost + eventCost + physicalCost
		revExclB2B := partnerRev + interchangeRev

		// In solve mode B2B revenue stays 0 until the solver's second pass.
		b2bRev := 0.0
		if n.B2BMode == scenario.ModeGiven {
			b2bRev = n.Companies*n.PlatformFeeCompanyMonth + active*n.EmployeeFeeMonth
		}

		totalRev := revExclB2B + b2bRev
		profit := totalRev - costsExclB2B
		cumulative += profit

		rows = append(rows, MonthlyResult{
			Month:            m,
			ActiveCards:      active,
			IssuedCards:      issued,
			IssuedPhysical:   issuedPhysical,
			IssuedVirtual:    issuedVirtual,
			TotalSpend:       totalSpend,
			InAppSpend:       inAppSpend,
			TxCount:          tx,
			EEAAuth:          eeaAuth,
			NonEEAAuth:       nonEEAAuth,
			ThreeDSAttempts:  threeDSAttempts,
			RevPartner:       partnerRev,
			RevInterchange:   interchangeRev,
			RevB2B:           b2bRev,
			CostFixed:        fixedMonthly,
			CostOneOff:       oneOffsByMonth[m],
			CostActiveCards:  activeCost,
			CostAuth:         eeaCost + nonEEACost,
			Cost3DS:          threeDSCost,
			CostEvents:       eventCost,
			CostPhysical:     physicalCost,
			TotalRevenue:     totalRev,
			TotalCosts:       costsExclB2B,
			Profit:           profit,
			CumulativeProfit: cumulative,
			CostsExclB2B:     costsExclB2B,
			RevExclB2B:       revExclB2B,
		})
	}

	var solvedFee *float64
	if n.B2BMode == scenario.ModeSolveEmployeeFee {
		fee := solveEmployeeFee(rows, n)
		applyEmployeeFee(rows, n.Companies, n.PlatformFeeCompanyMonth, fee)
		solvedFee = &fee
	}

	return Result{
		Rows:          rows,
		KPIs:          deriveKPIs(rows, n.HorizonMonths, solvedFee),
		ScenarioName:  n.Name,
		PricingPlanID: e.plan.ID,
	}, nil
}

// costOf prices a volume against a schedule, wrapping errors with the
// metric they came from.
func costOf(volume float64, tiers []tier.Tier, metric string) (float64, error) {
	cost, err := tier.ApplyTiers(volume, tiers)
	if err != nil {
		return 0, fmt.Errorf("pricing %s: %w", metric, err)
	}
	return cost, nil
}

// oneOffsByMonth maps months to one-off charges. Setup costs of enabled
// optional features always land in month 1; the apply_month hint on plan
// one-off fees is deliberately not consulted here.
func (e *Engine) oneOffsByMonth(toggles scenario.Toggles) map[int]float64 {
	out := make(map[int]float64)
	for key, feature := range e.features {
		toggleKey := feature.Key
		if toggleKey == "" {
			toggleKey = key
		}
		if toggles.Enabled(toggleKey, feature.EnabledByDefault) && feature.Setup > 0 {
			out[1] += feature.Setup
		}
	}
	return out
}

// fixedMonthlyTotal sums mandatory and toggled-on fixed fees plus the
// recurring cost of enabled optional features.
func (e *Engine) fixedMonthlyTotal(toggles scenario.Toggles) float64 {
	total := 0.0
	for _, fee := range e.plan.FixedMonthly {
		if fee.Mandatory || toggles.Enabled(fee.Key, fee.EnabledByDefault) {
			total += fee.Amount
		}
	}
	for key, feature := range e.features {
		toggleKey := feature.Key
		if toggleKey == "" {
			toggleKey = key
		}
		if toggles.Enabled(toggleKey, feature.EnabledByDefault) {
			total += feature.Monthly
		}
	}
	return total
}
