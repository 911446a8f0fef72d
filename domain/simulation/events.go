package simulation

import (
	"github.com/movesion/cardsim/domain/plan"
	"github.com/movesion/cardsim/domain/scenario"
)

// eventCosts sums per-event costs for one month. Card issuance is always
// charged; every other event fee is included when its toggle is on or the
// fee definition is marked mandatory.
func (e *Engine) eventCosts(n scenario.Normalized, issued, issuedPhysical, tx, active, churned float64) float64 {
	enabled := func(key string) bool {
		fee, ok := e.eventFees[key]
		if ok && fee.Mandatory {
			return true
		}
		return n.Toggles.EventEnabled(key, fee.EnabledByDefault)
	}
	amount := func(key string) (float64, bool) {
		fee, ok := e.eventFees[key]
		return fee.Amount, ok
	}

	cost := 0.0

	if a, ok := amount(plan.EventCardIssue); ok {
		cost += issued * a
	}

	if issuedPhysical > 0 && enabled(plan.EventPlasticPerso) {
		if a, ok := amount(plan.EventPlasticPerso); ok {
			cost += issuedPhysical * a
		}
	}

	if issued > 0 && enabled(plan.EventKYCAttempt) {
		if a, ok := amount(plan.EventKYCAttempt); ok {
			cost += issued * n.KYCAttemptsPerNewUser * a
		}
	}

	if issued > 0 && enabled(plan.EventAccountDocs) {
		if a, ok := amount(plan.EventAccountDocs); ok {
			cost += issued * n.DocConfirmRatePerNewUser * a
		}
	}

	if enabled(plan.EventDispute) {
		if a, ok := amount(plan.EventDispute); ok {
			cost += tx * n.DisputeRatePerTx * a
		}
	}

	if enabled(plan.EventSMS) {
		if a, ok := amount(plan.EventSMS); ok {
			cost += active * n.SMSPerActiveUserMonth * a
		}
	}

	if enabled(plan.EventPINChange) {
		if a, ok := amount(plan.EventPINChange); ok {
			cost += active * n.PINChangesPerActiveUserMonth * a
		}
	}

	if enabled(plan.EventAccountClosure) {
		if a, ok := amount(plan.EventAccountClosure); ok {
			cost += churned * n.ClosuresPerChurnedUser * a
		}
	}

	return cost
}

// physicalCosts sums manufacturing and delivery costs for the physical cards
// issued in one month. Both components are gated by their toggles and are
// zero when no physical cards were issued.
func (e *Engine) physicalCosts(toggles scenario.Toggles, issuedPhysical float64) float64 {
	if issuedPhysical <= 0 {
		return 0
	}

	cost := 0.0

	if toggles.Enabled("physical_manufacturing", false) {
		price := plan.ManufacturingPrice(e.plan.PhysicalManufacturing.Tiers, issuedPhysical)
		cost += issuedPhysical * price
	}

	if toggles.Enabled("physical_delivery", false) {
		if method, ok := plan.FindDeliveryMethod(e.plan.PhysicalDelivery, toggles.DeliveryMethod); ok {
			cost += issuedPhysical * method.Price
		}
	}

	return cost
}
