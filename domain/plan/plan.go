// Package plan provides pricing plan value types and pure functions.
package plan

import (
	"fmt"

	"github.com/movesion/cardsim/domain/tier"
)

// Metric keys for tiered monthly schedules.
const (
	MetricActiveCards       = "active_cards"
	MetricAuthorizationsEEA = "authorizations.eea"
	MetricAuthorizationsNon = "authorizations.non_eea"
	MetricThreeDS           = "three_ds"
)

// Event fee keys.
const (
	EventCardIssue       = "card_issue"
	EventPlasticPerso    = "plastic_personalization"
	EventKYCAttempt      = "kyc_attempt"
	EventAccountDocs     = "account_documents"
	EventDispute         = "dispute"
	EventSMS             = "sms"
	EventPINChange       = "pin_change"
	EventAccountClosure  = "account_closure"
)

// TieredPricing is a tiered monthly cost schedule for one metric.
type TieredPricing struct {
	Unit  string      `json:"unit"`
	Tiers []tier.Tier `json:"tiers"`
}

// FixedMonthlyFee is a recurring monthly fee. Mandatory fees are always
// charged; others follow the scenario toggle named by Key, falling back to
// EnabledByDefault.
type FixedMonthlyFee struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	Amount           float64 `json:"amount"`
	Mandatory        bool    `json:"mandatory"`
	EnabledByDefault bool    `json:"enabled_by_default"`
}

// OneOffFee is a one-time fee with the month it nominally applies in.
type OneOffFee struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	Amount           float64 `json:"amount"`
	EnabledByDefault bool    `json:"enabled_by_default"`
	ApplyMonth       int     `json:"apply_month"`
}

// EventFee is a per-event fee. Mandatory fees are charged regardless of
// scenario toggles.
type EventFee struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	Amount           float64 `json:"amount"`
	Unit             string  `json:"unit,omitempty"`
	Mandatory        bool    `json:"mandatory"`
	EnabledByDefault bool    `json:"enabled_by_default"`
}

// OptionalFeature is a toggleable feature carrying an optional one-off setup
// cost and/or a recurring monthly cost.
type OptionalFeature struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	Setup            float64 `json:"setup"`
	Monthly          float64 `json:"monthly"`
	EnabledByDefault bool    `json:"enabled_by_default"`
}

// ManufacturingTier is a batch-size band for physical card production.
type ManufacturingTier struct {
	MinBatch int     `json:"min_batch"`
	MaxBatch *int    `json:"max_batch"`
	Price    float64 `json:"price"`
}

// DeliveryMethod is a named flat per-card delivery price point.
type DeliveryMethod struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// PhysicalManufacturing configures physical card production pricing.
type PhysicalManufacturing struct {
	EnabledByDefault bool                `json:"enabled_by_default"`
	Tiers            []ManufacturingTier `json:"tiers"`
	OrderingPolicy   string              `json:"ordering_policy,omitempty"`
}

// PhysicalDelivery configures physical card delivery pricing.
type PhysicalDelivery struct {
	EnabledByDefault bool             `json:"enabled_by_default"`
	Methods          []DeliveryMethod `json:"methods"`
	DefaultMethod    string           `json:"default_method,omitempty"`
}

// Plan is a complete pricing plan (immutable value type). Loaded once and
// read-only for the engine's lifetime.
type Plan struct {
	ID                    string                     `json:"id"`
	Currency              string                     `json:"currency"`
	FixedMonthly          []FixedMonthlyFee          `json:"fixed_monthly"`
	OneOffs               []OneOffFee                `json:"one_offs"`
	TieredMonthly         map[string]TieredPricing   `json:"tiered_monthly"`
	EventFees             []EventFee                 `json:"event_fees"`
	OptionalFeatures      map[string]OptionalFeature `json:"optional_features"`
	PhysicalManufacturing PhysicalManufacturing      `json:"physical_manufacturing"`
	PhysicalDelivery      PhysicalDelivery           `json:"physical_delivery"`
}

// Tiers returns the tier schedule for a metric, or nil if the plan has none.
// This is a PURE function.
func (p Plan) Tiers(metric string) []tier.Tier {
	tp, ok := p.TieredMonthly[metric]
	if !ok {
		return nil
	}
	return tp.Tiers
}

// ManufacturingPrice returns the per-card production price for a batch size:
// the first tier whose band contains the batch, or the first tier's price
// when the batch is below every band. Returns 0 with no tiers.
// This is a PURE function.
func ManufacturingPrice(tiers []ManufacturingTier, batch float64) float64 {
	for _, t := range tiers {
		if batch >= float64(t.MinBatch) && (t.MaxBatch == nil || batch <= float64(*t.MaxBatch)) {
			return t.Price
		}
	}
	if len(tiers) > 0 {
		return tiers[0].Price
	}
	return 0
}

// FindDeliveryMethod resolves a delivery method by key, falling back to the
// configured default method, then to the first listed method.
// This is a PURE function.
func FindDeliveryMethod(d PhysicalDelivery, key string) (DeliveryMethod, bool) {
	lookup := func(k string) (DeliveryMethod, bool) {
		for _, m := range d.Methods {
			if m.Key == k {
				return m, true
			}
		}
		return DeliveryMethod{}, false
	}

	if m, ok := lookup(key); ok {
		return m, true
	}
	if m, ok := lookup(d.DefaultMethod); ok {
		return m, true
	}
	if len(d.Methods) > 0 {
		return d.Methods[0], true
	}
	return DeliveryMethod{}, false
}

// Validate checks the plan's structural invariants: every tiered schedule is
// non-empty, ordered by ascending bound, and places its unbounded tier last.
func (p Plan) Validate() error {
	for metric, tp := range p.TieredMonthly {
		if err := validateSchedule(tp.Tiers); err != nil {
			return fmt.Errorf("tiered schedule %q: %w", metric, err)
		}
	}
	return nil
}

func validateSchedule(tiers []tier.Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("no tiers defined")
	}

	prev := 0.0
	for i, t := range tiers {
		if t.UpTo == nil {
			if i != len(tiers)-1 {
				return fmt.Errorf("unbounded tier at position %d must be last", i)
			}
			continue
		}
		if *t.UpTo <= prev {
			return fmt.Errorf("tier bounds must be strictly ascending (position %d: %v)", i, *t.UpTo)
		}
		prev = *t.UpTo
	}
	return nil
}
