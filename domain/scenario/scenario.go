// Package scenario provides simulation request value types, defaults, and
// validation.
package scenario

import (
	"github.com/goccy/go-json"
)

// B2B revenue modes.
const (
	ModeGiven            = "given"
	ModeSolveEmployeeFee = "solve_employee_fee"
)

// B2B solve target types.
const (
	TargetBreakeven = "breakeven"
	TargetProfit    = "profit"
	TargetMargin    = "margin"
)

// DefaultMaxHorizonMonths caps the simulation horizon when the caller does
// not impose its own limit.
const DefaultMaxHorizonMonths = 120

// Scenario is a single simulation request as supplied on the wire. Required
// fields are pointers so that absence can be told apart from a zero value;
// optional fields with non-zero defaults are pointers for the same reason.
type Scenario struct {
	Name           string         `json:"name"`
	HorizonMonths  *int           `json:"horizon_months"`
	Adoption       Adoption       `json:"adoption"`
	Issuance       Issuance       `json:"issuance"`
	Usage          Usage          `json:"usage"`
	Commercial     Commercial     `json:"commercial"`
	Toggles        Toggles        `json:"toggles"`
	OpsAssumptions OpsAssumptions `json:"ops_assumptions"`
}

// Adoption holds card population parameters.
type Adoption struct {
	StartActiveCards *float64 `json:"start_active_cards"`
	MonthlyNetAdds   float64  `json:"monthly_net_adds"`
	ChurnRate        float64  `json:"churn_rate"`
}

// Issuance holds card issuance parameters.
type Issuance struct {
	PhysicalShareIssued float64 `json:"physical_share_issued"`
	IssuedEqualsNetAdds *bool   `json:"issued_equals_net_adds"`
}

// Usage holds spend and transaction-mix parameters.
type Usage struct {
	SpendPerActiveCardMonth *float64 `json:"spend_per_active_card_month"`
	InAppShare              *float64 `json:"in_app_share"`
	AvgTicket               *float64 `json:"avg_ticket"`
	EcomShare               *float64 `json:"ecom_share"`
	ThreeDSAttemptRate      *float64 `json:"three_ds_attempt_rate"`
	EEAShare                *float64 `json:"eea_share"`
	AuthMultiplier          *float64 `json:"auth_multiplier"`
}

// Commercial holds revenue-side parameters.
type Commercial struct {
	PartnerFeePct  *float64 `json:"partner_fee_pct"`
	InterchangePct *float64 `json:"interchange_pct"`
	B2B            B2B      `json:"b2b"`
}

// B2B holds the business-to-business sub-configuration. In "given" mode the
// employee fee is an input; in "solve_employee_fee" mode the engine derives
// it from the target.
type B2B struct {
	Companies               *float64 `json:"companies"`
	PlatformFeeCompanyMonth float64  `json:"platform_fee_company_month"`
	EmployeeFeeMonth        float64  `json:"employee_fee_month"`
	Mode                    string   `json:"mode"`
	Target                  Target   `json:"target"`
}

// Target states what the B2B fee solver should achieve.
type Target struct {
	Type   string  `json:"type"`
	Months *int    `json:"months"`
	Amount float64 `json:"amount"`
}

// OpsAssumptions holds operational event rates.
type OpsAssumptions struct {
	KYCAttemptsPerNewUser        *float64 `json:"kyc_attempts_per_new_user"`
	DocConfirmRatePerNewUser     float64  `json:"doc_confirm_rate_per_new_user"`
	DisputeRatePerTx             float64  `json:"dispute_rate_per_tx"`
	SMSPerActiveUserMonth        float64  `json:"sms_per_active_user_month"`
	PINChangesPerActiveUserMonth float64  `json:"pin_changes_per_active_user_month"`
	ClosuresPerChurnedUser       float64  `json:"closures_per_churned_user"`
}

// Toggles gates optional plan costs. Feature and event-fee keys are defined
// by the pricing plan, so they are kept as maps with presence semantics: an
// absent key falls back to the fee definition's enabled_by_default.
type Toggles struct {
	Features       map[string]bool
	EventFees      map[string]bool
	DeliveryMethod string
}

// Enabled reports whether a feature toggle is on, using fallback when the
// scenario does not mention the key.
func (t Toggles) Enabled(key string, fallback bool) bool {
	if v, ok := t.Features[key]; ok {
		return v
	}
	return fallback
}

// EventEnabled reports whether an event-fee toggle is on, using fallback
// when the scenario does not mention the key.
func (t Toggles) EventEnabled(key string, fallback bool) bool {
	if v, ok := t.EventFees[key]; ok {
		return v
	}
	return fallback
}

// UnmarshalJSON decodes the flat toggle object: boolean keys become feature
// toggles, "event_fees" is a nested boolean object, and "delivery_method" is
// a string selector.
func (t *Toggles) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Features = make(map[string]bool, len(raw))
	for key, val := range raw {
		switch key {
		case "event_fees":
			if err := json.Unmarshal(val, &t.EventFees); err != nil {
				return err
			}
		case "delivery_method":
			if err := json.Unmarshal(val, &t.DeliveryMethod); err != nil {
				return err
			}
		default:
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				return err
			}
			t.Features[key] = b
		}
	}
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (t Toggles) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Features)+2)
	for k, v := range t.Features {
		out[k] = v
	}
	if t.EventFees != nil {
		out["event_fees"] = t.EventFees
	}
	if t.DeliveryMethod != "" {
		out["delivery_method"] = t.DeliveryMethod
	}
	return json.Marshal(out)
}

// Default values applied when a scenario omits the corresponding field.
const (
	DefaultInAppShare         = 0.5
	DefaultAvgTicket          = 50.0
	DefaultEcomShare          = 0.3
	DefaultThreeDSAttemptRate = 1.0
	DefaultEEAShare           = 0.95
	DefaultAuthMultiplier     = 1.0
	DefaultPartnerFeePct      = 0.02
	DefaultInterchangePct     = 0.002
	DefaultCompanies          = 1.0
	DefaultTargetMonths       = 12
	DefaultKYCAttempts        = 1.0

	defaultName = "Unnamed Scenario"
)

// Normalized is a scenario with every default resolved: plain values only,
// ready for the simulation loop.
type Normalized struct {
	Name          string
	HorizonMonths int

	StartActiveCards float64
	MonthlyNetAdds   float64
	ChurnRate        float64

	PhysicalShareIssued float64
	IssuedEqualsNetAdds bool

	SpendPerActiveCardMonth float64
	InAppShare              float64
	AvgTicket               float64
	EcomShare               float64
	ThreeDSAttemptRate      float64
	EEAShare                float64
	AuthMultiplier          float64

	PartnerFeePct  float64
	InterchangePct float64

	Companies               float64
	PlatformFeeCompanyMonth float64
	EmployeeFeeMonth        float64
	B2BMode                 string
	TargetType              string
	TargetMonths            int
	TargetAmount            float64

	Toggles Toggles

	KYCAttemptsPerNewUser        float64
	DocConfirmRatePerNewUser     float64
	DisputeRatePerTx             float64
	SMSPerActiveUserMonth        float64
	PINChangesPerActiveUserMonth float64
	ClosuresPerChurnedUser       float64
}

func orFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func orBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// Normalized resolves defaults into a flat parameter set. It assumes the
// scenario has passed Validate.
func (s Scenario) Normalized() Normalized {
	n := Normalized{
		Name:          s.Name,
		HorizonMonths: 0,

		MonthlyNetAdds: s.Adoption.MonthlyNetAdds,
		ChurnRate:      s.Adoption.ChurnRate,

		PhysicalShareIssued: s.Issuance.PhysicalShareIssued,
		IssuedEqualsNetAdds: orBool(s.Issuance.IssuedEqualsNetAdds, true),

		InAppShare:         orFloat(s.Usage.InAppShare, DefaultInAppShare),
		AvgTicket:          orFloat(s.Usage.AvgTicket, DefaultAvgTicket),
		EcomShare:          orFloat(s.Usage.EcomShare, DefaultEcomShare),
		ThreeDSAttemptRate: orFloat(s.Usage.ThreeDSAttemptRate, DefaultThreeDSAttemptRate),
		EEAShare:           orFloat(s.Usage.EEAShare, DefaultEEAShare),
		AuthMultiplier:     orFloat(s.Usage.AuthMultiplier, DefaultAuthMultiplier),

		PartnerFeePct:  orFloat(s.Commercial.PartnerFeePct, DefaultPartnerFeePct),
		InterchangePct: orFloat(s.Commercial.InterchangePct, DefaultInterchangePct),

		Companies:               orFloat(s.Commercial.B2B.Companies, DefaultCompanies),
		PlatformFeeCompanyMonth: s.Commercial.B2B.PlatformFeeCompanyMonth,
		EmployeeFeeMonth:        s.Commercial.B2B.EmployeeFeeMonth,
		B2BMode:                 s.Commercial.B2B.Mode,
		TargetType:              s.Commercial.B2B.Target.Type,
		TargetMonths:            DefaultTargetMonths,
		TargetAmount:            s.Commercial.B2B.Target.Amount,

		Toggles: s.Toggles,

		KYCAttemptsPerNewUser:        orFloat(s.OpsAssumptions.KYCAttemptsPerNewUser, DefaultKYCAttempts),
		DocConfirmRatePerNewUser:     s.OpsAssumptions.DocConfirmRatePerNewUser,
		DisputeRatePerTx:             s.OpsAssumptions.DisputeRatePerTx,
		SMSPerActiveUserMonth:        s.OpsAssumptions.SMSPerActiveUserMonth,
		PINChangesPerActiveUserMonth: s.OpsAssumptions.PINChangesPerActiveUserMonth,
		ClosuresPerChurnedUser:       s.OpsAssumptions.ClosuresPerChurnedUser,
	}

	if n.Name == "" {
		n.Name = defaultName
	}
	if s.HorizonMonths != nil {
		n.HorizonMonths = *s.HorizonMonths
	}
	if s.Adoption.StartActiveCards != nil {
		n.StartActiveCards = *s.Adoption.StartActiveCards
	}
	if s.Usage.SpendPerActiveCardMonth != nil {
		n.SpendPerActiveCardMonth = *s.Usage.SpendPerActiveCardMonth
	}
	if n.B2BMode == "" {
		n.B2BMode = ModeGiven
	}
	if n.TargetType == "" {
		n.TargetType = TargetBreakeven
	}
	if s.Commercial.B2B.Target.Months != nil {
		n.TargetMonths = *s.Commercial.B2B.Target.Months
	}
	return n
}
