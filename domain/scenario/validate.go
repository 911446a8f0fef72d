package scenario

import (
	"fmt"
	"strings"
)

// Violation codes.
const (
	CodeRequired = "required"
	CodeMin      = "min"
	CodeRange    = "range"
	CodeEnum     = "enum"
)

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error returns the violation as "field: message".
func (v Violation) Error() string {
	return v.Field + ": " + v.Message
}

// Result holds all validation violations for a scenario.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Add records a violation.
func (r *Result) Add(field, code string, value any, message string) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{
		Field:   field,
		Code:    code,
		Value:   value,
		Message: message,
	})
}

// Error returns a combined message, or "" when valid.
func (r Result) Error() string {
	if r.Valid {
		return ""
	}
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate runs the declarative field checks against the scenario before any
// simulation work. maxHorizon <= 0 falls back to DefaultMaxHorizonMonths.
// Missing required fields and out-of-domain values are collected as
// violations; the computation core never sees an invalid scenario.
func (s Scenario) Validate(maxHorizon int) Result {
	if maxHorizon <= 0 {
		maxHorizon = DefaultMaxHorizonMonths
	}
	r := Result{Valid: true}

	if s.HorizonMonths == nil {
		r.Add("horizon_months", CodeRequired, nil, "field is required")
	} else if *s.HorizonMonths < 1 || *s.HorizonMonths > maxHorizon {
		r.Add("horizon_months", CodeRange, *s.HorizonMonths,
			fmt.Sprintf("must be between 1 and %d", maxHorizon))
	}

	if s.Adoption.StartActiveCards == nil {
		r.Add("adoption.start_active_cards", CodeRequired, nil, "field is required")
	} else if *s.Adoption.StartActiveCards < 0 {
		r.Add("adoption.start_active_cards", CodeMin, *s.Adoption.StartActiveCards, "must be >= 0")
	}
	checkUnitInterval(&r, "adoption.churn_rate", s.Adoption.ChurnRate)

	checkUnitInterval(&r, "issuance.physical_share_issued", s.Issuance.PhysicalShareIssued)

	if s.Usage.SpendPerActiveCardMonth == nil {
		r.Add("usage.spend_per_active_card_month", CodeRequired, nil, "field is required")
	} else if *s.Usage.SpendPerActiveCardMonth < 0 {
		r.Add("usage.spend_per_active_card_month", CodeMin, *s.Usage.SpendPerActiveCardMonth, "must be >= 0")
	}
	checkOptionalUnitInterval(&r, "usage.in_app_share", s.Usage.InAppShare)
	if s.Usage.AvgTicket != nil && *s.Usage.AvgTicket <= 0 {
		r.Add("usage.avg_ticket", CodeMin, *s.Usage.AvgTicket, "must be > 0")
	}
	checkOptionalUnitInterval(&r, "usage.ecom_share", s.Usage.EcomShare)
	checkOptionalUnitInterval(&r, "usage.three_ds_attempt_rate", s.Usage.ThreeDSAttemptRate)
	checkOptionalUnitInterval(&r, "usage.eea_share", s.Usage.EEAShare)
	if s.Usage.AuthMultiplier != nil && *s.Usage.AuthMultiplier < 0 {
		r.Add("usage.auth_multiplier", CodeMin, *s.Usage.AuthMultiplier, "must be >= 0")
	}

	checkOptionalUnitInterval(&r, "commercial.partner_fee_pct", s.Commercial.PartnerFeePct)
	checkOptionalUnitInterval(&r, "commercial.interchange_pct", s.Commercial.InterchangePct)

	b2b := s.Commercial.B2B
	if b2b.Companies != nil && *b2b.Companies < 1 {
		r.Add("commercial.b2b.companies", CodeMin, *b2b.Companies, "must be >= 1")
	}
	if b2b.PlatformFeeCompanyMonth < 0 {
		r.Add("commercial.b2b.platform_fee_company_month", CodeMin, b2b.PlatformFeeCompanyMonth, "must be >= 0")
	}
	if b2b.EmployeeFeeMonth < 0 {
		r.Add("commercial.b2b.employee_fee_month", CodeMin, b2b.EmployeeFeeMonth, "must be >= 0")
	}
	if b2b.Mode != "" && b2b.Mode != ModeGiven && b2b.Mode != ModeSolveEmployeeFee {
		r.Add("commercial.b2b.mode", CodeEnum, b2b.Mode,
			fmt.Sprintf("must be %q or %q", ModeGiven, ModeSolveEmployeeFee))
	}
	switch b2b.Target.Type {
	case "", TargetBreakeven, TargetProfit, TargetMargin:
	default:
		r.Add("commercial.b2b.target.type", CodeEnum, b2b.Target.Type,
			fmt.Sprintf("must be %q, %q, or %q", TargetBreakeven, TargetProfit, TargetMargin))
	}
	if b2b.Target.Months != nil && *b2b.Target.Months < 1 {
		r.Add("commercial.b2b.target.months", CodeMin, *b2b.Target.Months, "must be >= 1")
	}

	ops := s.OpsAssumptions
	if ops.KYCAttemptsPerNewUser != nil && *ops.KYCAttemptsPerNewUser < 0 {
		r.Add("ops_assumptions.kyc_attempts_per_new_user", CodeMin, *ops.KYCAttemptsPerNewUser, "must be >= 0")
	}
	checkNonNegative(&r, "ops_assumptions.doc_confirm_rate_per_new_user", ops.DocConfirmRatePerNewUser)
	checkNonNegative(&r, "ops_assumptions.dispute_rate_per_tx", ops.DisputeRatePerTx)
	checkNonNegative(&r, "ops_assumptions.sms_per_active_user_month", ops.SMSPerActiveUserMonth)
	checkNonNegative(&r, "ops_assumptions.pin_changes_per_active_user_month", ops.PINChangesPerActiveUserMonth)
	checkNonNegative(&r, "ops_assumptions.closures_per_churned_user", ops.ClosuresPerChurnedUser)

	return r
}

func checkUnitInterval(r *Result, field string, v float64) {
	if v < 0 || v > 1 {
		r.Add(field, CodeRange, v, "must be between 0 and 1")
	}
}

func checkOptionalUnitInterval(r *Result, field string, v *float64) {
	if v != nil {
		checkUnitInterval(r, field, *v)
	}
}

func checkNonNegative(r *Result, field string, v float64) {
	if v < 0 {
		r.Add(field, CodeMin, v, "must be >= 0")
	}
}
