package simulation

// MonthlyResult is one projected month. Rows are produced in month order
// 1..N and are only touched again by the solver's re-application pass.
type MonthlyResult struct {
	Month int `json:"month"`

	// Card population state.
	ActiveCards    float64 `json:"active_cards"`
	IssuedCards    float64 `json:"issued_cards"`
	IssuedPhysical float64 `json:"issued_physical"`
	IssuedVirtual  float64 `json:"issued_virtual"`

	// Usage state.
	TotalSpend      float64 `json:"total_spend"`
	InAppSpend      float64 `json:"in_app_spend"`
	TxCount         float64 `json:"tx_count"`
	EEAAuth         float64 `json:"eea_auth"`
	NonEEAAuth      float64 `json:"non_eea_auth"`
	ThreeDSAttempts float64 `json:"three_ds_attempts"`

	// Revenue breakdown.
	RevPartner     float64 `json:"rev_partner"`
	RevInterchange float64 `json:"rev_interchange"`
	RevB2B         float64 `json:"rev_b2b"`

	// Cost breakdown.
	CostFixed       float64 `json:"cost_fixed"`
	CostOneOff      float64 `json:"cost_oneoff"`
	CostActiveCards float64 `json:"cost_active_cards"`
	CostAuth        float64 `json:"cost_auth"`
	Cost3DS         float64 `json:"cost_3ds"`
	CostEvents      float64 `json:"cost_events"`
	CostPhysical    float64 `json:"cost_physical"`

	// Totals.
	TotalRevenue     float64 `json:"total_revenue"`
	TotalCosts       float64 `json:"total_costs"`
	Profit           float64 `json:"profit"`
	CumulativeProfit float64 `json:"cumulative_profit"`

	// Aggregates kept for the solver and for inspection.
	CostsExclB2B float64 `json:"costs_excl_b2b"`
	RevExclB2B   float64 `json:"rev_excl_b2b"`
}

// Profit status classifications.
const (
	StatusProfitable = "profitable"
	StatusLoss       = "loss"
	StatusBalanced   = "balanced"
)

// KPIs are aggregate figures derived from the row sequence.
type KPIs struct {
	BreakevenMonth           *int     `json:"breakeven_month"`
	ProfitYear1              float64  `json:"profit_year1"`
	ProfitYear2              *float64 `json:"profit_year2"`
	ProfitYear3              *float64 `json:"profit_year3"`
	RequiredEmployeeFeeMonth *float64 `json:"required_employee_fee_month"`
	TotalRevenue             float64  `json:"total_revenue"`
	TotalCosts               float64  `json:"total_costs"`
	TotalProfit              float64  `json:"total_profit"`
	AvgMonthlyProfit         float64  `json:"avg_monthly_profit"`
	ROIPercent               *float64 `json:"roi_percent"`
	ProfitStatus             string   `json:"profit_status"`
	IsSolvedBreakeven        bool     `json:"is_solved_breakeven"`
}

// Result is the complete, immutable output of one Simulate call.
type Result struct {
	Rows          []MonthlyResult `json:"rows"`
	KPIs          KPIs            `json:"kpis"`
	ScenarioName  string          `json:"scenario_name"`
	PricingPlanID string          `json:"pricing_plan_id"`
}
