package simulation

import "github.com/movesion/cardsim/domain/scenario"

// solveEmployeeFee computes the flat per-active-card monthly fee that closes
// the gap between costs and non-B2B revenue over the target window:
//
//	fee = max(0, (Σcosts − Σrev_excl_b2b + target_profit − companies×platform_fee×horizon) / Σactive_cards)
//
// The window is min(target months, simulated horizon). A window with no
// card-months is degenerate and yields a zero fee rather than an error.
func solveEmployeeFee(rows []MonthlyResult, n scenario.Normalized) float64 {
	horizon := min(n.TargetMonths, len(rows))

	var totalCosts, totalRev, totalActiveMonths float64
	for _, r := range rows[:horizon] {
		totalCosts += r.CostsExclB2B
		totalRev += r.RevExclB2B
		totalActiveMonths += r.ActiveCards
	}
	platformComponent := n.Companies * n.PlatformFeeCompanyMonth * float64(horizon)

	targetProfit := 0.0
	switch n.TargetType {
	case scenario.TargetProfit:
		targetProfit = n.TargetAmount
	case scenario.TargetMargin:
		// Margin over total non-B2B revenue in the window.
		targetProfit = totalRev * n.TargetAmount
	}

	neededB2B := (totalCosts - totalRev) + targetProfit - platformComponent

	if totalActiveMonths <= 0 {
		return 0
	}
	return max(0, neededB2B/totalActiveMonths)
}

// applyEmployeeFee re-derives B2B revenue and all profit figures from the
// already-computed non-B2B fields, applying the fee uniformly to every month
// of the full horizon. This is the solver's controlled second pass, not a
// retry.
func applyEmployeeFee(rows []MonthlyResult, companies, platformFee, fee float64) {
	cumulative := 0.0
	for i := range rows {
		r := &rows[i]
		r.RevB2B = companies*platformFee + r.ActiveCards*fee
		r.TotalRevenue = r.RevExclB2B + r.RevB2B
		r.Profit = r.TotalRevenue - r.CostsExclB2B
		cumulative += r.Profit
		r.CumulativeProfit = cumulative
	}
}
