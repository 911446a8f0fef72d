package simulation

// breakevenTolerance guards the negative-side comparison against floating
// point noise.
const breakevenTolerance = 0.01

// balancedTolerance is the currency-unit band within which a total profit
// counts as balanced.
const balancedTolerance = 1.0

// deriveKPIs computes aggregate figures from the finished row sequence.
func deriveKPIs(rows []MonthlyResult, months int, solvedFee *float64) KPIs {
	// Breakeven is recovery from a deficit: the first month whose cumulative
	// profit crosses from negative back to non-negative. A run that never
	// dips negative has no breakeven event.
	var breakeven *int
	wasNegative := false
	for _, r := range rows {
		if r.CumulativeProfit < -breakevenTolerance {
			wasNegative = true
		} else if wasNegative && r.CumulativeProfit >= 0 {
			m := r.Month
			breakeven = &m
			break
		}
	}

	profitYear1 := sumProfit(rows, 0, 12)
	var profitYear2, profitYear3 *float64
	if months >= 24 {
		v := sumProfit(rows, 12, 24)
		profitYear2 = &v
	}
	if months >= 36 {
		v := sumProfit(rows, 24, 36)
		profitYear3 = &v
	}

	var totalRevenue, totalCosts, totalProfit float64
	for _, r := range rows {
		totalRevenue += r.TotalRevenue
		totalCosts += r.TotalCosts
		totalProfit += r.Profit
	}

	avgMonthlyProfit := 0.0
	if len(rows) > 0 {
		avgMonthlyProfit = totalProfit / float64(len(rows))
	}

	var roi *float64
	if totalCosts > 0 {
		v := (totalProfit / totalCosts) * 100
		roi = &v
	}

	status := StatusLoss
	switch {
	case totalProfit > -balancedTolerance && totalProfit < balancedTolerance:
		status = StatusBalanced
	case totalProfit > 0:
		status = StatusProfitable
	}

	return KPIs{
		BreakevenMonth:           breakeven,
		ProfitYear1:              profitYear1,
		ProfitYear2:              profitYear2,
		ProfitYear3:              profitYear3,
		RequiredEmployeeFeeMonth: solvedFee,
		TotalRevenue:             totalRevenue,
		TotalCosts:               totalCosts,
		TotalProfit:              totalProfit,
		AvgMonthlyProfit:         avgMonthlyProfit,
		ROIPercent:               roi,
		ProfitStatus:             status,
		IsSolvedBreakeven:        solvedFee != nil,
	}
}

func sumProfit(rows []MonthlyResult, from, to int) float64 {
	if from >= len(rows) {
		return 0
	}
	to = min(to, len(rows))
	total := 0.0
	for _, r := range rows[from:to] {
		total += r.Profit
	}
	return total
}
