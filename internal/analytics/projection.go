package analytics

import "time"

// Projection compares the compounded growth path of recurring
// contributions under the portfolio's realized growth rate against the
// optimized allocation's rate. Both trajectories start from the same
// initial sum and contribution schedule.
type Projection struct {
	Dates           []string  `json:"dates"`
	ActualValues    []float64 `json:"actual_portfolio_values"`
	OptimizedValues []float64 `json:"optimized_portfolio_values"`
	ActualCAGR      float64   `json:"actual_cagr"`
	OptimizedCAGR   float64   `json:"optimized_cagr"`
}

// Project compounds initial capital forward with a fixed monthly
// contribution, once at the geometric monthly equivalent of each annual
// rate. Each month the contribution is added first and the combined
// balance grows for that month. Points land on month starts beginning
// with the first month boundary on or after the current date.
func (e *Engine) Project(initial, monthlyContribution float64, years int, actualCAGR, optimizedCAGR float64) Projection {
	months := years * 12
	if months < 0 {
		months = 0
	}

	actualRate := monthlyRateFromAnnual(actualCAGR)
	optimizedRate := monthlyRateFromAnnual(optimizedCAGR)

	p := Projection{
		Dates:           make([]string, 0, months),
		ActualValues:    make([]float64, 0, months),
		OptimizedValues: make([]float64, 0, months),
		ActualCAGR:      round2(actualCAGR),
		OptimizedCAGR:   round2(optimizedCAGR),
	}

	now := e.now()
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if now.After(cursor) {
		cursor = cursor.AddDate(0, 1, 0)
	}

	actual := initial
	optimized := initial
	for i := 0; i < months; i++ {
		actual = (actual + monthlyContribution) * (1 + actualRate)
		optimized = (optimized + monthlyContribution) * (1 + optimizedRate)

		p.Dates = append(p.Dates, cursor.Format(monthKeyLayout))
		p.ActualValues = append(p.ActualValues, round2(actual))
		p.OptimizedValues = append(p.OptimizedValues, round2(optimized))

		cursor = cursor.AddDate(0, 1, 0)
	}

	return p
}
