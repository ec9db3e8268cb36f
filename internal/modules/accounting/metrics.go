package accounting

import (
	"math"

	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// Derived metrics over a closed position. All pure; the aggregator and
// the API surface them next to the raw history rows.

// Profit is realized proceeds minus cost basis.
func Profit(p ledger.ClosedPosition) float64 {
	return p.SumSell - p.SumBuy
}

// ProfitPercent is the realized profit relative to the cost basis,
// 0 when the cost basis is zero.
func ProfitPercent(p ledger.ClosedPosition) float64 {
	if p.SumBuy == 0 {
		return 0
	}
	return Profit(p) / p.SumBuy * 100
}

// DaysHeld is the number of calendar days between entry and exit.
func DaysHeld(p ledger.ClosedPosition) int {
	return int(p.EndDate.Sub(p.StartDate).Hours() / 24)
}

// DailyRate is the equivalent compounding daily return, 0 when the
// position was opened and closed on the same day.
func DailyRate(p ledger.ClosedPosition) float64 {
	days := DaysHeld(p)
	if days <= 0 {
		return 0
	}
	return math.Pow(1+ProfitPercent(p)/100, 1/float64(days)) - 1
}

// AnnualizedPercent compounds the daily rate over a 365-day year.
func AnnualizedPercent(p ledger.ClosedPosition) float64 {
	if DaysHeld(p) <= 0 {
		return 0
	}
	return (math.Pow(1+DailyRate(p), 365) - 1) * 100
}
