// Package offer prices waterfall outcomes into loan terms and rolls
// per-user offers into portfolio capital statistics.
package offer

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/ledger"
	"github.com/priyamvad/credflow/internal/waterfall"
)

// Offer is the priced outcome attached to a decision. LoanLimit is a
// non-negative multiple of the configured rounding unit and non-zero only
// for Approve decisions.
type Offer struct {
	LoanLimit     float64 `json:"loan_limit"`
	InterestRate  float64 `json:"interest_rate"`
	MonthlyIncome float64 `json:"monthly_income"`
	Score         int     `json:"score"`
}

// Params are the tunable pricing constants.
type Params struct {
	APRFloor      float64 // base interest rate, percent
	APRCeiling    float64 // rate cap, percent
	PDSpread      float64 // rate points added per unit of PD
	Affordability float64 // share of free cash flow considered lendable
	TermMonths    float64 // annualization horizon
	RoundTo       int64   // loan limit rounding unit
}

// DefaultParams match the reference deployment: 8–36% APR, 30% affordability
// annualized over 12 months, limits in steps of 100.
func DefaultParams() Params {
	return Params{
		APRFloor:      8.0,
		APRCeiling:    36.0,
		PDSpread:      20.0,
		Affordability: 0.3,
		TermMonths:    12,
		RoundTo:       100,
	}
}

// Calculator prices every decision, not just approvals: rejected and
// referred users still get a rate and display score for reporting.
type Calculator struct {
	params Params
}

// NewCalculator builds a Calculator, falling back to DefaultParams when
// given a zero rounding unit.
func NewCalculator(p Params) *Calculator {
	if p.RoundTo <= 0 {
		p = DefaultParams()
	}
	return &Calculator{params: p}
}

// Price derives the offer for one user from their decision, feature vector,
// and raw transactions.
//
// An undefined PD (fraud gate, scorer unavailable) is a policy fallback, not
// a point on the pricing curve: the rate is pinned to the ceiling and the
// display score to 0.
func (c *Calculator) Price(res waterfall.Result, v *features.Vector, txns []ledger.Transaction) Offer {
	income := monthlyIncome(txns)

	effectivePD := 1.0
	rate := c.params.APRCeiling
	if res.PD != nil {
		effectivePD = *res.PD
		rate = c.params.APRFloor + effectivePD*c.params.PDSpread
		if rate > c.params.APRCeiling {
			rate = c.params.APRCeiling
		}
	}

	score := int(math.Round((1 - effectivePD) * 100))
	if score < 0 {
		score = 0
	}

	var limit float64
	if res.Decision == waterfall.Approve {
		freeCashflow := math.Max(0, v.NetCashflow)
		raw := income * freeCashflow * c.params.Affordability * c.params.TermMonths
		limit = roundToNearest(raw, c.params.RoundTo)
	}

	return Offer{
		LoanLimit:     limit,
		InterestRate:  rate,
		MonthlyIncome: income,
		Score:         score,
	}
}

// monthlyIncome sums the positive amounts and normalizes them to a 30-day
// month over the span actually observed in the data, so 1500 of inflow over
// 15 days reads as 3000 a month. Only the degenerate single-day span falls
// back to a whole month.
func monthlyIncome(txns []ledger.Transaction) float64 {
	var total float64
	var minDate, maxDate time.Time
	for _, t := range txns {
		if t.Amount > 0 {
			total += t.Amount
		}
		if minDate.IsZero() || t.Date.Before(minDate) {
			minDate = t.Date
		}
		if maxDate.IsZero() || t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}
	if total == 0 {
		return 0
	}
	spanDays := maxDate.Sub(minDate).Hours() / 24
	months := spanDays / 30
	if months <= 0 {
		months = 1
	}
	return total / months
}

// roundToNearest rounds to the nearest multiple of unit, half away from
// zero, using decimal arithmetic to keep money amounts exact.
func roundToNearest(amount float64, unit int64) float64 {
	u := decimal.NewFromInt(unit)
	rounded := decimal.NewFromFloat(amount).DivRound(u, 0).Mul(u)
	return rounded.InexactFloat64()
}
