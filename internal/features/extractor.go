package features

import (
	"math"
	"time"

	"github.com/priyamvad/credflow/internal/ledger"
)

// lowBalanceThreshold marks the running-balance level treated as "low".
const lowBalanceThreshold = 200

// Night window for late-night activity, inclusive hours.
const (
	nightStartHour = 2
	nightEndHour   = 5
)

// Micro-spend magnitude band, inclusive.
const (
	microSpendMin = 20
	microSpendMax = 200
)

var (
	essentialCategories = set(
		ledger.CategoryEssential, ledger.CategoryRent, ledger.CategoryUtilities,
		ledger.CategoryGrocery, ledger.CategoryGas, ledger.CategoryMedical,
	)
	discretionaryCategories = set(
		ledger.CategoryDiscretionary, ledger.CategoryShopping, ledger.CategoryEntertainment,
	)
	foodDeliveryCategories = set(ledger.CategoryFoodDelivery)
	gamingCategories       = set(ledger.CategoryGaming)
	fashionCategories      = set(ledger.CategoryFashion)
	gamblingCategories     = set(ledger.CategoryGamblingCrypto)
	bnplCategories         = set(ledger.CategoryBNPL)
	transferInCategories   = set(ledger.CategoryTransferIn, ledger.CategoryParentalTransfer)
)

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Extract computes the feature vector for a single user from their
// date-ascending transactions and optional profile. It is deterministic and
// never fails: parse problems are rejected at ingestion, unknown categories
// fall outside every bucket, and every ratio with a non-positive denominator
// is 0.
func Extract(userID string, txns []ledger.Transaction, prof ledger.Profile) Vector {
	v := Vector{UserID: userID}

	var (
		totalInflow  float64 // successful inflows
		totalOutflow float64 // |successful outflows|
	)
	for _, t := range txns {
		if !t.Settled() {
			continue
		}
		if t.Inflow() {
			totalInflow += t.Amount
		} else if t.Outflow() {
			totalOutflow += -t.Amount
		}
	}

	// Cashflow strength.
	v.NetCashflow = totalInflow - totalOutflow
	v.IncomeStability = incomeStability(txns)
	v.EOMBalance, v.NegBalanceDays, v.LowBalanceDays = balanceFeatures(txns)

	// Digital payment behavior.
	var upiAmounts []float64
	for _, t := range txns {
		if t.Status == ledger.StatusDeclined {
			v.DeclinedTxns++
		}
		if t.Settled() && t.Inflow() {
			if _, ok := transferInCategories[t.Category]; ok {
				upiAmounts = append(upiAmounts, t.Amount)
			}
		}
		if t.Settled() && t.Outflow() && t.Category == ledger.CategoryDiscretionary {
			v.WalletTransfers++
		}
	}
	if len(upiAmounts) >= 2 {
		if m := mean(upiAmounts); m > 0 {
			v.UPIStability = stddev(upiAmounts) / m
		}
	}

	// Spending ratios.
	ratio := func(cats map[string]struct{}) float64 {
		if totalInflow <= 0 {
			return 0
		}
		var spend float64
		for _, t := range txns {
			if t.Settled() && t.Outflow() {
				if _, ok := cats[t.Category]; ok {
					spend += -t.Amount
				}
			}
		}
		return spend / totalInflow
	}
	v.EssentialRatio = ratio(essentialCategories)
	v.DiscretionaryRatio = ratio(discretionaryCategories)
	v.FoodDeliveryRatio = ratio(foodDeliveryCategories)
	v.GamingRatio = ratio(gamingCategories)
	v.FashionRatio = ratio(fashionCategories)
	v.GamblingRatio = ratio(gamblingCategories)
	v.BNPLRatio = ratio(bnplCategories)

	// Behavioral patterns and remaining counts.
	var weekendSpend, weekdaySpend float64
	for _, t := range txns {
		if t.Category == ledger.CategoryBNPL && t.Status == ledger.StatusFailed {
			v.BNPLFailures++
		}
		if t.Category == ledger.CategorySubscription && t.Status == ledger.StatusFailed {
			v.FailedSubs++
		}
		if !t.Settled() {
			continue
		}
		if t.Outflow() {
			if t.Hour >= nightStartHour && t.Hour <= nightEndHour {
				v.NightTxns++
			}
			if isWeekend(t.Date) {
				weekendSpend += -t.Amount
			} else {
				weekdaySpend += -t.Amount
			}
			if mag := -t.Amount; mag >= microSpendMin && mag <= microSpendMax {
				v.MicroSpends++
			}
		}
		if t.Inflow() && t.Category == ledger.CategoryRefund {
			v.Refunds++
		}
	}
	v.WeekendRatio = weekendSpend / (weekdaySpend + 1.0)

	// Income source mix.
	if totalInflow > 0 {
		var parental, gig float64
		for _, t := range txns {
			if t.Settled() && t.Inflow() {
				switch t.Category {
				case ledger.CategoryParentalTransfer:
					parental += t.Amount
				case ledger.CategoryFreelanceIncome:
					gig += t.Amount
				}
			}
		}
		v.ParentalDependency = parental / totalInflow
		v.GigRatio = gig / totalInflow
	}

	// Active subscriptions: distinct merchants among settled subscription
	// outflows.
	subMerchants := make(map[string]struct{})
	for _, t := range txns {
		if t.Settled() && t.Outflow() && t.Category == ledger.CategorySubscription {
			subMerchants[t.Merchant] = struct{}{}
		}
	}
	v.ActiveSubs = float64(len(subMerchants))

	// Profile passthrough; the zero Profile gives zero defaults.
	v.SimAge = prof.SimAgeMonths
	v.DeviceAge = prof.DeviceAgeMonths
	v.LoanApps = prof.LoanApps
	v.GamingApps = prof.GamingApps
	v.FinanceApps = prof.FinanceApps
	v.SignupTenure = prof.SignupTenureDays
	v.UPITenure = prof.UPITenureDays
	v.AddressStability = prof.AddressStability

	return v
}

// ExtractAll maps every user partition of the ledger to its vector, keyed by
// user ID. Partitions are disjoint so callers may parallelize per user.
func ExtractAll(l *ledger.Ledger, profiles ledger.ProfileIndex) map[string]Vector {
	out := make(map[string]Vector)
	for userID, txns := range l.Partition() {
		out[userID] = Extract(userID, txns, profiles.Lookup(userID))
	}
	return out
}

// incomeStability is the coefficient of variation of inflow summed into
// calendar-month buckets, with empty months between the first and last
// inflow counting as zero. Fewer than two buckets, or a non-positive mean,
// default to 1.0: maximum volatility.
func incomeStability(txns []ledger.Transaction) float64 {
	first, last := time.Time{}, time.Time{}
	sums := make(map[string]float64)
	for _, t := range txns {
		if !t.Settled() || !t.Inflow() {
			continue
		}
		sums[monthKey(t.Date)] += t.Amount
		if first.IsZero() || t.Date.Before(first) {
			first = t.Date
		}
		if last.IsZero() || t.Date.After(last) {
			last = t.Date
		}
	}
	if len(sums) == 0 {
		return 1.0
	}

	var buckets []float64
	for m := firstOfMonth(first); !m.After(last); m = m.AddDate(0, 1, 0) {
		buckets = append(buckets, sums[monthKey(m)])
	}
	if len(buckets) < 2 {
		return 1.0
	}
	m := mean(buckets)
	if m <= 0 {
		return 1.0
	}
	return stddev(buckets) / m
}

// balanceFeatures walks the cumulative running balance of ALL transactions
// (any status) in sorted order and derives the end-of-month buffer plus the
// negative/low balance event counts.
func balanceFeatures(txns []ledger.Transaction) (eom float64, negDays, lowDays float64) {
	if len(txns) == 0 {
		return 0, 0, 0
	}
	lastInMonth := make(map[string]float64)
	var months []string
	var balance float64
	for _, t := range txns {
		balance += t.Amount
		if balance < 0 {
			negDays++
		}
		if balance < lowBalanceThreshold {
			lowDays++
		}
		key := monthKey(t.Date)
		if _, seen := lastInMonth[key]; !seen {
			months = append(months, key)
		}
		lastInMonth[key] = balance
	}
	var sum float64
	for _, key := range months {
		sum += lastInMonth[key]
	}
	return sum / float64(len(months)), negDays, lowDays
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func monthKey(d time.Time) string {
	return d.Format("2006-01")
}

func firstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
