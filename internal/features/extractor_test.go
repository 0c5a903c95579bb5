package features_test

import (
	"math"
	"testing"
	"time"

	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/ledger"
)

func day(d int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func tx(d int, amount float64, category string, status ledger.Status) ledger.Transaction {
	return ledger.Transaction{
		UserID:   "u1",
		Date:     day(d),
		Hour:     12,
		Amount:   amount,
		Category: category,
		Status:   status,
	}
}

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// The reference scenario: one payroll inflow, one essential and one gambling
// outflow over a single month.
func TestExtract_ReferenceScenario(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, 3000, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(5, -100, ledger.CategoryEssential, ledger.StatusSuccess),
		tx(10, -50, ledger.CategoryGamblingCrypto, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})

	if !approxEq(v.NetCashflow, 2850) {
		t.Errorf("net_cashflow = %g, want 2850", v.NetCashflow)
	}
	if !approxEq(v.EssentialRatio, 100.0/3000.0) {
		t.Errorf("essential_ratio = %g, want %g", v.EssentialRatio, 100.0/3000.0)
	}
	if !approxEq(v.GamblingRatio, 50.0/3000.0) {
		t.Errorf("gambling_ratio = %g, want %g", v.GamblingRatio, 50.0/3000.0)
	}
	if v.DeclinedTxns != 0 {
		t.Errorf("declined_txns = %g, want 0", v.DeclinedTxns)
	}
	// One monthly bucket only.
	if v.IncomeStability != 1.0 {
		t.Errorf("income_stability = %g, want 1.0 for a single month", v.IncomeStability)
	}
}

func TestExtract_Determinism(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, 500, ledger.CategoryFreelanceIncome, ledger.StatusSuccess),
		tx(3, -80, ledger.CategoryShopping, ledger.StatusSuccess),
		tx(40, 700, ledger.CategoryFreelanceIncome, ledger.StatusSuccess),
	}
	a := features.Extract("u1", txns, ledger.Profile{SimAgeMonths: 9})
	b := features.Extract("u1", txns, ledger.Profile{SimAgeMonths: 9})
	if a != b {
		t.Errorf("identical inputs yielded different vectors:\n%+v\n%+v", a, b)
	}
}

func TestExtract_RatiosZeroWithoutInflow(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, -200, ledger.CategoryRent, ledger.StatusSuccess),
		tx(1, -50, ledger.CategoryGamblingCrypto, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	for _, f := range []struct {
		name string
		got  float64
	}{
		{"essential_ratio", v.EssentialRatio},
		{"gambling_ratio", v.GamblingRatio},
		{"bnpl_ratio", v.BNPLRatio},
		{"parental_dependency", v.ParentalDependency},
		{"gig_ratio", v.GigRatio},
	} {
		if f.got != 0 {
			t.Errorf("%s = %g, want 0 with no inflow", f.name, f.got)
		}
	}
}

func TestExtract_RatiosNonNegative(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(2, -300, ledger.CategoryBNPL, ledger.StatusSuccess),
		tx(3, -100, ledger.CategoryFashion, ledger.StatusSuccess),
		tx(4, -250, ledger.CategoryFoodDelivery, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	for _, name := range features.Columns() {
		val, ok := v.Get(name)
		if !ok {
			t.Fatalf("Get(%q) not ok", name)
		}
		if name == "net_cashflow" || name == "eom_balance" {
			continue // signed by definition
		}
		if val < 0 {
			t.Errorf("%s = %g, want non-negative", name, val)
		}
	}
}

func TestExtract_StatusFiltering(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, 2000, ledger.CategoryPayroll, ledger.StatusSuccess),
		// Declined outflow: excluded from sums, counted in declined_txns.
		tx(1, -400, ledger.CategoryGrocery, ledger.StatusDeclined),
		// Failed BNPL and Subscription: counted in failure features.
		tx(2, -100, ledger.CategoryBNPL, ledger.StatusFailed),
		tx(3, -15, ledger.CategorySubscription, ledger.StatusFailed),
	}
	v := features.Extract("u1", txns, ledger.Profile{})

	if !approxEq(v.NetCashflow, 2000) {
		t.Errorf("net_cashflow = %g, want 2000 (non-success outflows excluded)", v.NetCashflow)
	}
	if v.DeclinedTxns != 1 {
		t.Errorf("declined_txns = %g, want 1", v.DeclinedTxns)
	}
	if v.BNPLFailures != 1 {
		t.Errorf("bnpl_failures = %g, want 1", v.BNPLFailures)
	}
	if v.FailedSubs != 1 {
		t.Errorf("failed_subs = %g, want 1", v.FailedSubs)
	}
	if v.EssentialRatio != 0 {
		t.Errorf("essential_ratio = %g, want 0 (declined spend excluded)", v.EssentialRatio)
	}
}

func TestExtract_BalanceFeatures(t *testing.T) {
	// Running balance over ALL transactions in sorted order:
	// +100 → -200 (neg, low) → +50 (low) → +500.
	txns := []ledger.Transaction{
		tx(0, 100, ledger.CategoryTransferIn, ledger.StatusSuccess),
		tx(1, -300, ledger.CategoryRent, ledger.StatusDeclined), // still in balance walk
		tx(2, 250, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(3, 450, ledger.CategoryPayroll, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})

	if v.NegBalanceDays != 1 {
		t.Errorf("neg_balance_days = %g, want 1", v.NegBalanceDays)
	}
	if v.LowBalanceDays != 3 {
		t.Errorf("low_balance_days = %g, want 3 (balances 100, -200, 50)", v.LowBalanceDays)
	}
	// Single month: eom = final balance.
	if !approxEq(v.EOMBalance, 500) {
		t.Errorf("eom_balance = %g, want 500", v.EOMBalance)
	}
}

func TestExtract_IncomeStabilityAcrossMonths(t *testing.T) {
	// Jan 1000, Feb 1000 → stddev 0 → stability 0.
	txns := []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(31, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	if !approxEq(v.IncomeStability, 0) {
		t.Errorf("income_stability = %g, want 0 for identical months", v.IncomeStability)
	}

	// Jan 1000, Mar 1000 with an empty Feb bucket: mean 666.67,
	// sample stddev of {1000, 0, 1000} = 577.35.
	txns = []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(62, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
	}
	v = features.Extract("u1", txns, ledger.Profile{})
	want := math.Sqrt(((1000-2000.0/3)*(1000-2000.0/3)*2 + (2000.0 / 3 * 2000.0 / 3)) / 2) / (2000.0 / 3)
	if !approxEq(v.IncomeStability, want) {
		t.Errorf("income_stability = %g, want %g (empty month counts as 0)", v.IncomeStability, want)
	}
}

func TestExtract_UPIStability(t *testing.T) {
	// Fewer than 2 transfer inflows → 0.
	txns := []ledger.Transaction{
		tx(0, 500, ledger.CategoryTransferIn, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	if v.UPIStability != 0 {
		t.Errorf("upi_stability = %g, want 0 with a single transfer", v.UPIStability)
	}

	txns = []ledger.Transaction{
		tx(0, 400, ledger.CategoryTransferIn, ledger.StatusSuccess),
		tx(10, 600, ledger.CategoryParentalTransfer, ledger.StatusSuccess),
	}
	v = features.Extract("u1", txns, ledger.Profile{})
	// mean 500, sample stddev of {400,600} = 141.42
	want := math.Sqrt(2*100*100/1.0) / 500 // sqrt(20000)/500
	if !approxEq(v.UPIStability, want) {
		t.Errorf("upi_stability = %g, want %g", v.UPIStability, want)
	}
}

func TestExtract_BehavioralCounts(t *testing.T) {
	night := tx(0, -30, ledger.CategoryEntertainment, ledger.StatusSuccess)
	night.Hour = 3
	dawn := tx(1, -40, ledger.CategoryEntertainment, ledger.StatusSuccess)
	dawn.Hour = 5
	morning := tx(2, -40, ledger.CategoryEntertainment, ledger.StatusSuccess)
	morning.Hour = 6

	txns := []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		night, dawn, morning,
		tx(3, -20, ledger.CategoryShopping, ledger.StatusSuccess),  // micro (boundary)
		tx(4, -200, ledger.CategoryShopping, ledger.StatusSuccess), // micro (boundary)
		tx(5, -201, ledger.CategoryShopping, ledger.StatusSuccess), // not micro
		tx(6, 25, ledger.CategoryRefund, ledger.StatusSuccess),
		tx(7, -75, ledger.CategoryDiscretionary, ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})

	if v.NightTxns != 2 {
		t.Errorf("night_txns = %g, want 2 (hours 3 and 5)", v.NightTxns)
	}
	// Micro spends: 30, 40, 40, 20, 200, 75 in [20,200] → 6.
	if v.MicroSpends != 6 {
		t.Errorf("micro_spends = %g, want 6", v.MicroSpends)
	}
	if v.Refunds != 1 {
		t.Errorf("refunds = %g, want 1", v.Refunds)
	}
	if v.WalletTransfers != 1 {
		t.Errorf("wallet_transfers = %g, want 1", v.WalletTransfers)
	}
}

func TestExtract_WeekendRatio(t *testing.T) {
	// 2025-01-04 is a Saturday, 2025-01-06 a Monday.
	sat := tx(3, -300, ledger.CategoryEntertainment, ledger.StatusSuccess)
	mon := tx(5, -100, ledger.CategoryGrocery, ledger.StatusSuccess)
	txns := []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		sat, mon,
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	want := 300.0 / (100.0 + 1.0)
	if !approxEq(v.WeekendRatio, want) {
		t.Errorf("weekend_ratio = %g, want %g", v.WeekendRatio, want)
	}

	// No weekday spend: the +1 denominator keeps it defined.
	v = features.Extract("u1", []ledger.Transaction{sat}, ledger.Profile{})
	if !approxEq(v.WeekendRatio, 300.0) {
		t.Errorf("weekend_ratio = %g, want 300 with zero weekday spend", v.WeekendRatio)
	}
}

func TestExtract_ActiveSubscriptions(t *testing.T) {
	sub := func(d int, merchant string, status ledger.Status) ledger.Transaction {
		t := tx(d, -10, ledger.CategorySubscription, status)
		t.Merchant = merchant
		return t
	}
	txns := []ledger.Transaction{
		sub(0, "Netflix", ledger.StatusSuccess),
		sub(5, "Netflix", ledger.StatusSuccess),
		sub(6, "Spotify", ledger.StatusSuccess),
		sub(7, "Hulu", ledger.StatusFailed),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	if v.ActiveSubs != 2 {
		t.Errorf("active_subs = %g, want 2 distinct settled merchants", v.ActiveSubs)
	}
	if v.FailedSubs != 1 {
		t.Errorf("failed_subs = %g, want 1", v.FailedSubs)
	}
}

func TestExtract_ProfilePassthrough(t *testing.T) {
	prof := ledger.Profile{
		UserID:           "u1",
		SimAgeMonths:     36,
		DeviceAgeMonths:  18,
		LoanApps:         2,
		GamingApps:       7,
		FinanceApps:      3,
		SignupTenureDays: 400,
		UPITenureDays:    350,
		AddressStability: 1,
	}
	v := features.Extract("u1", nil, prof)
	if v.SimAge != 36 || v.DeviceAge != 18 || v.LoanApps != 2 || v.GamingApps != 7 ||
		v.FinanceApps != 3 || v.SignupTenure != 400 || v.UPITenure != 350 || v.AddressStability != 1 {
		t.Errorf("profile passthrough mismatch: %+v", v)
	}

	// Missing profile: all zeros, and income_stability defaults to maximum
	// volatility with no inflows.
	v = features.Extract("u2", nil, ledger.Profile{})
	if v.SimAge != 0 || v.AddressStability != 0 {
		t.Errorf("zero profile expected, got %+v", v)
	}
	if v.IncomeStability != 1.0 {
		t.Errorf("income_stability = %g, want 1.0 for empty history", v.IncomeStability)
	}
}

func TestColumns_Complete(t *testing.T) {
	cols := features.Columns()
	if len(cols) != 32 {
		t.Fatalf("expected 32 feature columns, got %d", len(cols))
	}
	seen := map[string]bool{}
	v := &features.Vector{}
	for _, c := range cols {
		if seen[c] {
			t.Errorf("duplicate column %q", c)
		}
		seen[c] = true
		if _, ok := v.Get(c); !ok {
			t.Errorf("Get(%q) not resolvable", c)
		}
	}
	if len(v.Ordered()) != 32 {
		t.Errorf("Ordered() length = %d, want 32", len(v.Ordered()))
	}
}

func TestExtract_UnknownCategoryIgnored(t *testing.T) {
	txns := []ledger.Transaction{
		tx(0, 1000, ledger.CategoryPayroll, ledger.StatusSuccess),
		tx(1, -400, "Time Travel", ledger.StatusSuccess),
	}
	v := features.Extract("u1", txns, ledger.Profile{})
	sum := v.EssentialRatio + v.DiscretionaryRatio + v.FoodDeliveryRatio +
		v.GamingRatio + v.FashionRatio + v.GamblingRatio + v.BNPLRatio
	if sum != 0 {
		t.Errorf("unknown category leaked into a ratio bucket: %+v", v)
	}
	// It still affects the cashflow and balance walk.
	if !approxEq(v.NetCashflow, 600) {
		t.Errorf("net_cashflow = %g, want 600", v.NetCashflow)
	}
}
