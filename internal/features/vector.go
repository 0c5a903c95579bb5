// Package features turns a user's ordered transaction history into the
// fixed-schema behavioral vector consumed by the risk scorer.
package features

// Vector is the fixed-schema per-user feature vector. It is a pure function of
// the user's transactions and optional profile: identical inputs always
// produce an identical Vector.
type Vector struct {
	UserID string `json:"user_id"`

	// Cashflow strength.
	NetCashflow     float64 `json:"net_cashflow"`
	IncomeStability float64 `json:"income_stability"` // stddev/mean of monthly inflows; higher = more volatile = riskier
	EOMBalance      float64 `json:"eom_balance"`
	NegBalanceDays  float64 `json:"neg_balance_days"`
	LowBalanceDays  float64 `json:"low_balance_days"`

	// Digital payment behavior.
	DeclinedTxns    float64 `json:"declined_txns"`
	UPIStability    float64 `json:"upi_stability"`
	WalletTransfers float64 `json:"wallet_transfers"`

	// Spending ratios (share of total successful inflow).
	EssentialRatio     float64 `json:"essential_ratio"`
	DiscretionaryRatio float64 `json:"discretionary_ratio"`
	FoodDeliveryRatio  float64 `json:"food_delivery_ratio"`
	GamingRatio        float64 `json:"gaming_ratio"`
	FashionRatio       float64 `json:"fashion_ratio"`

	// Risky merchant and BNPL behavior.
	GamblingRatio float64 `json:"gambling_ratio"`
	BNPLRatio     float64 `json:"bnpl_ratio"`
	BNPLFailures  float64 `json:"bnpl_failures"`

	// Behavioral patterns.
	NightTxns    float64 `json:"night_txns"`
	WeekendRatio float64 `json:"weekend_ratio"`
	MicroSpends  float64 `json:"micro_spends"`
	Refunds      float64 `json:"refunds"`

	// Income source mix.
	ParentalDependency float64 `json:"parental_dependency"`
	GigRatio           float64 `json:"gig_ratio"`

	// Subscriptions.
	FailedSubs float64 `json:"failed_subs"`
	ActiveSubs float64 `json:"active_subs"`

	// Device, app and tenure attributes (profile passthrough).
	SimAge           float64 `json:"sim_age"`
	DeviceAge        float64 `json:"device_age"`
	LoanApps         float64 `json:"loan_apps"`
	GamingApps       float64 `json:"gaming_apps"`
	FinanceApps      float64 `json:"finance_apps"`
	SignupTenure     float64 `json:"signup_tenure"`
	UPITenure        float64 `json:"upi_tenure"`
	AddressStability float64 `json:"address_stability"`
}

// columns is the canonical field order, fixed independently of any scoring
// artifact. Scorers reorder by name, so this order only has to be stable.
var columns = []string{
	"net_cashflow",
	"income_stability",
	"eom_balance",
	"neg_balance_days",
	"low_balance_days",
	"declined_txns",
	"upi_stability",
	"wallet_transfers",
	"essential_ratio",
	"discretionary_ratio",
	"food_delivery_ratio",
	"gaming_ratio",
	"fashion_ratio",
	"gambling_ratio",
	"bnpl_ratio",
	"bnpl_failures",
	"night_txns",
	"weekend_ratio",
	"micro_spends",
	"refunds",
	"parental_dependency",
	"gig_ratio",
	"failed_subs",
	"active_subs",
	"sim_age",
	"device_age",
	"loan_apps",
	"gaming_apps",
	"finance_apps",
	"signup_tenure",
	"upi_tenure",
	"address_stability",
}

// Columns returns the canonical field names in order (user_id excluded).
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Get returns the value of a named field. ok is false for unknown names.
func (v *Vector) Get(name string) (val float64, ok bool) {
	switch name {
	case "net_cashflow":
		return v.NetCashflow, true
	case "income_stability":
		return v.IncomeStability, true
	case "eom_balance":
		return v.EOMBalance, true
	case "neg_balance_days":
		return v.NegBalanceDays, true
	case "low_balance_days":
		return v.LowBalanceDays, true
	case "declined_txns":
		return v.DeclinedTxns, true
	case "upi_stability":
		return v.UPIStability, true
	case "wallet_transfers":
		return v.WalletTransfers, true
	case "essential_ratio":
		return v.EssentialRatio, true
	case "discretionary_ratio":
		return v.DiscretionaryRatio, true
	case "food_delivery_ratio":
		return v.FoodDeliveryRatio, true
	case "gaming_ratio":
		return v.GamingRatio, true
	case "fashion_ratio":
		return v.FashionRatio, true
	case "gambling_ratio":
		return v.GamblingRatio, true
	case "bnpl_ratio":
		return v.BNPLRatio, true
	case "bnpl_failures":
		return v.BNPLFailures, true
	case "night_txns":
		return v.NightTxns, true
	case "weekend_ratio":
		return v.WeekendRatio, true
	case "micro_spends":
		return v.MicroSpends, true
	case "refunds":
		return v.Refunds, true
	case "parental_dependency":
		return v.ParentalDependency, true
	case "gig_ratio":
		return v.GigRatio, true
	case "failed_subs":
		return v.FailedSubs, true
	case "active_subs":
		return v.ActiveSubs, true
	case "sim_age":
		return v.SimAge, true
	case "device_age":
		return v.DeviceAge, true
	case "loan_apps":
		return v.LoanApps, true
	case "gaming_apps":
		return v.GamingApps, true
	case "finance_apps":
		return v.FinanceApps, true
	case "signup_tenure":
		return v.SignupTenure, true
	case "upi_tenure":
		return v.UPITenure, true
	case "address_stability":
		return v.AddressStability, true
	}
	return 0, false
}

// Ordered returns the field values in canonical column order, the shape
// exposed to external attribution consumers.
func (v *Vector) Ordered() []float64 {
	out := make([]float64, len(columns))
	for i, name := range columns {
		out[i], _ = v.Get(name)
	}
	return out
}

// FriendlyNames maps feature fields to the display labels used by reporting
// surfaces.
var FriendlyNames = map[string]string{
	"net_cashflow":        "Monthly Savings Ratio",
	"income_stability":    "Income Volatility",
	"eom_balance":         "End-of-Month Buffer",
	"neg_balance_days":    "Days with Negative Balance",
	"low_balance_days":    "Days with Low Balance (<$200)",
	"declined_txns":       "Declined Transactions",
	"upi_stability":       "Transfer Inflow Stability",
	"wallet_transfers":    "Wallet Transfers to Friends",
	"essential_ratio":     "Essential Spending %",
	"discretionary_ratio": "Discretionary Spending %",
	"food_delivery_ratio": "Food Delivery Spend %",
	"gaming_ratio":        "Gaming Spend %",
	"fashion_ratio":       "Fashion Spend %",
	"gambling_ratio":      "Gambling/Crypto Spend %",
	"bnpl_ratio":          "BNPL Usage %",
	"bnpl_failures":       "Missed BNPL Payments",
	"night_txns":          "Late Night Transactions (2am-5am)",
	"weekend_ratio":       "Weekend Spending Spike",
	"micro_spends":        "Micro-transactions Count",
	"refunds":             "Refunds Count",
	"parental_dependency": "Reliance on Parents",
	"gig_ratio":           "Gig Economy Income %",
	"failed_subs":         "Failed Subscriptions",
	"active_subs":         "Active Subscriptions",
	"sim_age":             "SIM Card Age (Months)",
	"device_age":          "Device Age (Months)",
	"loan_apps":           "Loan Apps Installed",
	"gaming_apps":         "Gaming Apps Installed",
	"finance_apps":        "Finance Apps Installed",
	"signup_tenure":       "App Usage Tenure",
	"upi_tenure":          "UPI ID Tenure",
	"address_stability":   "Address Stability",
}
