package ledger

import "time"

// Status is the settlement outcome of a transaction.
// The zero value is Success: inputs without a status column are treated as
// fully settled (degraded mode, see Ledger.StatusKnown).
type Status string

const (
	StatusSuccess  Status = "Success"
	StatusDeclined Status = "Declined"
	StatusFailed   Status = "Failed"
)

// Well-known transaction categories. The set is open; unknown categories
// simply fall outside every named spending bucket.
const (
	CategoryEssential        = "Essential"
	CategoryRent             = "Rent"
	CategoryUtilities        = "Utilities"
	CategoryGrocery          = "Grocery"
	CategoryGas              = "Gas"
	CategoryMedical          = "Medical"
	CategoryDiscretionary    = "Discretionary"
	CategoryShopping         = "Shopping"
	CategoryEntertainment    = "Entertainment"
	CategoryFoodDelivery     = "Food Delivery"
	CategoryGaming           = "Gaming"
	CategoryFashion          = "Fashion"
	CategoryGamblingCrypto   = "Gambling/Crypto"
	CategoryBNPL             = "BNPL"
	CategorySubscription     = "Subscription"
	CategoryRefund           = "Refund"
	CategoryTransferIn       = "Transfer In"
	CategoryParentalTransfer = "Parental Transfer"
	CategoryFreelanceIncome  = "Freelance Income"
	CategoryPayroll          = "Payroll"
)

// defaultHour is assumed when the input carries no time-of-day column.
const defaultHour = 12

// Transaction is a single immutable bank-ledger record. Amount sign encodes
// direction: positive = inflow, negative = outflow.
type Transaction struct {
	UserID   string    `json:"user_id"`
	Date     time.Time `json:"date"`
	Hour     int       `json:"hour"`
	Amount   float64   `json:"amount"`
	Merchant string    `json:"merchant_name"`
	Category string    `json:"category"`
	Status   Status    `json:"status"`
}

// Settled reports whether the transaction completed successfully.
func (t Transaction) Settled() bool { return t.Status == StatusSuccess }

// Inflow reports whether money moved into the account.
func (t Transaction) Inflow() bool { return t.Amount > 0 }

// Outflow reports whether money moved out of the account.
func (t Transaction) Outflow() bool { return t.Amount < 0 }

// Profile holds the optional static device/app/tenure attributes for a user.
// Every field defaults to zero for a missing column or a missing user.
type Profile struct {
	UserID           string  `json:"user_id"`
	SimAgeMonths     float64 `json:"sim_age_months"`
	DeviceAgeMonths  float64 `json:"device_age_months"`
	LoanApps         float64 `json:"loan_apps_installed"`
	GamingApps       float64 `json:"gaming_apps_installed"`
	FinanceApps      float64 `json:"finance_apps_installed"`
	SignupTenureDays float64 `json:"signup_tenure_days"`
	UPITenureDays    float64 `json:"upi_id_tenure_days"`
	AddressStability float64 `json:"address_stability_flag"`
}
