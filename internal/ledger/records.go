package ledger

import "fmt"

// Record is the wire form of a transaction as submitted over the API.
// Date is "2006-01-02" (a few common variants are accepted), Time is an
// optional "15:04[:05]" clock, and a nil Status means the field was absent.
type Record struct {
	UserID   string  `json:"user_id"`
	Date     string  `json:"date"`
	Time     string  `json:"time,omitempty"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant_name"`
	Category string  `json:"category"`
	Status   *string `json:"status,omitempty"`
}

// FromRecords builds a Ledger from wire records. The ledger enters degraded
// mode only when no record carries a status at all. A malformed date, time,
// or status aborts with a *ParseError indexing the offending record
// (1-based).
func FromRecords(recs []Record) (*Ledger, error) {
	txns := make([]Transaction, len(recs))
	statusKnown := false
	for i, r := range recs {
		date, err := parseDate(r.Date)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Field: "date", Value: r.Date, Err: err}
		}
		hour, err := parseHour(r.Time)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Field: "time", Value: r.Time, Err: err}
		}
		status := StatusSuccess
		if r.Status != nil {
			statusKnown = true
			switch s := *r.Status; s {
			case "", string(StatusSuccess):
				status = StatusSuccess
			case string(StatusDeclined):
				status = StatusDeclined
			case string(StatusFailed):
				status = StatusFailed
			default:
				return nil, &ParseError{Line: i + 1, Field: "status", Value: s, Err: fmt.Errorf("unknown status")}
			}
		}
		txns[i] = Transaction{
			UserID:   r.UserID,
			Date:     date,
			Hour:     hour,
			Amount:   r.Amount,
			Merchant: r.Merchant,
			Category: r.Category,
			Status:   status,
		}
	}
	return New(txns, statusKnown), nil
}
