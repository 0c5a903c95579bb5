package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	parseBatchSize  = 5000
	maxParseWorkers = 8
)

// ParseError identifies the exact malformed record that aborted ingestion.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: field %q: cannot parse %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", time.RFC3339}

var timeLayouts = []string{"15:04:05", "15:04"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultHour, nil
	}
	for _, layout := range timeLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm.Hour(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time format")
}

// header maps lower-cased column names to indices.
type header map[string]int

func (h header) value(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h header) has(col string) bool {
	_, ok := h[col]
	return ok
}

func readHeader(rec []string) header {
	h := make(header, len(rec))
	for i, name := range rec {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h
}

// ReadTransactions ingests tabular transaction records.
//
// Required columns: user_id, date, amount, merchant_name, category.
// Optional: time (hour of day, defaults to noon) and status (its absence
// switches the Ledger into degraded mode).
//
// Any unparseable date, time, or amount aborts the whole read with a
// *ParseError naming the offending line; partial batches are never returned.
func ReadTransactions(ctx context.Context, r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read transactions header: %w", err)
	}
	h := readHeader(head)
	for _, required := range []string{"user_id", "date", "amount"} {
		if !h.has(required) {
			return nil, fmt.Errorf("transactions: missing required column %q", required)
		}
	}
	statusKnown := h.has("status")
	timed := h.has("time")

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}

	txns := make([]Transaction, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for start := 0; start < len(records); start += parseBatchSize {
		end := min(start+parseBatchSize, len(records))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				// Line 1 is the header.
				tx, err := parseTransaction(h, records[i], i+2, statusKnown, timed)
				if err != nil {
					return err
				}
				txns[i] = tx
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(txns, statusKnown), nil
}

func parseTransaction(h header, record []string, line int, statusKnown, timed bool) (Transaction, error) {
	date, err := parseDate(h.value(record, "date"))
	if err != nil {
		return Transaction{}, &ParseError{Line: line, Field: "date", Value: h.value(record, "date"), Err: err}
	}

	hour := defaultHour
	if timed {
		hour, err = parseHour(h.value(record, "time"))
		if err != nil {
			return Transaction{}, &ParseError{Line: line, Field: "time", Value: h.value(record, "time"), Err: err}
		}
	}

	amount, err := strconv.ParseFloat(h.value(record, "amount"), 64)
	if err != nil {
		return Transaction{}, &ParseError{Line: line, Field: "amount", Value: h.value(record, "amount"), Err: err}
	}

	status := StatusSuccess
	if statusKnown {
		switch s := h.value(record, "status"); s {
		case "", string(StatusSuccess):
			status = StatusSuccess
		case string(StatusDeclined):
			status = StatusDeclined
		case string(StatusFailed):
			status = StatusFailed
		default:
			return Transaction{}, &ParseError{Line: line, Field: "status", Value: s, Err: fmt.Errorf("unknown status")}
		}
	}

	return Transaction{
		UserID:   h.value(record, "user_id"),
		Date:     date,
		Hour:     hour,
		Amount:   amount,
		Merchant: h.value(record, "merchant_name"),
		Category: h.value(record, "category"),
		Status:   status,
	}, nil
}

// ReadProfiles ingests the optional static user-profile table. Missing
// numeric cells default to zero; a non-numeric cell aborts with *ParseError.
func ReadProfiles(ctx context.Context, r io.Reader) ([]Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read profiles header: %w", err)
	}
	h := readHeader(head)
	if !h.has("user_id") {
		return nil, fmt.Errorf("profiles: missing required column %q", "user_id")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	profiles := make([]Profile, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for start := 0; start < len(records); start += parseBatchSize {
		end := min(start+parseBatchSize, len(records))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				p, err := parseProfile(h, records[i], i+2)
				if err != nil {
					return err
				}
				profiles[i] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func parseProfile(h header, record []string, line int) (Profile, error) {
	num := func(col string) (float64, error) {
		s := h.value(record, col)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ParseError{Line: line, Field: col, Value: s, Err: err}
		}
		return v, nil
	}

	p := Profile{UserID: h.value(record, "user_id")}
	fields := []struct {
		col string
		dst *float64
	}{
		{"sim_age_months", &p.SimAgeMonths},
		{"device_age_months", &p.DeviceAgeMonths},
		{"loan_apps_installed", &p.LoanApps},
		{"gaming_apps_installed", &p.GamingApps},
		{"finance_apps_installed", &p.FinanceApps},
		{"signup_tenure_days", &p.SignupTenureDays},
		{"upi_id_tenure_days", &p.UPITenureDays},
		{"address_stability_flag", &p.AddressStability},
	}
	for _, f := range fields {
		v, err := num(f.col)
		if err != nil {
			return Profile{}, err
		}
		*f.dst = v
	}
	return p, nil
}
