package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/priyamvad/credflow/internal/ledger"
	"github.com/priyamvad/credflow/internal/metrics"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope. Ingestion failures also
// carry the offending line and field so clients can locate the bad record.
type errorResponse struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeIngestError maps ingestion failures: a malformed record is the
// client's fault and names the exact line and field; anything else is a 400
// with the wrapped message.
func writeIngestError(w http.ResponseWriter, err error) {
	var parseErr *ledger.ParseError
	if errors.As(err, &parseErr) {
		metrics.ParseFailures.Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Line:  parseErr.Line,
			Field: parseErr.Field,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
