package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/priyamvad/credflow/internal/engine"
	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/ledger"
	"github.com/priyamvad/credflow/internal/metrics"
)

const maxUploadBytes = 64 << 20 // 64 MiB per CSV upload

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng *engine.Engine
	mux *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine) http.Handler {
	h := &Handler{eng: eng, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/assessments", h.assess)
	h.mux.HandleFunc("POST /v1/assessments/csv", h.assessCSV)
	h.mux.HandleFunc("POST /v1/assessments/async", h.assessAsync)
	h.mux.HandleFunc("GET /v1/jobs/{id}", h.getJob)
	h.mux.HandleFunc("GET /v1/model", h.modelInfo)
	h.mux.HandleFunc("POST /v1/model/reload", h.modelReload)
	h.mux.HandleFunc("GET /v1/features", h.featureSchema)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

// assessRequest is the JSON batch submission body. TotalCapital overrides
// the configured capital pool when present.
type assessRequest struct {
	Transactions []ledger.Record  `json:"transactions"`
	Profiles     []ledger.Profile `json:"profiles,omitempty"`
	TotalCapital *float64         `json:"total_capital,omitempty"`
}

func (h *Handler) decodeAssessRequest(r *http.Request) (*ledger.Ledger, ledger.ProfileIndex, *float64, error) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(req.Transactions) == 0 {
		return nil, nil, nil, fmt.Errorf("transactions must not be empty")
	}
	l, err := ledger.FromRecords(req.Transactions)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, ledger.NewProfileIndex(req.Profiles), req.TotalCapital, nil
}

// POST /v1/assessments — synchronous JSON batch assessment.
func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	l, profiles, capital, err := h.decodeAssessRequest(r)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	res, err := h.eng.AssessSync(r.Context(), l, profiles, capital)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/assessments/csv — multipart upload: "transactions" (required)
// and "profiles" (optional) CSV files, "total_capital" form value.
func (h *Handler) assessCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %s", err))
		return
	}

	txnFile, _, err := r.FormFile("transactions")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "transactions" file`)
		return
	}
	defer txnFile.Close()

	l, err := ledger.ReadTransactions(r.Context(), txnFile)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	var profiles ledger.ProfileIndex
	if profFile, _, err := r.FormFile("profiles"); err == nil {
		defer profFile.Close()
		recs, err := ledger.ReadProfiles(r.Context(), profFile)
		if err != nil {
			writeIngestError(w, err)
			return
		}
		profiles = ledger.NewProfileIndex(recs)
	}

	var capital *float64
	if s := r.FormValue("total_capital"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid total_capital %q", s))
			return
		}
		capital = &v
	}

	res, err := h.eng.AssessSync(r.Context(), l, profiles, capital)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/assessments/async — enqueue a batch, poll via /v1/jobs/{id}.
func (h *Handler) assessAsync(w http.ResponseWriter, r *http.Request) {
	l, profiles, capital, err := h.decodeAssessRequest(r)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	jobID := h.eng.AssessAsync(l, profiles, capital)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"users":  len(l.Users()),
	})
}

// GET /v1/jobs/{id} — fetch an async job snapshot.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := h.eng.Job(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown job %q", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /v1/model — scoring artifact status.
func (h *Handler) modelInfo(w http.ResponseWriter, r *http.Request) {
	a := h.eng.Scorer().Artifact()
	if a == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"loaded": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":   true,
		"version":  a.Version,
		"kind":     a.Kind,
		"features": len(a.Features),
	})
}

// POST /v1/model/reload — re-read the scoring artifact from disk.
func (h *Handler) modelReload(w http.ResponseWriter, r *http.Request) {
	a, err := h.eng.Scorer().Reload()
	if err != nil {
		metrics.ModelReloads.WithLabelValues("error").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	metrics.ModelReloads.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  a.Version,
		"features": len(a.Features),
	})
}

// GET /v1/features — the ordered feature schema and display names consumed
// by external attribution tooling.
func (h *Handler) featureSchema(w http.ResponseWriter, r *http.Request) {
	cols := features.Columns()
	out := make([]map[string]string, len(cols))
	for i, c := range cols {
		out[i] = map[string]string{
			"name":          c,
			"friendly_name": features.FriendlyNames[c],
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": out,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the work queue is >80% full. A missing scoring
// artifact does not fail readiness; the engine serves Error decisions in
// degraded mode.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
		"model_loaded":      h.eng.Scorer().Available(),
	})
}

