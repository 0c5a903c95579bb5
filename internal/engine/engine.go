// Package engine runs the per-user assessment pipeline — extract, score,
// decide, price — over a bounded worker pool.
package engine

import (
	"context"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/priyamvad/credflow/internal/config"
	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/ledger"
	"github.com/priyamvad/credflow/internal/metrics"
	"github.com/priyamvad/credflow/internal/offer"
	"github.com/priyamvad/credflow/internal/scorer"
	"github.com/priyamvad/credflow/internal/waterfall"
)

// Assessment is the complete per-user output: the decision, its priced
// offer, the ordered feature vector for external attribution, and the
// spending breakdown for reporting. A caller never sees a decision without
// its offer fields: both are computed inside one worker unit.
type Assessment struct {
	waterfall.Result
	offer.Offer
	Features *features.Vector   `json:"features"`
	Spending map[string]float64 `json:"spending_by_category"`
}

// BatchResult is the outcome of assessing one ledger.
type BatchResult struct {
	Assessments  []Assessment    `json:"assessments"`
	Portfolio    offer.Portfolio `json:"portfolio"`
	ModelVersion string          `json:"model_version,omitempty"`
	Degraded     bool            `json:"degraded,omitempty"` // input had no status column
	DurationMs   int64           `json:"duration_ms"`
}

type userWork struct {
	userID  string
	txns    []ledger.Transaction
	prof    ledger.Profile
	wf      *waterfall.Waterfall
	calc    *offer.Calculator
	resultC chan<- Assessment
}

// Engine shares one read-only scorer handle and one hot-swappable config
// across all workers. Per-user units are independent pure computations over
// disjoint ledger partitions; there is no cross-user state.
type Engine struct {
	handle *scorer.Handle
	fraud  waterfall.FraudPolicy
	conf   atomic.Pointer[config.Config]
	pool   *workerPool[*userWork]
	jobs   *jobStore
}

// New creates an Engine and starts its worker pool. A nil fraud policy
// defaults to the constant-zero stub.
func New(ctx context.Context, handle *scorer.Handle, fraud waterfall.FraudPolicy, cfg *config.Config) *Engine {
	if fraud == nil {
		fraud = waterfall.ConstantFraud(0)
	}
	e := &Engine{
		handle: handle,
		fraud:  fraud,
		jobs:   newJobStore(cfg.Engine.JobHistory),
	}
	e.conf.Store(cfg)
	e.pool = newWorkerPool(ctx, cfg.Engine.UserWorkers, cfg.Engine.QueueDepth, func(ctx context.Context, w *userWork) {
		w.resultC <- assessUser(ctx, w)
	})
	return e
}

// SwapConfig atomically replaces the tuning config (used on hot-reload).
// In-flight batches keep the snapshot they started with.
func (e *Engine) SwapConfig(cfg *config.Config) {
	e.conf.Store(cfg)
}

// Config returns the current config snapshot.
func (e *Engine) Config() *config.Config {
	return e.conf.Load()
}

// Scorer returns the shared scoring handle.
func (e *Engine) Scorer() *scorer.Handle { return e.handle }

// AssessSync runs the full pipeline for every user in the ledger and blocks
// until all users are done or ctx is cancelled. capital overrides the
// configured pool when non-nil.
func (e *Engine) AssessSync(ctx context.Context, l *ledger.Ledger, profiles ledger.ProfileIndex, capital *float64) (*BatchResult, error) {
	start := time.Now()
	cfg := e.conf.Load()

	wf := waterfall.New(
		waterfall.Thresholds{
			Fraud:   cfg.Waterfall.FraudThreshold,
			Reject:  cfg.Waterfall.RejectThreshold,
			Approve: cfg.Waterfall.ApproveThreshold,
		},
		e.fraud,
		e.handle,
		time.Duration(cfg.Engine.ScoreTimeoutMs)*time.Millisecond,
	)
	calc := offer.NewCalculator(offer.Params{
		APRFloor:      cfg.Offer.APRFloor,
		APRCeiling:    cfg.Offer.APRCeiling,
		PDSpread:      cfg.Offer.PDSpread,
		Affordability: cfg.Offer.Affordability,
		TermMonths:    cfg.Offer.TermMonths,
		RoundTo:       cfg.Offer.RoundTo,
	})

	parts := l.Partition()
	resultC := make(chan Assessment, len(parts))
	for userID, txns := range parts {
		w := &userWork{
			userID:  userID,
			txns:    txns,
			prof:    profiles.Lookup(userID),
			wf:      wf,
			calc:    calc,
			resultC: resultC,
		}
		if e.pool.Submit(w) {
			metrics.JobsEnqueued.Inc()
		} else {
			// Queue saturated: run in the caller rather than dropping the
			// user, so the batch stays total.
			metrics.JobsDropped.Inc()
			resultC <- assessUser(ctx, w)
		}
	}

	assessments := make([]Assessment, 0, len(parts))
	for range parts {
		select {
		case a := <-resultC:
			assessments = append(assessments, a)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].Result.UserID < assessments[j].Result.UserID
	})

	priced := make([]offer.PricedDecision, len(assessments))
	for i, a := range assessments {
		priced[i] = offer.PricedDecision{Decision: a.Decision, LoanLimit: a.LoanLimit}
	}
	pool := cfg.Portfolio.TotalCapital
	if capital != nil {
		pool = *capital
	}

	res := &BatchResult{
		Assessments: assessments,
		Portfolio:   offer.Aggregate(priced, pool),
		Degraded:    !l.StatusKnown,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if a := e.handle.Artifact(); a != nil {
		res.ModelVersion = a.Version
	}
	metrics.AssessmentDuration.Observe(float64(res.DurationMs))
	return res, nil
}

// assessUser is the atomic per-user unit: extract, decide, price.
func assessUser(ctx context.Context, w *userWork) Assessment {
	vec := features.Extract(w.userID, w.txns, w.prof)

	scoreStart := time.Now()
	res := w.wf.Evaluate(ctx, &vec)
	metrics.ScoreDuration.Observe(time.Since(scoreStart).Seconds())

	off := w.calc.Price(res, &vec, w.txns)

	metrics.UsersAssessed.Inc()
	metrics.Decisions.WithLabelValues(string(res.Decision), strconv.Itoa(res.Gate)).Inc()

	return Assessment{
		Result:   res,
		Offer:    off,
		Features: &vec,
		Spending: spendingByCategory(w.txns),
	}
}

// spendingByCategory totals settled outflow magnitudes per category.
func spendingByCategory(txns []ledger.Transaction) map[string]float64 {
	out := make(map[string]float64)
	for _, t := range txns {
		if t.Settled() && t.Outflow() {
			out[t.Category] += -t.Amount
		}
	}
	return out
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
