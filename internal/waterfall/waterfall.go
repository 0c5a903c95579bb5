// Package waterfall implements the sequential gated decision machine:
// fraud check, model risk, manual-review fallthrough. Evaluation is terminal
// at the first gate that fires.
package waterfall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/scorer"
)

// Decision is the terminal outcome of a waterfall run.
type Decision string

const (
	Approve Decision = "Approve"
	Reject  Decision = "Reject"
	Refer   Decision = "Refer"
	Error   Decision = "Error"
)

// Gate numbers, recorded for auditability.
const (
	GateFraud = 1
	GateModel = 2
	GateRefer = 3
)

// Result is the tagged outcome of one evaluation. PD is nil only when the
// fraud gate fired or the scorer was unavailable.
type Result struct {
	UserID   string   `json:"user_id"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
	PD       *float64 `json:"pd"`
	Gate     int      `json:"gate"`
}

// FraudPolicy scores a feature vector for fraud likelihood in [0,1]. The
// reference deployment ships a constant stub; deployments plug their own.
type FraudPolicy interface {
	Score(v *features.Vector) float64
}

// ConstantFraud is a FraudPolicy that always returns a fixed score.
type ConstantFraud float64

func (c ConstantFraud) Score(*features.Vector) float64 { return float64(c) }

// Thresholds are the tunable gate boundaries. Approve requires PD strictly
// below Approve; Reject requires PD strictly above Reject; everything
// between refers.
type Thresholds struct {
	Fraud   float64 // Gate 1 fires above this
	Reject  float64 // Gate 2 rejects above this
	Approve float64 // Gate 2 approves below this
}

// DefaultThresholds match the reference deployment.
func DefaultThresholds() Thresholds {
	return Thresholds{Fraud: 0.5, Reject: 0.8, Approve: 0.1}
}

// Waterfall evaluates feature vectors through the three gates.
type Waterfall struct {
	thresholds   Thresholds
	fraud        FraudPolicy
	scorer       scorer.Scorer
	scoreTimeout time.Duration
}

// New builds a Waterfall. A nil fraud policy defaults to the constant-zero
// stub; scoreTimeout bounds each scorer call (0 = no deadline).
func New(t Thresholds, fraud FraudPolicy, s scorer.Scorer, scoreTimeout time.Duration) *Waterfall {
	if fraud == nil {
		fraud = ConstantFraud(0)
	}
	return &Waterfall{thresholds: t, fraud: fraud, scorer: s, scoreTimeout: scoreTimeout}
}

// Evaluate runs the gates in order and returns the first terminal result.
// With an available scorer the outcome is always exactly one of
// Approve/Reject/Refer; scorer failures (absent artifact, schema mismatch,
// timeout) surface as an Error decision at gate 2, never as a Go error.
func (w *Waterfall) Evaluate(ctx context.Context, v *features.Vector) Result {
	// Gate 1: fraud.
	if w.fraud.Score(v) > w.thresholds.Fraud {
		return Result{
			UserID:   v.UserID,
			Decision: Reject,
			Reason:   "Fraud Check Failed",
			Gate:     GateFraud,
		}
	}

	// Gate 2: model risk.
	scoreCtx := ctx
	if w.scoreTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, w.scoreTimeout)
		defer cancel()
	}
	pd, err := w.scorer.Score(scoreCtx, v)
	if err != nil {
		return Result{
			UserID:   v.UserID,
			Decision: Error,
			Reason:   gate2Reason(err),
			Gate:     GateModel,
		}
	}

	switch {
	case pd > w.thresholds.Reject:
		return Result{
			UserID:   v.UserID,
			Decision: Reject,
			Reason:   fmt.Sprintf("High Probability of Default (%.2f)", pd),
			PD:       &pd,
			Gate:     GateModel,
		}
	case pd < w.thresholds.Approve:
		return Result{
			UserID:   v.UserID,
			Decision: Approve,
			Reason:   fmt.Sprintf("Low Probability of Default (%.2f)", pd),
			PD:       &pd,
			Gate:     GateModel,
		}
	}

	// Gate 3: manual review.
	return Result{
		UserID:   v.UserID,
		Decision: Refer,
		Reason:   fmt.Sprintf("Moderate Risk (%.2f) - Manual Review Required", pd),
		PD:       &pd,
		Gate:     GateRefer,
	}
}

func gate2Reason(err error) string {
	var schemaErr *scorer.SchemaError
	switch {
	case errors.Is(err, scorer.ErrUnavailable):
		return "Model not loaded"
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("Model input invalid: %s", schemaErr)
	case errors.Is(err, context.DeadlineExceeded):
		return "Model scoring timed out"
	default:
		return fmt.Sprintf("Model scoring failed: %s", err)
	}
}
