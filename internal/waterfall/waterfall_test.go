package waterfall_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/priyamvad/credflow/internal/features"
	"github.com/priyamvad/credflow/internal/scorer"
	"github.com/priyamvad/credflow/internal/waterfall"
)

// stubScorer returns a fixed PD or error.
type stubScorer struct {
	pd  float64
	err error
}

func (s stubScorer) Score(context.Context, *features.Vector) (float64, error) {
	return s.pd, s.err
}

// slowScorer blocks until its context is done.
type slowScorer struct{}

func (slowScorer) Score(ctx context.Context, _ *features.Vector) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestEvaluate_ModelGate(t *testing.T) {
	cases := []struct {
		name     string
		pd       float64
		decision waterfall.Decision
		gate     int
		reason   string
	}{
		{"low pd approves", 0.05, waterfall.Approve, waterfall.GateModel, "Low Probability of Default (0.05)"},
		{"moderate pd refers", 0.50, waterfall.Refer, waterfall.GateRefer, "Moderate Risk (0.50) - Manual Review Required"},
		{"high pd rejects", 0.85, waterfall.Reject, waterfall.GateModel, "High Probability of Default (0.85)"},
		{"approve boundary refers", 0.10, waterfall.Refer, waterfall.GateRefer, "Moderate Risk (0.10) - Manual Review Required"},
		{"reject boundary refers", 0.80, waterfall.Refer, waterfall.GateRefer, "Moderate Risk (0.80) - Manual Review Required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := waterfall.New(waterfall.DefaultThresholds(), nil, stubScorer{pd: tc.pd}, 0)
			res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})

			if res.Decision != tc.decision {
				t.Errorf("decision = %s, want %s", res.Decision, tc.decision)
			}
			if res.Gate != tc.gate {
				t.Errorf("gate = %d, want %d", res.Gate, tc.gate)
			}
			if res.Reason != tc.reason {
				t.Errorf("reason = %q, want %q", res.Reason, tc.reason)
			}
			if res.PD == nil || *res.PD != tc.pd {
				t.Errorf("pd = %v, want %g", res.PD, tc.pd)
			}
			if res.UserID != "u1" {
				t.Errorf("user_id = %q, want u1", res.UserID)
			}
		})
	}
}

func TestEvaluate_FraudGate(t *testing.T) {
	w := waterfall.New(waterfall.DefaultThresholds(), waterfall.ConstantFraud(0.9), stubScorer{pd: 0.01}, 0)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})

	if res.Decision != waterfall.Reject {
		t.Errorf("decision = %s, want Reject", res.Decision)
	}
	if res.Gate != waterfall.GateFraud {
		t.Errorf("gate = %d, want %d", res.Gate, waterfall.GateFraud)
	}
	if res.Reason != "Fraud Check Failed" {
		t.Errorf("reason = %q", res.Reason)
	}
	if res.PD != nil {
		t.Errorf("pd = %v, want nil at the fraud gate", *res.PD)
	}
}

func TestEvaluate_FraudBoundaryPasses(t *testing.T) {
	// Exactly at the threshold does not fire.
	w := waterfall.New(waterfall.DefaultThresholds(), waterfall.ConstantFraud(0.5), stubScorer{pd: 0.05}, 0)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})
	if res.Decision != waterfall.Approve {
		t.Errorf("decision = %s, want Approve past the fraud gate", res.Decision)
	}
}

func TestEvaluate_ScorerUnavailable(t *testing.T) {
	w := waterfall.New(waterfall.DefaultThresholds(), nil, stubScorer{err: scorer.ErrUnavailable}, 0)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})

	if res.Decision != waterfall.Error {
		t.Errorf("decision = %s, want Error", res.Decision)
	}
	if res.Gate != waterfall.GateModel {
		t.Errorf("gate = %d, want %d", res.Gate, waterfall.GateModel)
	}
	if res.Reason != "Model not loaded" {
		t.Errorf("reason = %q, want Model not loaded", res.Reason)
	}
	if res.PD != nil {
		t.Errorf("pd = %v, want nil on scorer failure", *res.PD)
	}
}

func TestEvaluate_SchemaMismatch(t *testing.T) {
	err := &scorer.SchemaError{Missing: []string{"net_cashflow"}}
	w := waterfall.New(waterfall.DefaultThresholds(), nil, stubScorer{err: err}, 0)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})

	if res.Decision != waterfall.Error {
		t.Errorf("decision = %s, want Error", res.Decision)
	}
	if !strings.HasPrefix(res.Reason, "Model input invalid") {
		t.Errorf("reason = %q, want Model input invalid prefix", res.Reason)
	}
}

func TestEvaluate_ScorerTimeout(t *testing.T) {
	w := waterfall.New(waterfall.DefaultThresholds(), nil, slowScorer{}, 10*time.Millisecond)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})

	if res.Decision != waterfall.Error {
		t.Errorf("decision = %s, want Error", res.Decision)
	}
	if res.Reason != "Model scoring timed out" {
		t.Errorf("reason = %q, want Model scoring timed out", res.Reason)
	}
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	th := waterfall.Thresholds{Fraud: 0.5, Reject: 0.6, Approve: 0.3}
	w := waterfall.New(th, nil, stubScorer{pd: 0.25}, 0)
	res := w.Evaluate(context.Background(), &features.Vector{UserID: "u1"})
	if res.Decision != waterfall.Approve {
		t.Errorf("decision = %s, want Approve under widened approve threshold", res.Decision)
	}
}
