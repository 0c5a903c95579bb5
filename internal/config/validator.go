package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields
//   - Gate threshold ordering (approve < reject, both probabilities)
//   - Sane concurrency and pricing values
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}

	if cfg.Engine.UserWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("engine.user_workers must be positive, got %d", cfg.Engine.UserWorkers))
	}
	if cfg.Engine.QueueDepth <= 0 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must be positive, got %d", cfg.Engine.QueueDepth))
	}
	if cfg.Engine.JobHistory <= 0 {
		errs = append(errs, fmt.Sprintf("engine.job_history must be positive, got %d", cfg.Engine.JobHistory))
	}
	if cfg.Engine.ScoreTimeoutMs <= 0 {
		errs = append(errs, fmt.Sprintf("engine.score_timeout_ms must be positive, got %d", cfg.Engine.ScoreTimeoutMs))
	}

	w := cfg.Waterfall
	if w.FraudThreshold < 0 || w.FraudThreshold > 1 {
		errs = append(errs, fmt.Sprintf("waterfall.fraud_threshold must be in [0,1], got %g", w.FraudThreshold))
	}
	if w.ApproveThreshold < 0 || w.ApproveThreshold > 1 {
		errs = append(errs, fmt.Sprintf("waterfall.approve_threshold must be in [0,1], got %g", w.ApproveThreshold))
	}
	if w.RejectThreshold < 0 || w.RejectThreshold > 1 {
		errs = append(errs, fmt.Sprintf("waterfall.reject_threshold must be in [0,1], got %g", w.RejectThreshold))
	}
	if w.ApproveThreshold >= w.RejectThreshold {
		errs = append(errs, fmt.Sprintf("waterfall.approve_threshold (%g) must be below reject_threshold (%g)", w.ApproveThreshold, w.RejectThreshold))
	}

	o := cfg.Offer
	if o.APRFloor < 0 {
		errs = append(errs, fmt.Sprintf("offer.apr_floor must not be negative, got %g", o.APRFloor))
	}
	if o.APRCeiling < o.APRFloor {
		errs = append(errs, fmt.Sprintf("offer.apr_ceiling (%g) must not be below apr_floor (%g)", o.APRCeiling, o.APRFloor))
	}
	if o.Affordability <= 0 || o.Affordability > 1 {
		errs = append(errs, fmt.Sprintf("offer.affordability must be in (0,1], got %g", o.Affordability))
	}
	if o.TermMonths <= 0 {
		errs = append(errs, fmt.Sprintf("offer.term_months must be positive, got %g", o.TermMonths))
	}
	if o.RoundTo <= 0 {
		errs = append(errs, fmt.Sprintf("offer.round_to must be positive, got %d", o.RoundTo))
	}

	if cfg.Model.Path == "" {
		errs = append(errs, "model.path is required")
	}
	if cfg.Portfolio.TotalCapital < 0 {
		errs = append(errs, fmt.Sprintf("portfolio.total_capital must not be negative, got %g", cfg.Portfolio.TotalCapital))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
