package config

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Engine    EngineConf    `yaml:"engine"`
	Waterfall WaterfallConf `yaml:"waterfall"`
	Offer     OfferConf     `yaml:"offer"`
	Model     ModelConf     `yaml:"model"`
	Portfolio PortfolioConf `yaml:"portfolio"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	UserWorkers    int `yaml:"user_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	JobHistory     int `yaml:"job_history"`
	ScoreTimeoutMs int `yaml:"score_timeout_ms"`
	BatchTimeoutMs int `yaml:"batch_timeout_ms"`
}

// WaterfallConf holds the per-deployment gate thresholds.
type WaterfallConf struct {
	FraudThreshold   float64 `yaml:"fraud_threshold"`
	RejectThreshold  float64 `yaml:"reject_threshold"`
	ApproveThreshold float64 `yaml:"approve_threshold"`
}

// OfferConf holds the pricing constants.
type OfferConf struct {
	APRFloor      float64 `yaml:"apr_floor"`
	APRCeiling    float64 `yaml:"apr_ceiling"`
	PDSpread      float64 `yaml:"pd_spread"`
	Affordability float64 `yaml:"affordability"`
	TermMonths    float64 `yaml:"term_months"`
	RoundTo       int64   `yaml:"round_to"`
}

// ModelConf points at the scoring artifact.
type ModelConf struct {
	Path string `yaml:"path"`
}

// PortfolioConf holds the default capital pool, overridable per request.
type PortfolioConf struct {
	TotalCapital float64 `yaml:"total_capital"`
}
