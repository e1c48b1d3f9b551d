package core

import "time"

// Verdict is the held-out evaluation outcome
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Signal is a single strategy's current position intent
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalFlat  Signal = "FLAT"
	SignalError Signal = "ERROR"
)

// Consensus is the majority-vote aggregation of multiple signals
type Consensus string

const (
	ConsensusLong  Consensus = "LONG"
	ConsensusFlat  Consensus = "FLAT"
	ConsensusMixed Consensus = "MIXED"
)

// OptimizationResult is one row per evaluated strategy: the best parameter
// mapping found, both window reports and the final verdict. Immutable once
// written; read back by the signal extractor.
type OptimizationResult struct {
	StrategyName string             `json:"strategy_name"`
	Category     string             `json:"category"`
	Symbol       string             `json:"symbol"`
	RuleRef      string             `json:"rule_ref"` // generated code reference
	StopLoss     float64            `json:"stop_loss"`
	PositionSize float64            `json:"position_size"`
	BestParams   Params             `json:"best_params"`
	FitReport    *PerformanceReport `json:"fit_report,omitempty"`
	TestReport   *PerformanceReport `json:"test_report,omitempty"`
	Verdict      Verdict            `json:"verdict"`
	TriesUsed    int                `json:"tries_used"`
	EvaluatedAt  time.Time          `json:"evaluated_at"`
}

// TestSharpe returns the held-out Sharpe ratio, or ok=false when it is undefined
func (r OptimizationResult) TestSharpe() (float64, bool) {
	if r.TestReport == nil || r.TestReport.Sharpe == nil {
		return 0, false
	}
	return *r.TestReport.Sharpe, true
}
