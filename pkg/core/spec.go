package core

import (
	"fmt"
	"strings"
)

// Params is a mapping of parameter name to numeric value, passed to a rule at run time
type Params map[string]float64

// Clone returns an independent copy of the parameter mapping
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// StrategySpec is the declarative description of a trading rule, produced once
// by the extraction collaborator and immutable thereafter.
type StrategySpec struct {
	Name         string  `json:"name"`
	Knowledge    string  `json:"knowledge"` // provenance reference
	Category     string  `json:"category"`
	Symbol       string  `json:"symbol"`    // single ticker only
	Timeframe    string  `json:"timeframe"` // fixed to one-day bars
	EntrySignal  string  `json:"entry_signal"`
	ExitSignal   string  `json:"exit_signal"`
	StopLoss     float64 `json:"stop_loss"`     // fraction in [0, 0.5]
	PositionSize float64 `json:"position_size"` // fraction in (0, 1]

	DefaultParams Params   `json:"default_params"`
	Adaptations   []string `json:"adaptations,omitempty"`

	// SkipReason marks the spec as inert. Mutually exclusive with all trading fields.
	SkipReason string `json:"skip_reason,omitempty"`
}

// Skipped reports whether the spec is inert and carries no tradable fields
func (s StrategySpec) Skipped() bool {
	return s.SkipReason != ""
}

// Validate checks the spec invariants. Skipped specs must be otherwise empty;
// tradable specs must name a single ticker, daily timeframe, signal texts and
// in-range stop-loss and position-size fractions.
func (s StrategySpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrSpecInvalid)
	}

	if s.Skipped() {
		if s.Symbol != "" || s.EntrySignal != "" || s.ExitSignal != "" || len(s.DefaultParams) > 0 {
			return fmt.Errorf("%w: skipped spec %q carries trading fields", ErrSpecInvalid, s.Name)
		}
		return nil
	}

	if s.Symbol == "" {
		return fmt.Errorf("%w: spec %q missing ticker", ErrSpecInvalid, s.Name)
	}

	// Multi-asset specs are rejected upstream; enforce the single ticker invariant here too
	if strings.ContainsAny(s.Symbol, ", ") {
		return fmt.Errorf("%w: spec %q targets multiple tickers (%s)", ErrSpecInvalid, s.Name, s.Symbol)
	}

	if s.Timeframe != "1d" {
		return fmt.Errorf("%w: spec %q timeframe must be 1d, got %q", ErrSpecInvalid, s.Name, s.Timeframe)
	}

	if s.EntrySignal == "" || s.ExitSignal == "" {
		return fmt.Errorf("%w: spec %q missing signal text", ErrSpecInvalid, s.Name)
	}

	if s.StopLoss < 0 || s.StopLoss > 0.5 {
		return fmt.Errorf("%w: spec %q stop-loss %.3f out of [0, 0.5]", ErrSpecInvalid, s.Name, s.StopLoss)
	}

	if s.PositionSize <= 0 || s.PositionSize > 1 {
		return fmt.Errorf("%w: spec %q position size %.3f out of (0, 1]", ErrSpecInvalid, s.Name, s.PositionSize)
	}

	return nil
}
