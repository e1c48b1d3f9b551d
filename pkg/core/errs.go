package core

import "errors"

var (
	// ErrDataUnavailable indicates the market data cache could not serve a symbol.
	// Fatal to the run requesting that symbol, never to a whole batch.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrSpecInvalid indicates a strategy spec failed validation before any backtest
	ErrSpecInvalid = errors.New("invalid strategy spec")

	// ErrGenerationFailed indicates the code generation collaborator could not
	// produce an executable rule for a spec
	ErrGenerationFailed = errors.New("rule generation failed")

	// ErrEvaluationError indicates a backtest raised during simulation
	ErrEvaluationError = errors.New("evaluation error")

	// ErrSeriesUnordered indicates a price series violates the strictly
	// increasing timestamp invariant
	ErrSeriesUnordered = errors.New("price series not strictly ordered")

	// ErrInsufficientData indicates a series is too short for the requested operation
	ErrInsufficientData = errors.New("insufficient data")
)
