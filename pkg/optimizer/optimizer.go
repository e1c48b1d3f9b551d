// Package optimizer searches a rule's parameter space under a bounded try
// budget and keeps the best-scoring passing combination, judged on held-out
// data by the verdict engine.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/logger"
	"github.com/raykavin/rulegate/pkg/verdict"
	"github.com/schollz/progressbar/v3"
)

// Optimizer enumerates parameter combinations and retains the best passing one
type Optimizer struct {
	engine         *verdict.Engine
	log            logger.Logger
	valuesPerParam int
	parallelism    int
	showProgress   bool
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithValuesPerParameter overrides how many candidate values each parameter
// range is expanded into
func WithValuesPerParameter(n int) Option {
	return func(o *Optimizer) { o.valuesPerParam = n }
}

// WithParallelism evaluates independent combinations across n workers.
// Each worker receives its own copy of the price series; simulation state is
// never shared between concurrent runs.
func WithParallelism(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithProgress renders a progress bar over the evaluated combinations
func WithProgress(enabled bool) Option {
	return func(o *Optimizer) { o.showProgress = enabled }
}

// New creates an optimizer backed by the given verdict engine
func New(engine *verdict.Engine, log logger.Logger, options ...Option) *Optimizer {
	opt := &Optimizer{
		engine:         engine,
		log:            log,
		valuesPerParam: defaultValuesPerParameter,
		parallelism:    1,
	}
	for _, option := range options {
		option(opt)
	}
	return opt
}

// candidate is one evaluated combination
type candidate struct {
	params     core.Params
	evaluation *verdict.Evaluation
	distance   float64
}

// Optimize runs the bounded grid search for one rule. Every sampled
// combination goes through the verdict engine; an error in any single
// combination is recorded as a failed attempt and the search continues.
// The returned result is never nil on success: when no combination passes it
// carries the best attempt with verdict FAIL, kept for diagnostics.
func (o *Optimizer) Optimize(ctx context.Context, rule core.Rule, spec core.StrategySpec,
	series core.PriceSeries, splitDate time.Time, maxTries int) (*core.OptimizationResult, error) {

	if maxTries < 1 {
		return nil, fmt.Errorf("max tries must be at least 1, got %d", maxTries)
	}

	defaults := spec.DefaultParams
	paramGrid := buildGrid(defaults, o.valuesPerParam)
	indices := paramGrid.sampleIndices(maxTries, defaults)
	runOptions := o.engine.OptionsFor(spec)

	o.log.WithField("strategy", spec.Name).
		Infof("grid search: %d of %d combinations within budget %d",
			len(indices), paramGrid.size(), maxTries)

	var bar *progressbar.ProgressBar
	if o.showProgress {
		bar = progressbar.Default(int64(len(indices)), spec.Name)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, o.parallelism)
		bestPass  *candidate
		bestFail  *candidate
		failures  int
		tries     int
	)

	for _, index := range indices {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}
		tries++

		go func(params core.Params) {
			defer wg.Done()
			defer func() { <-semaphore }()

			evaluation, err := o.engine.EvaluateWith(rule, params, series.Clone(), splitDate, runOptions)

			mu.Lock()
			defer mu.Unlock()

			if bar != nil {
				_ = bar.Add(1)
			}

			if err != nil {
				failures++
				o.log.WithError(err).WithField("params", formatParams(params)).
					Debug("combination failed, continuing search")
				return
			}

			cand := &candidate{
				params:     params,
				evaluation: evaluation,
				distance:   distanceFromDefaults(params, defaults),
			}

			if evaluation.Verdict == core.VerdictPass {
				if betterCandidate(cand, bestPass) {
					bestPass = cand
				}
			} else if betterCandidate(cand, bestFail) {
				bestFail = cand
			}
		}(paramGrid.combination(index))
	}

	wg.Wait()

	if failures > 0 {
		o.log.WithField("strategy", spec.Name).
			Warnf("%d of %d combinations raised evaluation errors", failures, tries)
	}

	return o.buildResult(spec, rule, defaults, bestPass, bestFail, tries), nil
}

func (o *Optimizer) buildResult(spec core.StrategySpec, rule core.Rule, defaults core.Params,
	bestPass, bestFail *candidate, tries int) *core.OptimizationResult {

	result := &core.OptimizationResult{
		StrategyName: spec.Name,
		Category:     spec.Category,
		Symbol:       spec.Symbol,
		RuleRef:      rule.Name(),
		StopLoss:     spec.StopLoss,
		PositionSize: spec.PositionSize,
		Verdict:      core.VerdictFail,
		TriesUsed:    tries,
		EvaluatedAt:  time.Now().UTC(),
	}

	best := bestPass
	if best == nil {
		best = bestFail
	}

	if best == nil {
		// Every combination errored; keep the defaults for diagnostics
		result.BestParams = defaults.Clone()
		return result
	}

	result.BestParams = best.params
	result.FitReport = best.evaluation.FitReport
	result.TestReport = best.evaluation.TestReport
	result.Verdict = best.evaluation.Verdict
	return result
}

// betterCandidate decides whether a beats b: higher held-out Sharpe first,
// then lower held-out drawdown, then the combination closest to the declared
// defaults, and finally a fixed parameter-order comparison so the winner does
// not depend on evaluation completion order.
func betterCandidate(a, b *candidate) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}

	aSharpe, aOK := testSharpe(a)
	bSharpe, bOK := testSharpe(b)
	if aOK != bOK {
		return aOK
	}
	if aSharpe != bSharpe {
		return aSharpe > bSharpe
	}

	aDD := a.evaluation.TestReport.MaxDrawdown
	bDD := b.evaluation.TestReport.MaxDrawdown
	if aDD != bDD {
		return aDD < bDD
	}

	if a.distance != b.distance {
		return a.distance < b.distance
	}

	return formatParams(a.params) < formatParams(b.params)
}

func testSharpe(c *candidate) (float64, bool) {
	if c.evaluation.TestReport == nil || c.evaluation.TestReport.Sharpe == nil {
		return 0, false
	}
	return *c.evaluation.TestReport.Sharpe, true
}

// formatParams renders a parameter set with sorted keys for stable logs and
// comparisons
func formatParams(params core.Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %g", name, params[name])
	}
	sb.WriteByte('}')
	return sb.String()
}
