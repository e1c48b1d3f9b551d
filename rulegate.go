// Package rulegate wires the evaluation pipeline together: market data cache,
// rule generation, bounded parameter optimization and signal consensus.
// One strategy's failure is data in the batch summary, never a crash of the
// whole run.
package rulegate

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/rulegate/pkg/backtest"
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/extract"
	"github.com/raykavin/rulegate/pkg/logger"
	"github.com/raykavin/rulegate/pkg/logger/zerolog"
	"github.com/raykavin/rulegate/pkg/marketdata"
	"github.com/raykavin/rulegate/pkg/optimizer"
	"github.com/raykavin/rulegate/pkg/signal"
	"github.com/schollz/progressbar/v3"
)

// DefaultLog is the logger used when none is injected
var DefaultLog = newDefaultLog()

func newDefaultLog() logger.Logger {
	log, err := zerolog.New("info", "2006-01-02 15:04:05", true, false)
	if err != nil {
		panic(err)
	}
	return log
}

// Pipeline owns the shared collaborators of one evaluation run. Caches and
// stores are passed in explicitly; nothing deeper in the pipeline reaches for
// ambient global state.
type Pipeline struct {
	cache     *marketdata.Cache
	generator extract.Generator
	optimizer *optimizer.Optimizer
	store     core.ResultStore
	notifier  core.Notifier
	options   backtest.Options
	log       logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithNotifier delivers consensus decisions and errors to a notifier
func WithNotifier(notifier core.Notifier) Option {
	return func(p *Pipeline) { p.notifier = notifier }
}

// WithBacktestOptions overrides the harness configuration used for signals
func WithBacktestOptions(options backtest.Options) Option {
	return func(p *Pipeline) { p.options = options }
}

// New creates a pipeline from its collaborators
func New(cache *marketdata.Cache, generator extract.Generator, opt *optimizer.Optimizer,
	store core.ResultStore, log logger.Logger, options ...Option) *Pipeline {

	pipeline := &Pipeline{
		cache:     cache,
		generator: generator,
		optimizer: opt,
		store:     store,
		options:   backtest.DefaultOptions(),
		log:       log,
	}

	for _, option := range options {
		option(pipeline)
	}

	return pipeline
}

// BatchOptions bound one optimization batch
type BatchOptions struct {
	Start     time.Time
	End       time.Time
	SplitDate time.Time
	MaxAge    time.Duration
	MaxTries  int
	Progress  bool
}

// BatchSummary enumerates every outcome of a batch. Partial results are
// always persisted; a summary is produced even when strategies fail.
type BatchSummary struct {
	Results []core.OptimizationResult
	Passed  int
	Failed  int
	Skipped int
	Errors  int
}

// RunBatch evaluates every spec: validate, generate the rule, fetch the
// symbol's history and optimize. Inert specs and failed generations are
// recorded as skipped, invalid specs and data failures as errors, and in all
// cases the batch continues.
func (p *Pipeline) RunBatch(ctx context.Context, specs []core.StrategySpec, opts BatchOptions) (*BatchSummary, error) {
	summary := &BatchSummary{}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(specs)), "strategies")
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p.runOne(ctx, spec, opts, summary)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	p.log.Infof("batch complete: %d pass, %d fail, %d skipped, %d errors",
		summary.Passed, summary.Failed, summary.Skipped, summary.Errors)
	return summary, nil
}

func (p *Pipeline) runOne(ctx context.Context, spec core.StrategySpec, opts BatchOptions, summary *BatchSummary) {
	log := p.log.WithField("strategy", spec.Name)

	if err := spec.Validate(); err != nil {
		log.WithError(err).Warn("spec rejected before backtest")
		summary.Errors++
		return
	}

	if spec.Skipped() {
		log.Infof("skipped: %s", spec.SkipReason)
		summary.Skipped++
		return
	}

	rule, err := p.generator.Generate(ctx, spec)
	if err != nil {
		// A strategy without runnable code is skipped, not an evaluation error
		log.WithError(err).Warn("rule generation failed, skipping")
		summary.Skipped++
		return
	}

	series, err := p.cache.Fetch(ctx, spec.Symbol, opts.Start, opts.End, opts.MaxAge)
	if err != nil {
		log.WithError(err).Warn("market data unavailable")
		summary.Errors++
		return
	}

	result, err := p.optimizer.Optimize(ctx, rule, spec, series, opts.SplitDate, opts.MaxTries)
	if err != nil {
		log.WithError(err).Error("optimization aborted")
		summary.Errors++
		return
	}

	if err := p.store.Put(*result); err != nil {
		log.WithError(err).Error("failed to persist result")
		summary.Errors++
		return
	}

	summary.Results = append(summary.Results, *result)
	if result.Verdict == core.VerdictPass {
		summary.Passed++
	} else {
		summary.Failed++
	}
}

// Decision is one consensus vote over the current top strategies
type Decision struct {
	Consensus core.Consensus
	Tally     signal.Tally
	Signals   map[string]core.Signal
}

// Decide reads back the top-N passing results, extracts each one's current
// position state over the recent window and aggregates the majority vote.
// Strategies that error during extraction are counted and excluded from the
// majority comparison.
func (p *Pipeline) Decide(ctx context.Context, topN, recentDays int, maxAge time.Duration) (*Decision, error) {
	top, err := p.store.TopPassing(topN)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if len(top) == 0 {
		return nil, fmt.Errorf("no passing strategies to vote")
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -recentDays)

	decision := &Decision{Signals: make(map[string]core.Signal, len(top))}
	signals := make([]core.Signal, 0, len(top))

	for _, result := range top {
		sig := p.extractSignal(ctx, result, start, end, maxAge, recentDays)
		decision.Signals[result.StrategyName] = sig
		signals = append(signals, sig)
	}

	decision.Tally = signal.Count(signals)
	decision.Consensus = decision.Tally.Decision()

	if p.notifier != nil {
		p.notifier.Notify(fmt.Sprintf("Consensus: *%s* (%d long / %d flat / %d error)",
			decision.Consensus, decision.Tally.Longs, decision.Tally.Flats, decision.Tally.Errors))
	}

	return decision, nil
}

func (p *Pipeline) extractSignal(ctx context.Context, result core.OptimizationResult,
	start, end time.Time, maxAge time.Duration, recentDays int) core.Signal {

	log := p.log.WithField("strategy", result.StrategyName)

	spec := core.StrategySpec{Name: result.StrategyName, Category: result.Category, Symbol: result.Symbol}
	rule, err := p.generator.Generate(ctx, spec)
	if err != nil {
		log.WithError(err).Error("signal extraction: rule unavailable")
		return core.SignalError
	}

	recent, err := p.cache.Fetch(ctx, result.Symbol, start, end, maxAge)
	if err != nil {
		log.WithError(err).Error("signal extraction: data unavailable")
		return core.SignalError
	}

	// Extraction replays the same risk configuration the strategy was judged with
	options := p.options
	options.StopLoss = result.StopLoss
	if result.PositionSize > 0 {
		options.PositionSize = result.PositionSize
	}

	sig, err := signal.Extract(rule, result.BestParams, recent.LastN(recentDays), options)
	if err != nil {
		log.WithError(err).Error("signal extraction failed")
		return core.SignalError
	}

	return sig
}
