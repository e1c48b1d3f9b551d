// Package backtest executes one trading rule with one parameter set over one
// price series and produces a normalized performance report.
package backtest

import (
	"fmt"

	"github.com/raykavin/rulegate/pkg/core"
)

// Options configures a single backtest run
type Options struct {
	InitialCash    float64
	CommissionRate float64 // fraction of notional charged on every fill
	StopLoss       float64 // exit fraction below entry price, 0 disables
	PositionSize   float64 // fraction of equity committed per entry

	// ExclusiveOrders keeps at most one net position open: a new entry while a
	// position is open is a no-op instead of pyramiding
	ExclusiveOrders bool
}

// DefaultOptions returns the standard harness configuration
func DefaultOptions() Options {
	return Options{
		InitialCash:     10_000,
		CommissionRate:  0.001,
		PositionSize:    1.0,
		ExclusiveOrders: true,
	}
}

// position tracks the single open long position during simulation
type position struct {
	units      float64
	entryPrice float64
	entryIndex int
	notional   float64
	commission float64
}

// Run simulates the rule bar-by-bar over the series and returns its report.
// Bars are processed in chronological order only: the rule sees a dataframe
// ending at the current bar, never future data. Given the same series, rule
// and parameters the report is bit-for-bit reproducible.
func Run(rule core.Rule, params core.Params, series core.PriceSeries, opts Options) (report *core.PerformanceReport, err error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", core.ErrInsufficientData)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if opts.InitialCash <= 0 {
		return nil, fmt.Errorf("%w: initial cash must be positive", core.ErrEvaluationError)
	}
	if opts.PositionSize <= 0 || opts.PositionSize > 1 {
		return nil, fmt.Errorf("%w: position size %.3f out of (0, 1]", core.ErrEvaluationError, opts.PositionSize)
	}

	// A rule is opaque generated code; a panic inside it is an evaluation
	// error of this run, not a crash of the caller's batch
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("%w: rule %s panicked: %v", core.ErrEvaluationError, rule.Name(), r)
		}
	}()

	var (
		df             = core.NewDataframe(series[0].Symbol)
		cash           = opts.InitialCash
		pos            *position
		trades         []core.Trade
		equity         = make([]float64, 0, len(series))
		barsInPosition int
		commissionPaid float64
		warmup         = rule.WarmupPeriod(params)
	)

	closeTrade := func(exitIndex int, exitPrice float64) {
		proceeds := pos.units * exitPrice
		fee := proceeds * opts.CommissionRate
		cash += proceeds - fee
		commissionPaid += fee

		exitTime := series[exitIndex].Time
		trades = append(trades, core.Trade{
			EntryTime:  series[pos.entryIndex].Time,
			ExitTime:   &exitTime,
			EntryPrice: pos.entryPrice,
			ExitPrice:  exitPrice,
			Size:       pos.units,
			PnL:        proceeds - pos.notional - pos.commission - fee,
		})
		pos = nil
	}

	for i, candle := range series {
		df.Append(candle)

		// Protective stop is evaluated against the bar's low before the rule runs
		if pos != nil && opts.StopLoss > 0 {
			stopPrice := pos.entryPrice * (1 - opts.StopLoss)
			if candle.Low <= stopPrice {
				closeTrade(i, stopPrice)
			}
		}

		if df.Len() > warmup {
			switch rule.OnBar(df, params) {
			case core.Enter:
				if pos == nil {
					notional := (cash + positionValue(pos, candle.Close)) * opts.PositionSize
					if notional > cash {
						notional = cash
					}
					fee := notional * opts.CommissionRate
					if notional > 0 && candle.Close > 0 {
						cash -= notional + fee
						commissionPaid += fee
						pos = &position{
							units:      notional / candle.Close,
							entryPrice: candle.Close,
							entryIndex: i,
							notional:   notional,
							commission: fee,
						}
					}
				}
			case core.Exit:
				if pos != nil {
					closeTrade(i, candle.Close)
				}
			}
		}

		if pos != nil {
			barsInPosition++
		}
		equity = append(equity, cash+positionValue(pos, candle.Close))
	}

	// A position still open at the final bar stays open: it carries no exit
	// time and its unrealized result, which is the basis for signal extraction
	if pos != nil {
		lastClose := series[len(series)-1].Close
		trades = append(trades, core.Trade{
			EntryTime:  series[pos.entryIndex].Time,
			EntryPrice: pos.entryPrice,
			Size:       pos.units,
			PnL:        pos.units*lastClose - pos.notional - pos.commission,
		})
	}

	return buildReport(series, trades, equity, barsInPosition, commissionPaid, opts), nil
}

func positionValue(pos *position, price float64) float64 {
	if pos == nil {
		return 0
	}
	return pos.units * price
}
