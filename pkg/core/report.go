package core

import "time"

// Trade is one executed round trip, or an open position when ExitTime is nil
type Trade struct {
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   *time.Time `json:"exit_time,omitempty"` // nil while still open
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	Size       float64    `json:"size"`
	PnL        float64    `json:"pnl"` // realized, or unrealized for an open trade
}

// Open reports whether the trade is still open at the final bar
func (t Trade) Open() bool {
	return t.ExitTime == nil
}

// PerformanceReport is the normalized output of one backtest run.
// Sharpe and WinRate are nil when there is no evidence to compute them
// (zero trades, or a zero-variance equity curve for Sharpe); callers must
// treat nil as "insufficient evidence", never as a failing score.
type PerformanceReport struct {
	Symbol         string    `json:"symbol"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TotalReturn    float64   `json:"total_return"`
	BuyHoldReturn  float64   `json:"buy_hold_return"`
	Sharpe         *float64  `json:"sharpe,omitempty"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	TradeCount     int       `json:"trade_count"`
	WinRate        *float64  `json:"win_rate,omitempty"`
	ExposureTime   float64   `json:"exposure_time"` // fraction of bars with an open position
	FinalEquity    float64   `json:"final_equity"`
	CommissionPaid float64   `json:"commission_paid"`
	Trades         []Trade   `json:"trades"`
}

// LastTrade returns the most recent trade, or false when none were executed
func (r *PerformanceReport) LastTrade() (Trade, bool) {
	if len(r.Trades) == 0 {
		return Trade{}, false
	}
	return r.Trades[len(r.Trades)-1], true
}
