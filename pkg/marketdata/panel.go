package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/rulegate/pkg/core"
)

// Field names one OHLCV column of a panel
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
)

// Panel is a date-aligned matrix of one field across several symbols.
// Alignment is a strict inner join: a date where any symbol is missing the
// field is dropped entirely, trading completeness for alignment safety.
type Panel struct {
	Field   Field
	Dates   []time.Time
	Columns map[string][]float64 // symbol -> values aligned with Dates
}

// FetchPanel fetches every symbol through the cache and joins the series on
// their shared dates
func (c *Cache) FetchPanel(ctx context.Context, symbols []string, field Field,
	start, end time.Time, maxAge time.Duration) (*Panel, error) {

	// Preserve first-seen order while dropping duplicate symbols
	unique := set.NewLinkedHashSetString()
	for _, symbol := range symbols {
		unique.Add(symbol)
	}
	if unique.Length() == 0 {
		return nil, fmt.Errorf("%w: no symbols requested", core.ErrDataUnavailable)
	}

	ordered := make([]string, 0, unique.Length())
	for symbol := range unique.Iter() {
		ordered = append(ordered, symbol)
	}

	bySymbol := make(map[string]map[int64]float64, len(ordered))
	var first core.PriceSeries

	for i, symbol := range ordered {
		series, err := c.Fetch(ctx, symbol, start, end, maxAge)
		if err != nil {
			return nil, fmt.Errorf("panel symbol %s: %w", symbol, err)
		}

		column := make(map[int64]float64, len(series))
		for _, candle := range series {
			column[candle.Time.Unix()] = fieldValue(candle, field)
		}
		bySymbol[symbol] = column

		if i == 0 {
			first = series
		}
	}

	panel := &Panel{
		Field:   field,
		Columns: make(map[string][]float64, len(ordered)),
	}

	// Walk the first symbol's dates in order; keep a date only when every
	// symbol has the field on that date
	for _, candle := range first {
		ts := candle.Time.Unix()
		complete := true
		for _, symbol := range ordered {
			if _, ok := bySymbol[symbol][ts]; !ok {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		panel.Dates = append(panel.Dates, candle.Time)
		for _, symbol := range ordered {
			panel.Columns[symbol] = append(panel.Columns[symbol], bySymbol[symbol][ts])
		}
	}

	return panel, nil
}

func fieldValue(candle core.Candle, field Field) float64 {
	switch field {
	case FieldOpen:
		return candle.Open
	case FieldHigh:
		return candle.High
	case FieldLow:
		return candle.Low
	case FieldVolume:
		return candle.Volume
	default:
		return candle.Close
	}
}
