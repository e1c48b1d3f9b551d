// Package marketdata fetches and persists daily OHLCV history per symbol with
// an explicit freshness policy, and aligns multiple series into panels.
package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// column order of the persisted per-symbol CSV files
var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

const (
	csvPrecision     = 8
	maxFetchAttempts = 3
)

// Cache persists one CSV file per symbol under a base directory. Freshness is
// decided by file modification time against the caller's max age: a fresh
// entry short-circuits the upstream feeder entirely, a stale one is always
// refetched. Stale data is never silently served past the max age decision.
type Cache struct {
	dir    string
	feeder core.Feeder
	log    logger.Logger

	// one fetch in flight per symbol; concurrent callers share the result
	group singleflight.Group
}

// NewCache creates a cache rooted at dir, creating the directory when missing
func NewCache(dir string, feeder core.Feeder, log logger.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		dir:    dir,
		feeder: feeder,
		log:    log,
	}, nil
}

// Fetch returns the persisted series for the symbol when its age is below
// maxAge, otherwise fetches fresh history for [start, end], persists it and
// returns it. Upstream failure is a DataUnavailable error for this symbol.
func (c *Cache) Fetch(ctx context.Context, symbol string, start, end time.Time,
	maxAge time.Duration) (core.PriceSeries, error) {

	if series, ok := c.readFresh(symbol, maxAge); ok {
		c.log.WithField("symbol", symbol).Debug("cache hit")
		return series, nil
	}

	// Same-symbol fetches are serialized; different symbols are independent
	value, err, _ := c.group.Do(symbol, func() (any, error) {
		// A fetch finished by another caller while we waited is fresh enough
		if series, ok := c.readFresh(symbol, maxAge); ok {
			return series, nil
		}
		return c.refresh(ctx, symbol, start, end)
	})
	if err != nil {
		return nil, err
	}

	return value.(core.PriceSeries), nil
}

// refresh pulls fresh history with bounded retries, normalizes it and
// persists the result atomically
func (c *Cache) refresh(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	retry := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
	}

	var (
		series core.PriceSeries
		err    error
	)

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		series, err = c.feeder.CandlesByPeriod(ctx, symbol, start, end)
		if err == nil {
			break
		}
		if attempt == maxFetchAttempts {
			return nil, fmt.Errorf("%w: %s after %d attempts: %v",
				core.ErrDataUnavailable, symbol, maxFetchAttempts, err)
		}

		c.log.WithError(err).WithField("symbol", symbol).
			Warnf("fetch attempt %d/%d failed", attempt, maxFetchAttempts)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", core.ErrDataUnavailable, symbol, ctx.Err())
		case <-time.After(retry.Duration()):
		}
	}

	series = normalize(series)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s returned no usable rows", core.ErrDataUnavailable, symbol)
	}

	if err := c.persist(symbol, series); err != nil {
		return nil, fmt.Errorf("%w: persist %s: %v", core.ErrDataUnavailable, symbol, err)
	}

	c.log.WithField("symbol", symbol).Infof("cached %d candles", len(series))
	return series, nil
}

// normalize drops rows lacking a required field and duplicate or out-of-order
// dates, so the series invariant holds before anything downstream sees it
func normalize(series core.PriceSeries) core.PriceSeries {
	out := make(core.PriceSeries, 0, len(series))
	for _, candle := range series {
		if !candle.IsValid() {
			continue
		}
		if len(out) > 0 && !candle.Time.After(out[len(out)-1].Time) {
			continue
		}
		out = append(out, candle)
	}
	return out
}

func (c *Cache) path(symbol string) string {
	return filepath.Join(c.dir, symbol+".csv")
}

// readFresh loads the persisted entry when its modification time is within maxAge
func (c *Cache) readFresh(symbol string, maxAge time.Duration) (core.PriceSeries, bool) {
	info, err := os.Stat(c.path(symbol))
	if err != nil || time.Since(info.ModTime()) >= maxAge {
		return nil, false
	}

	series, err := c.read(symbol)
	if err != nil {
		c.log.WithError(err).WithField("symbol", symbol).Warn("unreadable cache entry, refetching")
		return nil, false
	}

	return series, true
}

func (c *Cache) read(symbol string) (core.PriceSeries, error) {
	file, err := os.Open(c.path(symbol))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("cache entry for %s is empty", symbol)
	}

	series := make(core.PriceSeries, 0, len(lines)-1)
	for _, line := range lines[1:] {
		candle, err := parseLine(symbol, line)
		if err != nil {
			return nil, err
		}
		series = append(series, candle)
	}

	return series, nil
}

func parseLine(symbol string, line []string) (core.Candle, error) {
	if len(line) != len(csvHeaders) {
		return core.Candle{}, fmt.Errorf("malformed row for %s: %d columns", symbol, len(line))
	}

	ts, err := strconv.ParseInt(line[0], 10, 64)
	if err != nil {
		return core.Candle{}, fmt.Errorf("bad timestamp %q: %w", line[0], err)
	}

	values := make([]float64, 5)
	for i, raw := range line[1:] {
		values[i], err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("bad value %q: %w", raw, err)
		}
	}

	return core.Candle{
		Symbol: symbol,
		Time:   time.Unix(ts, 0).UTC(),
		Open:   values[0],
		Close:  values[1],
		Low:    values[2],
		High:   values[3],
		Volume: values[4],
	}, nil
}

// persist writes the series to a temporary file and renames it into place, so
// a failed write never leaves a partial entry behind
func (c *Cache) persist(symbol string, series core.PriceSeries) error {
	tmp, err := os.CreateTemp(c.dir, symbol+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeaders); err != nil {
		tmp.Close()
		return err
	}
	for _, candle := range series {
		if err := writer.Write(candle.ToSlice(csvPrecision)); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path(symbol))
}
