package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/calculator"
	"GarchSentinel/internal/model"
)

// ErrNotEnoughBars is returned when the provider returns fewer bars than MinBars.
var ErrNotEnoughBars = errors.New("not enough price bars")

// Options tunes how much history is fetched and how the volatility window is built.
type Options struct {
	Interval   string
	Limit      int
	MinBars    int
	VolPeriod  int
	WindowSize int
}

// DefaultOptions is 30 days of hourly bars with a 24-hour realized volatility
// and a one-week window.
func DefaultOptions() Options {
	return Options{
		Interval:   "1h",
		Limit:      24 * 30,
		MinBars:    100,
		VolPeriod:  24,
		WindowSize: 24 * 7,
	}
}

// Collector orchestrates data fetching and return/volatility computation.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Options Options
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, opts Options) *Collector {
	def := DefaultOptions()
	if opts.Interval == "" {
		opts.Interval = def.Interval
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.MinBars <= 0 {
		opts.MinBars = def.MinBars
	}
	if opts.VolPeriod < 2 {
		opts.VolPeriod = def.VolPeriod
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = def.WindowSize
	}
	return &Collector{Fetcher: fetcher, Symbol: symbol, Options: opts, Now: time.Now}
}

// Collect fetches bars and derives returns, the volatility window and the price.
func (c *Collector) Collect(ctx context.Context) (*model.Snapshot, error) {
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Options.Interval, c.Options.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) < c.Options.MinBars {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrNotEnoughBars, len(bars), c.Options.MinBars)
	}

	closes := calculator.Closes(bars)
	returns, err := calculator.PctReturns(closes)
	if err != nil {
		return nil, fmt.Errorf("compute returns: %w", err)
	}

	snap := &model.Snapshot{
		Asset:     c.Symbol,
		Price:     closes[len(closes)-1],
		Returns:   returns,
		Bars:      bars,
		FetchedAt: c.Now().UTC(),
	}

	if price, err := c.Fetcher.FetchCurrentPrice(ctx, c.Symbol); err != nil {
		log.Warn().Err(err).Str("fetcher", c.Fetcher.Name()).Msg("current price fetch failed, using last close")
	} else if price > 0 {
		snap.Price = price
	}

	if rolling, err := calculator.RollingStdDev(returns, c.Options.VolPeriod); err != nil {
		log.Warn().Err(err).Int("returns", len(returns)).Msg("volatility window unavailable")
	} else {
		if len(rolling) > c.Options.WindowSize {
			rolling = rolling[len(rolling)-c.Options.WindowSize:]
		}
		snap.VolWindow = rolling
	}

	return snap, nil
}
