package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"GarchSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher reads bars from the public Yahoo Finance chart endpoint.
type YahooFetcher struct {
	httpSource
	BaseURL string
	Aliases map[string]string // short asset names to Yahoo tickers
}

// NewYahooFetcher creates a Yahoo fetcher.
func NewYahooFetcher(proxyURL string, requestsPerSecond float64) *YahooFetcher {
	return &YahooFetcher{
		httpSource: newHTTPSource(proxyURL, requestsPerSecond),
		BaseURL:    yahooBaseURL,
		Aliases:    map[string]string{"BTC": "BTC-USD", "ETH": "ETH-USD"},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) ticker(symbol string) string {
	if t, ok := f.Aliases[symbol]; ok {
		return t
	}
	return symbol
}

// chartResponse mirrors /v8/finance/chart. Quote arrays contain nulls for
// intervals without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []chartQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

func value(series []*float64, i int) float64 {
	if i >= len(series) || series[i] == nil {
		return 0
	}
	return *series[i]
}

func (f *YahooFetcher) chart(ctx context.Context, symbol, interval, span string) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", span)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.ticker(symbol)), q.Encode())

	var cr chartResponse
	if err := f.getJSON(ctx, endpoint, map[string]string{"User-Agent": "Mozilla/5.0"}, &cr); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result", symbol)
	}

	res := cr.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePrice := value(quote.Close, i)
		if closePrice == 0 {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   value(quote.Open, i),
			High:   value(quote.High, i),
			Low:    value(quote.Low, i),
			Close:  closePrice,
			Volume: value(quote.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// yahooRange picks the smallest chart range that covers limit bars.
func yahooRange(interval string, limit int) string {
	hourly := []struct {
		bars int
		span string
	}{{24 * 5, "5d"}, {24 * 30, "1mo"}, {24 * 90, "3mo"}}
	daily := []struct {
		bars int
		span string
	}{{30, "1mo"}, {90, "3mo"}, {180, "6mo"}, {365, "1y"}, {730, "2y"}}

	table := daily
	switch interval {
	case "1h", "60m":
		table = hourly
	case "1d":
	default:
		return "1mo"
	}
	for _, row := range table {
		if limit <= row.bars {
			return row.span
		}
	}
	return table[len(table)-1].span
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	bars, err := f.chart(ctx, symbol, interval, yahooRange(interval, limit))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// FetchCurrentPrice returns the latest one-minute close.
func (f *YahooFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := f.chart(ctx, symbol, "1m", "1d")
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, errors.New("yahoo: no intraday price")
	}
	return bars[len(bars)-1].Close, nil
}
