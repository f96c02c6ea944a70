package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"GarchSentinel/internal/model"
)

const (
	binanceBaseURL   = "https://api.binance.com"
	binanceMaxLimit  = 1000
	binanceKlineCols = 6
)

// BinanceFetcher implements Fetcher using the Binance spot REST API.
type BinanceFetcher struct {
	httpSource
	BaseURL string
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string, requestsPerSecond float64) *BinanceFetcher {
	if baseURL == "" {
		baseURL = binanceBaseURL
	}
	return &BinanceFetcher{
		httpSource: newHTTPSource(proxyURL, requestsPerSecond),
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceSymbol maps BTC-USD style tickers to BTCUSDT.
func binanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
	if strings.HasSuffix(s, "USD") {
		s += "T"
	}
	return s
}

func (f *BinanceFetcher) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	if limit <= 0 || limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}
	q := url.Values{}
	q.Set("symbol", binanceSymbol(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, q.Encode())

	var rows [][]interface{}
	if err := f.getJSON(ctx, endpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < binanceKlineCols {
			return nil, fmt.Errorf("decode bars: row %d has %d columns", i, len(row))
		}
		openTime, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("decode bars: row %d open time is %T", i, row[0])
		}
		var vals [5]float64
		for j := range vals {
			v, err := parseNumber(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("decode bars: row %d col %d: %w", i, j+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, model.Bar{
			Time:   time.UnixMilli(int64(openTime)).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *BinanceFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.BaseURL, url.QueryEscape(binanceSymbol(symbol)))
	var ticker struct {
		Price string `json:"price"`
	}
	if err := f.getJSON(ctx, endpoint, nil, &ticker); err != nil {
		return 0, fmt.Errorf("binance ticker: %w", err)
	}
	return strconv.ParseFloat(ticker.Price, 64)
}

func parseNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case string:
		return strconv.ParseFloat(n, 64)
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
