package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Collect(t *testing.T) {
	fetcher := &MockFetcher{Price: 50000}
	c := NewCollector(fetcher, "BTC-USD", Options{})

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", snap.Asset)
	assert.Equal(t, 50000.0, snap.Price)
	assert.Len(t, snap.Bars, 720)
	assert.Len(t, snap.Returns, 719)
	assert.Len(t, snap.VolWindow, 24*7)
	for _, v := range snap.VolWindow {
		assert.Greater(t, v, 0.0)
	}
}

func TestCollector_NotEnoughBars(t *testing.T) {
	fetcher := &MockFetcher{Bars: generateMockBars(100, 50, time.Hour, time.Now())}
	c := NewCollector(fetcher, "BTC-USD", Options{})

	_, err := c.Collect(context.Background())
	assert.True(t, errors.Is(err, ErrNotEnoughBars))
}

func TestCollector_FetchError(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("boom")}, "BTC-USD", Options{})
	_, err := c.Collect(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestCollector_ShortWindowLeavesVolWindowEmpty(t *testing.T) {
	fetcher := &MockFetcher{Price: 10, Bars: generateMockBars(10, 20, time.Hour, time.Now())}
	c := NewCollector(fetcher, "X", Options{MinBars: 5, VolPeriod: 30})

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.VolWindow)
	assert.Len(t, snap.Returns, 19)
}

func TestYahooFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BTC-USD", r.URL.Path)
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1700003600,1700000000,1700007200],
			"indicators":{"quote":[{"open":[2,1,null],"high":[2,1,null],"low":[2,1,null],"close":[2,1,null],"volume":[5,4,null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "BTC", "1h", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 2.0, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "NOPE", "1h", 10)
	assert.ErrorContains(t, err, "No data found")
}

func TestBinanceFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		switch r.URL.Path {
		case "/api/v3/klines":
			assert.Equal(t, "1h", r.URL.Query().Get("interval"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			fmt.Fprint(w, `[[1700003600000,"101.0","102.0","100.0","101.5","10.0",1700007199999],
				[1700000000000,"100.0","101.0","99.0","100.5","12.0",1700003599999]]`)
		case "/api/v3/ticker/price":
			fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"101.75"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL+"/", "", 100)
	bars, err := f.FetchBars(context.Background(), "BTC-USD", "1h", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 101.5, bars[1].Close)
	assert.Equal(t, int64(1700000000000), bars[0].Time.UnixMilli())

	price, err := f.FetchCurrentPrice(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, 101.75, price)
}

func TestBinanceFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		fmt.Fprint(w, "nope")
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "", 0)
	_, err := f.FetchBars(context.Background(), "BTC-USD", "1h", 10)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "418"))
}

func TestYahooRange(t *testing.T) {
	cases := []struct {
		interval string
		limit    int
		want     string
	}{
		{"1h", 24, "5d"},
		{"1h", 720, "1mo"},
		{"1h", 5000, "3mo"},
		{"1d", 60, "3mo"},
		{"1d", 5000, "2y"},
		{"15m", 10, "1mo"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, yahooRange(tc.interval, tc.limit), "%s/%d", tc.interval, tc.limit)
	}
}

func TestBinanceSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", binanceSymbol("BTC-USD"))
	assert.Equal(t, "ETHUSDT", binanceSymbol("eth-usd"))
	assert.Equal(t, "BTCUSDT", binanceSymbol("BTCUSDT"))
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher("binance", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "binance", f.Name())

	f, err = NewFetcher("", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", f.Name())

	_, err = NewFetcher("bloomberg", "", "", 0)
	assert.Error(t, err)
}

var _ Fetcher = (*MockFetcher)(nil)
