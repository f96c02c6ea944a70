package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"GarchSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// NewFetcher builds a fetcher by provider name.
func NewFetcher(provider, baseURL, proxyURL string, requestsPerSecond float64) (Fetcher, error) {
	switch provider {
	case "yahoo", "":
		f := NewYahooFetcher(proxyURL, requestsPerSecond)
		if baseURL != "" {
			f.BaseURL = baseURL
		}
		return f, nil
	case "binance":
		return NewBinanceFetcher(baseURL, proxyURL, requestsPerSecond), nil
	case "mock":
		return &MockFetcher{Price: 60000}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}

// httpSource is the shared HTTP plumbing of the REST fetchers.
type httpSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

func newHTTPSource(proxyURL string, requestsPerSecond float64) httpSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	src := httpSource{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
	if requestsPerSecond > 0 {
		src.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return src
}

func (s httpSource) get(ctx context.Context, endpoint string, header map[string]string) (*http.Response, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return s.Client.Do(req)
}

// getJSON performs a GET and decodes a 200 response into out.
func (s httpSource) getJSON(ctx context.Context, endpoint string, header map[string]string, out interface{}) error {
	resp, err := s.get(ctx, endpoint, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
