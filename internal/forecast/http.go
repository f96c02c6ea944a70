package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/model"
)

// HTTPForecaster delegates GARCH(p,q) fitting to a remote service.
type HTTPForecaster struct {
	BaseURL    string
	P, Q       int
	MaxRetries int
	Client     *http.Client
}

// NewHTTPForecaster returns a GARCH(1,1) client for serviceURL.
func NewHTTPForecaster(serviceURL string, timeout time.Duration) *HTTPForecaster {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPForecaster{
		BaseURL:    strings.TrimRight(serviceURL, "/"),
		P:          1,
		Q:          1,
		MaxRetries: 3,
		Client:     &http.Client{Timeout: timeout},
	}
}

func (f *HTTPForecaster) Name() string { return "garch" }

type forecastRequest struct {
	Returns []float64 `json:"returns"`
	P       int       `json:"p"`
	Q       int       `json:"q"`
	Horizon int       `json:"horizon"`
}

type forecastResponse struct {
	Volatility *float64           `json:"volatility"`
	Params     map[string]float64 `json:"params"`
	Error      string             `json:"error"`
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func (f *HTTPForecaster) Forecast(ctx context.Context, returns []float64) (model.Forecast, error) {
	if len(returns) < 2 {
		return model.Forecast{}, fmt.Errorf("%w: got %d", ErrTooFewReturns, len(returns))
	}
	body, err := json.Marshal(forecastRequest{Returns: returns, P: f.P, Q: f.Q, Horizon: 1})
	if err != nil {
		return model.Forecast{}, err
	}

	attempts := f.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		fc, err := f.post(ctx, body)
		if err == nil {
			return fc, nil
		}
		lastErr = err
		var perm permanentError
		if errors.As(err, &perm) {
			break
		}
		if i == attempts-1 {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("garch service call failed, retrying")
		select {
		case <-ctx.Done():
			return model.Forecast{}, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return model.Forecast{}, fmt.Errorf("garch forecast: %w", lastErr)
}

func (f *HTTPForecaster) post(ctx context.Context, body []byte) (model.Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/garch/forecast", bytes.NewReader(body))
	if err != nil {
		return model.Forecast{}, permanentError{err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Forecast{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Forecast{}, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return model.Forecast{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if resp.StatusCode != http.StatusOK {
		return model.Forecast{}, permanentError{fmt.Errorf("status %d: %s", resp.StatusCode, string(data))}
	}

	var out forecastResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Forecast{}, permanentError{fmt.Errorf("decode: %w", err)}
	}
	if out.Error != "" {
		return model.Forecast{}, permanentError{errors.New(out.Error)}
	}
	if out.Volatility == nil || math.IsNaN(*out.Volatility) || *out.Volatility < 0 {
		return model.Forecast{}, permanentError{errors.New("response has no valid volatility")}
	}
	return model.Forecast{Volatility: *out.Volatility, Model: f.Name(), Params: out.Params}, nil
}
