// Package marketdata fetches historical equity candles from Yahoo Finance.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	apperrors "markowitz/internal/errors"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooUA        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// Candle is one daily OHLCV bar.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Provider fetches historical candles for a symbol over a date range.
type Provider interface {
	FetchDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]Candle, error)
}

// yahooChartResponse is the top-level Yahoo chart API response.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches daily candles from the Yahoo Finance chart API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance candle provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, baseURL: defaultBaseURL}
}

// NewYahooProviderWithBaseURL creates a provider pointed at a custom endpoint.
func NewYahooProviderWithBaseURL(httpClient *http.Client, baseURL string) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, baseURL: baseURL}
}

// FetchDailyCandles fetches the daily bars for symbol in [from, to]. Bars
// with a missing or zero close (halts, partial sessions) are dropped.
func (p *YahooProvider) FetchDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]Candle, error) {
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=history",
		p.baseURL, symbol, from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMarketDataUnavailable, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMarketDataUnavailable, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.WithMessage(apperrors.ErrTickerNotFound,
			fmt.Sprintf("symbol %s is unknown to the market data provider", symbol))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrMarketDataUnavailable, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMarketDataUnavailable, fmt.Errorf("decoding response: %w", err))
	}
	if chartResp.Chart.Error != nil {
		return nil, apperrors.WithMessage(apperrors.ErrMarketDataUnavailable,
			fmt.Sprintf("provider error for %s: %s", symbol, chartResp.Chart.Error.Description))
	}
	if len(chartResp.Chart.Result) == 0 || len(chartResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrMarketDataUnavailable,
			fmt.Sprintf("no chart data returned for %s", symbol))
	}

	result := chartResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c := quote.Close[i]
		if c == 0 || math.IsNaN(c) {
			continue
		}
		candle := Candle{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: c,
		}
		if i < len(quote.Open) {
			candle.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			candle.High = quote.High[i]
		}
		if i < len(quote.Low) {
			candle.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			candle.Volume = quote.Volume[i]
		}
		candles = append(candles, candle)
	}

	return candles, nil
}
