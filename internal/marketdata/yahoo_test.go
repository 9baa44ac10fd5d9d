package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"markowitz/internal/testutil"
)

func chartBody(timestamps []int64, closes []float64) string {
	ts, cl := "", ""
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cl += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cl += fmt.Sprintf("%g", closes[i])
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[1000,2000,3000]}]}}],"error":null}}`,
		ts, cl, cl, cl, cl)
}

func TestFetchDailyCandles(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	stamps := []int64{day1.Unix(), day1.AddDate(0, 0, 1).Unix(), day1.AddDate(0, 0, 2).Unix()}

	t.Run("parses_candles", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/AAPL" {
				t.Errorf("expected path /AAPL, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("interval") != "1d" {
				t.Errorf("expected daily interval, got %s", r.URL.Query().Get("interval"))
			}
			fmt.Fprint(w, chartBody(stamps, []float64{100, 101.5, 99.25}))
		}))
		defer srv.Close()

		p := NewYahooProviderWithBaseURL(srv.Client(), srv.URL)
		candles, err := p.FetchDailyCandles(context.Background(), "AAPL", day1, day1.AddDate(0, 0, 3))
		testutil.AssertNoError(t, err)

		if len(candles) != 3 {
			t.Fatalf("expected 3 candles, got %d", len(candles))
		}
		if candles[0].Close != 100 || candles[2].Close != 99.25 {
			t.Errorf("unexpected closes: %v, %v", candles[0].Close, candles[2].Close)
		}
		if !candles[1].Date.Equal(day1.AddDate(0, 0, 1)) {
			t.Errorf("expected date %v, got %v", day1.AddDate(0, 0, 1), candles[1].Date)
		}
		if candles[1].Volume != 2000 {
			t.Errorf("expected volume 2000, got %d", candles[1].Volume)
		}
	})

	t.Run("drops_zero_close_bars", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartBody(stamps, []float64{100, 0, 99.25}))
		}))
		defer srv.Close()

		p := NewYahooProviderWithBaseURL(srv.Client(), srv.URL)
		candles, err := p.FetchDailyCandles(context.Background(), "AAPL", day1, day1.AddDate(0, 0, 3))
		testutil.AssertNoError(t, err)
		if len(candles) != 2 {
			t.Fatalf("expected the halted bar to be dropped, got %d candles", len(candles))
		}
	})

	t.Run("unknown_symbol", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		p := NewYahooProviderWithBaseURL(srv.Client(), srv.URL)
		_, err := p.FetchDailyCandles(context.Background(), "NOPE", day1, day1.AddDate(0, 0, 3))
		testutil.AssertAppError(t, err, "TICKER_NOT_FOUND")
	})

	t.Run("provider_error_payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"invalid range"}}}`)
		}))
		defer srv.Close()

		p := NewYahooProviderWithBaseURL(srv.Client(), srv.URL)
		_, err := p.FetchDailyCandles(context.Background(), "AAPL", day1, day1.AddDate(0, 0, 3))
		testutil.AssertAppError(t, err, "MARKET_DATA_UNAVAILABLE")
	})

	t.Run("upstream_failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewYahooProviderWithBaseURL(srv.Client(), srv.URL)
		_, err := p.FetchDailyCandles(context.Background(), "AAPL", day1, day1.AddDate(0, 0, 3))
		testutil.AssertAppError(t, err, "MARKET_DATA_UNAVAILABLE")
	})
}
