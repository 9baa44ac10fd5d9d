package engine

import (
	"math"
	"testing"
	"time"

	"markowitz/internal/testutil"
)

func day(d int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func series(symbol string, closes ...float64) PriceSeries {
	points := make([]PricePoint, len(closes))
	for i, c := range closes {
		points[i] = PricePoint{Date: day(i), Close: c}
	}
	return PriceSeries{Symbol: symbol, Points: points}
}

func TestBuildReturnMatrix(t *testing.T) {
	cfg := mustConfig(t, Config{MinPeriods: 2})

	t.Run("log_returns", func(t *testing.T) {
		rm, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 110, 121)}, cfg)
		testutil.AssertNoError(t, err)

		rows, cols := rm.Data.Dims()
		if rows != 2 || cols != 1 {
			t.Fatalf("expected a 2x1 matrix, got %dx%d", rows, cols)
		}
		want := math.Log(1.1)
		for r := 0; r < 2; r++ {
			if got := rm.Data.At(r, 0); math.Abs(got-want) > 1e-12 {
				t.Errorf("row %d: expected %g, got %g", r, want, got)
			}
		}
	})

	t.Run("simple_returns", func(t *testing.T) {
		simple := cfg
		simple.ReturnType = ReturnSimple
		rm, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 110, 121)}, simple)
		testutil.AssertNoError(t, err)
		if got := rm.Data.At(0, 0); math.Abs(got-0.1) > 1e-12 {
			t.Errorf("expected simple return 0.1, got %g", got)
		}
	})

	t.Run("unsorted_input", func(t *testing.T) {
		s := PriceSeries{Symbol: "AAPL", Points: []PricePoint{
			{Date: day(2), Close: 121},
			{Date: day(0), Close: 100},
			{Date: day(1), Close: 110},
		}}
		rm, err := BuildReturnMatrix([]PriceSeries{s}, cfg)
		testutil.AssertNoError(t, err)
		if got := rm.Data.At(0, 0); math.Abs(got-math.Log(1.1)) > 1e-12 {
			t.Errorf("expected chronological returns after sorting, got %g", got)
		}
	})

	t.Run("inner_join_drops_unshared_days", func(t *testing.T) {
		a := series("AAPL", 100, 110, 121, 133.1, 146.41)
		b := PriceSeries{Symbol: "MSFT", Points: []PricePoint{
			{Date: day(0), Close: 50},
			{Date: day(1), Close: 55},
			// day 2 missing
			{Date: day(3), Close: 60.5},
			{Date: day(4), Close: 66.55},
		}}
		rm, err := BuildReturnMatrix([]PriceSeries{a, b}, mustConfig(t, Config{MinPeriods: 2, ReturnType: ReturnSimple}))
		testutil.AssertNoError(t, err)

		rows, _ := rm.Data.Dims()
		if rows != 3 {
			t.Fatalf("expected 3 aligned return rows, got %d", rows)
		}
		// AAPL day1→day3 skips the dropped bucket: 110 → 133.1.
		if got, want := rm.Data.At(1, 0), 133.1/110-1; math.Abs(got-want) > 1e-12 {
			t.Errorf("expected bridged return %g, got %g", want, got)
		}
	})

	t.Run("weekly_resample_keeps_last_observation", func(t *testing.T) {
		// day(0) is Fri 2024-03-01; the series then spans three ISO weeks,
		// closing each at day(2), day(9) and day(10).
		s := series("AAPL", 100, 101, 102, 110, 111, 112, 113, 114, 115, 122.4, 130)
		rm, err := BuildReturnMatrix([]PriceSeries{s}, mustConfig(t, Config{Period: PeriodWeekly, ReturnType: ReturnSimple, MinPeriods: 1}))
		testutil.AssertNoError(t, err)

		rows, _ := rm.Data.Dims()
		if rows != 2 {
			t.Fatalf("expected 2 weekly returns, got %d", rows)
		}
		if got, want := rm.Data.At(0, 0), 122.4/102-1; math.Abs(got-want) > 1e-12 {
			t.Errorf("expected weekly return %g, got %g", want, got)
		}
	})

	t.Run("monthly_resample", func(t *testing.T) {
		points := []PricePoint{
			{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Close: 104},
			{Date: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), Close: 108},
			{Date: time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), Close: 112},
		}
		rm, err := BuildReturnMatrix([]PriceSeries{{Symbol: "AAPL", Points: points}},
			mustConfig(t, Config{Period: PeriodMonthly, ReturnType: ReturnSimple, MinPeriods: 1}))
		testutil.AssertNoError(t, err)

		rows, _ := rm.Data.Dims()
		if rows != 2 {
			t.Fatalf("expected 2 monthly returns, got %d", rows)
		}
		if got, want := rm.Data.At(0, 0), 108.0/104-1; math.Abs(got-want) > 1e-12 {
			t.Errorf("expected january-to-february return %g, got %g", want, got)
		}
	})

	t.Run("invalid_price", func(t *testing.T) {
		_, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 0, 121)}, cfg)
		testutil.AssertAppError(t, err, "INVALID_PRICE")

		_, err = BuildReturnMatrix([]PriceSeries{series("AAPL", 100, -5, 121)}, cfg)
		testutil.AssertAppError(t, err, "INVALID_PRICE")

		_, err = BuildReturnMatrix([]PriceSeries{series("AAPL", 100, math.NaN(), 121)}, cfg)
		testutil.AssertAppError(t, err, "INVALID_PRICE")
	})

	t.Run("duplicate_symbol", func(t *testing.T) {
		_, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 110), series("AAPL", 50, 55)}, cfg)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_symbol", func(t *testing.T) {
		_, err := BuildReturnMatrix([]PriceSeries{series("", 100, 110)}, cfg)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("insufficient_data", func(t *testing.T) {
		_, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 110, 121), series("MSFT", 50, 55, 60)}, cfg)
		testutil.AssertAppError(t, err, "INSUFFICIENT_DATA")

		_, err = BuildReturnMatrix(nil, cfg)
		testutil.AssertAppError(t, err, "INSUFFICIENT_DATA")
	})

	t.Run("min_periods_enforced", func(t *testing.T) {
		strict := mustConfig(t, Config{MinPeriods: 10})
		_, err := BuildReturnMatrix([]PriceSeries{series("AAPL", 100, 110, 121, 133, 140)}, strict)
		testutil.AssertAppError(t, err, "INSUFFICIENT_DATA")
	})
}
