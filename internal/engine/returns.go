package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	apperrors "markowitz/internal/errors"
)

// ReturnMatrix is the aligned period-over-period return table: rows are time
// periods in chronological order, columns are assets in input order. After
// alignment there are no missing cells: periods lacking an observation for
// any asset are dropped, not imputed.
type ReturnMatrix struct {
	Symbols []string
	Dates   []time.Time
	Data    *mat.Dense
}

// observation is one resampled price bucket for a single asset.
type observation struct {
	date  time.Time
	close float64
}

// BuildReturnMatrix converts raw price series into an aligned return matrix.
// Prices are resampled to cfg.Period taking the last observation per bucket,
// then inner-joined on the bucket so only periods where every asset traded
// survive. Returns ErrInvalidPrice for non-positive or non-finite prices and
// ErrInsufficientData when fewer than max(cfg.MinPeriods, assets+1) aligned
// return periods remain.
func BuildReturnMatrix(series []PriceSeries, cfg Config) (*ReturnMatrix, error) {
	n := len(series)
	if n == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData, "no price series provided")
	}

	symbols := make([]string, n)
	seen := make(map[string]bool, n)
	buckets := make([]map[string]observation, n)

	for i, s := range series {
		if s.Symbol == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price series is missing a symbol")
		}
		if seen[s.Symbol] {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("duplicate symbol %s in asset list", s.Symbol))
		}
		seen[s.Symbol] = true
		symbols[i] = s.Symbol

		resampled, err := resample(s, cfg.Period)
		if err != nil {
			return nil, err
		}
		buckets[i] = resampled
	}

	// Inner join on the period bucket: keep only buckets present for all assets.
	keys := make([]string, 0, len(buckets[0]))
	for key := range buckets[0] {
		shared := true
		for i := 1; i < n; i++ {
			if _, ok := buckets[i][key]; !ok {
				shared = false
				break
			}
		}
		if shared {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	minReturns := len(series) + 1
	if cfg.MinPeriods > minReturns {
		minReturns = cfg.MinPeriods
	}
	if len(keys)-1 < minReturns {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientData,
			fmt.Sprintf("only %d aligned periods across %d assets, need at least %d", max(len(keys)-1, 0), n, minReturns))
	}

	rows := len(keys) - 1
	data := mat.NewDense(rows, n, nil)
	dates := make([]time.Time, rows)

	for j := 0; j < n; j++ {
		prev := buckets[j][keys[0]].close
		for r := 1; r < len(keys); r++ {
			obs := buckets[j][keys[r]]
			switch cfg.ReturnType {
			case ReturnSimple:
				data.Set(r-1, j, (obs.close-prev)/prev)
			default:
				data.Set(r-1, j, math.Log(obs.close/prev))
			}
			prev = obs.close
			if obs.date.After(dates[r-1]) {
				dates[r-1] = obs.date
			}
		}
	}

	return &ReturnMatrix{Symbols: symbols, Dates: dates, Data: data}, nil
}

// resample validates a price series and reduces it to one observation per
// period bucket, keeping the latest trade in each bucket.
func resample(s PriceSeries, period Period) (map[string]observation, error) {
	points := make([]PricePoint, len(s.Points))
	copy(points, s.Points)
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	out := make(map[string]observation, len(points))
	for _, p := range points {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidPrice,
				fmt.Sprintf("%s has invalid price %v on %s", s.Symbol, p.Close, p.Date.Format("2006-01-02")))
		}
		key := bucketKey(p.Date, period)
		if cur, ok := out[key]; !ok || p.Date.After(cur.date) {
			out[key] = observation{date: p.Date, close: p.Close}
		}
	}
	return out, nil
}

// bucketKey maps a date to its period bucket. Keys sort chronologically.
func bucketKey(t time.Time, period Period) string {
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
