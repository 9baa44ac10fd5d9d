// Package engine implements mean-variance portfolio optimization: it turns
// historical price series into an efficient frontier and a tangency
// (maximum-Sharpe) portfolio. The engine is a pure computation: it performs
// no I/O, keeps no state between calls, and never mutates its inputs.
package engine

import (
	"time"

	apperrors "markowitz/internal/errors"
)

// ReturnType selects how period returns are computed from prices.
type ReturnType string

const (
	ReturnSimple ReturnType = "simple"
	ReturnLog    ReturnType = "log"
)

// Period selects the sampling frequency of the return series.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// MeanMethod selects the expected-return estimator.
type MeanMethod string

const (
	MeanArithmetic MeanMethod = "arithmetic"
	MeanGeometric  MeanMethod = "geometric"
)

// periodsPerYear maps a sampling period to its annualization factor.
var periodsPerYear = map[Period]float64{
	PeriodDaily:   252,
	PeriodWeekly:  52,
	PeriodMonthly: 12,
}

// PeriodsPerYear returns the annualization factor for a sampling period, or 0
// for an unknown period.
func PeriodsPerYear(p Period) float64 {
	return periodsPerYear[p]
}

// PricePoint is a single dated close observation.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds the ordered price observations for one asset.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Config controls a single optimization run. The zero value is not usable
// directly; Normalize fills defaults and rejects invalid combinations.
type Config struct {
	ReturnType            ReturnType
	Period                Period
	MeanMethod            MeanMethod
	AllowShort            bool
	FrontierPoints        int
	RiskFreeRate          float64
	Annualize             bool
	MinPeriods            int
	CovConditionThreshold float64
	Shrinkage             bool
	Interpolate           bool
	MaxIterations         int
	Parallelism           int
}

// Normalize returns a copy of the config with defaults applied, or an error
// if an explicit setting is invalid.
func (c Config) Normalize() (Config, error) {
	if c.ReturnType == "" {
		c.ReturnType = ReturnLog
	}
	if c.ReturnType != ReturnSimple && c.ReturnType != ReturnLog {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "return_type must be 'simple' or 'log'")
	}
	if c.Period == "" {
		c.Period = PeriodDaily
	}
	if _, ok := periodsPerYear[c.Period]; !ok {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'daily', 'weekly' or 'monthly'")
	}
	if c.MeanMethod == "" {
		c.MeanMethod = MeanArithmetic
	}
	if c.MeanMethod != MeanArithmetic && c.MeanMethod != MeanGeometric {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "mean_method must be 'arithmetic' or 'geometric'")
	}
	if c.FrontierPoints == 0 {
		c.FrontierPoints = 50
	}
	if c.FrontierPoints < 2 {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "frontier_points must be at least 2")
	}
	if c.MinPeriods < 0 {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "min_periods must not be negative")
	}
	if c.CovConditionThreshold == 0 {
		c.CovConditionThreshold = 1e12
	}
	if c.CovConditionThreshold <= 1 {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "covariance_condition_threshold must be greater than 1")
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 20000
	}
	if c.MaxIterations < 0 {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "max_iterations must not be negative")
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	return c, nil
}

// FrontierPoint is one solved point on the efficient frontier.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"`
	Return       float64   `json:"return"`
	Volatility   float64   `json:"volatility"`
	Sharpe       float64   `json:"sharpe"`
	Weights      []float64 `json:"weights"`
}

// TangencyPortfolio is the frontier portfolio maximizing the Sharpe ratio.
type TangencyPortfolio struct {
	FrontierPoint
	Interpolated bool `json:"interpolated"`
}

// MomentEstimate holds the estimated statistical moments of the return
// matrix: the expected-return vector and the covariance matrix.
type MomentEstimate struct {
	Symbols    []string    `json:"symbols"`
	Means      []float64   `json:"means"`
	Cov        [][]float64 `json:"covariance"`
	Periods    int         `json:"periods"`
	Annualized bool        `json:"annualized"`
}

// OptimizationResult is the immutable aggregate produced by one engine
// invocation: the frontier, the tangency portfolio and the moments they were
// derived from. SkippedTargets records target returns for which no feasible
// portfolio existed under the active constraints.
type OptimizationResult struct {
	Symbols        []string          `json:"symbols"`
	Frontier       []FrontierPoint   `json:"frontier"`
	SkippedTargets []float64         `json:"skipped_targets,omitempty"`
	Tangency       TangencyPortfolio `json:"tangency"`
	Moments        MomentEstimate    `json:"moments"`
}
