package engine

import (
	"fmt"
	"math"

	apperrors "markowitz/internal/errors"
)

const (
	weightSumTol = 1e-6
	negWeightTol = 1e-9
)

// Compute runs a full optimization: returns are built from the price series,
// moments estimated, the frontier solved and the tangency portfolio located.
// The same series and config always produce the same result.
func Compute(series []PriceSeries, cfg Config) (*OptimizationResult, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}

	rm, err := BuildReturnMatrix(series, cfg)
	if err != nil {
		return nil, err
	}

	m, err := estimateMoments(rm, cfg)
	if err != nil {
		return nil, err
	}

	frontier, skipped, err := solveFrontier(m, cfg)
	if err != nil {
		return nil, err
	}

	tangency, err := solveTangency(m, cfg, frontier)
	if err != nil {
		return nil, err
	}

	result := &OptimizationResult{
		Symbols:        rm.Symbols,
		Frontier:       frontier,
		SkippedTargets: skipped,
		Tangency:       *tangency,
		Moments:        m.export(cfg.Annualize),
	}
	if err := validateResult(result, cfg); err != nil {
		return nil, err
	}
	return result, nil
}

// validateResult asserts the invariants every solved portfolio must satisfy
// before the result leaves the engine. Failures indicate a solver bug.
func validateResult(r *OptimizationResult, cfg Config) error {
	check := func(label string, w []float64) error {
		sum := 0.0
		for i, v := range w {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return apperrors.WithMessage(apperrors.ErrInvariantViolation,
					fmt.Sprintf("%s weight %d is not finite", label, i))
			}
			if !cfg.AllowShort && v < -negWeightTol {
				return apperrors.WithMessage(apperrors.ErrInvariantViolation,
					fmt.Sprintf("%s weight %d is negative (%g) in a long-only solve", label, i, v))
			}
			sum += v
		}
		if math.Abs(sum-1) > weightSumTol {
			return apperrors.WithMessage(apperrors.ErrInvariantViolation,
				fmt.Sprintf("%s weights sum to %g, expected 1", label, sum))
		}
		return nil
	}

	for i := range r.Frontier {
		if err := check(fmt.Sprintf("frontier point %d", i), r.Frontier[i].Weights); err != nil {
			return err
		}
	}
	return check("tangency", r.Tangency.Weights)
}
