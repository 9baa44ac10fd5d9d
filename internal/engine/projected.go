package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "markowitz/internal/errors"
)

const (
	projectionRounds = 200
	convergenceTol   = 1e-10
	feasibilityTol   = 1e-7
)

// projectedSolver minimizes portfolio variance under the long-only constraint
// by projected gradient descent: a fixed-step gradient move on wᵀΣw followed
// by alternating projections onto the budget/return hyperplanes and the
// non-negative orthant.
type projectedSolver struct {
	m    *moments
	cfg  Config
	n    int
	step float64
	muSum,
	muSq float64
}

func newProjectedSolver(m *moments, cfg Config) *projectedSolver {
	n := m.mu.Len()
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += m.cov.At(i, i)
	}
	var muSum, muSq float64
	for i := 0; i < n; i++ {
		v := m.mu.AtVec(i)
		muSum += v
		muSq += v * v
	}
	return &projectedSolver{
		m:   m,
		cfg: cfg,
		n:   n,
		// The gradient of wᵀΣw is 2Σw; a step below 1/(2·tr Σ) ≤ 1/(2λmax)
		// keeps the iteration contractive.
		step:  1 / (2*trace + 1e-30),
		muSum: muSum,
		muSq:  muSq,
	}
}

// solve returns the long-only minimum-variance weights, constrained to the
// target expected return when target is non-nil. A nil weight slice with a
// nil error means the target is infeasible under the constraints.
func (s *projectedSolver) solve(target *float64) ([]float64, error) {
	if target != nil && !s.feasible(*target) {
		return nil, nil
	}

	w := make([]float64, s.n)
	for i := range w {
		w[i] = 1 / float64(s.n)
	}
	s.project(w, target)

	grad := mat.NewVecDense(s.n, nil)
	wv := mat.NewVecDense(s.n, nil)
	next := make([]float64, s.n)

	converged := false
	for iter := 0; iter < s.cfg.MaxIterations; iter++ {
		copy(wv.RawVector().Data, w)
		grad.MulVec(s.m.cov, wv)

		delta := 0.0
		for i := range next {
			next[i] = w[i] - s.step*2*grad.AtVec(i)
		}
		s.project(next, target)
		for i := range next {
			delta = math.Max(delta, math.Abs(next[i]-w[i]))
		}
		copy(w, next)
		if delta < convergenceTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, apperrors.WithMessage(apperrors.ErrSolverDidNotConverge,
			"long-only solve exceeded the iteration budget; enable covariance shrinkage or relax the target grid")
	}

	return s.finish(w, target)
}

// feasible reports whether a target return is attainable by any long-only
// fully-invested portfolio, i.e. lies within the span of the asset means.
func (s *projectedSolver) feasible(target float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < s.n; i++ {
		v := s.m.mu.AtVec(i)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	eps := 1e-9 * math.Max(1, math.Abs(hi))
	return target >= lo-eps && target <= hi+eps
}

// project moves w onto the intersection of the budget constraint, the target
// return constraint (when set), and the non-negative orthant by alternating
// projections. The sets are convex so the alternation converges to a point of
// the intersection whenever the iterate is near-feasible.
func (s *projectedSolver) project(w []float64, target *float64) {
	for round := 0; round < projectionRounds; round++ {
		s.projectAffine(w, target)

		clipped := false
		for i := range w {
			if w[i] < 0 {
				w[i] = 0
				clipped = true
			}
		}
		if !clipped {
			return
		}
	}
}

// projectAffine is the exact Euclidean projection onto {1ᵀw = 1} or, with a
// target, onto {1ᵀw = 1, μᵀw = t} via the 2x2 normal equations.
func (s *projectedSolver) projectAffine(w []float64, target *float64) {
	sum, ret := 0.0, 0.0
	for i, v := range w {
		sum += v
		ret += s.m.mu.AtVec(i) * v
	}

	if target == nil {
		shift := (1 - sum) / float64(s.n)
		for i := range w {
			w[i] += shift
		}
		return
	}

	det := float64(s.n)*s.muSq - s.muSum*s.muSum
	if det < 1e-18 {
		// All means coincide; the return constraint is redundant with the
		// budget constraint.
		shift := (1 - sum) / float64(s.n)
		for i := range w {
			w[i] += shift
		}
		return
	}

	r1 := 1 - sum
	r2 := *target - ret
	l1 := (s.muSq*r1 - s.muSum*r2) / det
	l2 := (float64(s.n)*r2 - s.muSum*r1) / det
	for i := range w {
		w[i] += l1 + l2*s.m.mu.AtVec(i)
	}
}

// finish clips projection residue, renormalizes the budget exactly, and
// verifies the return constraint still holds within tolerance. A target whose
// constraint drifted beyond tolerance is reported infeasible.
func (s *projectedSolver) finish(w []float64, target *float64) ([]float64, error) {
	sum := 0.0
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum <= 0 {
		return nil, nil
	}
	for i := range w {
		w[i] /= sum
	}

	if target != nil {
		ret := 0.0
		for i := range w {
			ret += s.m.mu.AtVec(i) * w[i]
		}
		if math.Abs(ret-*target) > feasibilityTol*math.Max(1, math.Abs(*target)) {
			return nil, nil
		}
	}
	return w, nil
}
