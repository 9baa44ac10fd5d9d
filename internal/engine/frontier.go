package engine

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	apperrors "markowitz/internal/errors"
)

// closedForm holds the Lagrange-multiplier machinery for the unconstrained
// (short selling allowed) minimum-variance problem. With only the two
// equality constraints the solve reduces to two linear systems against the
// covariance matrix, combined per target by two-fund separation.
type closedForm struct {
	invOnes *mat.VecDense // Σ⁻¹·1
	invMu   *mat.VecDense // Σ⁻¹·μ
	a       float64       // 1ᵀΣ⁻¹μ
	b       float64       // μᵀΣ⁻¹μ
	c       float64       // 1ᵀΣ⁻¹1
	d       float64       // bc − a²
}

func newClosedForm(m *moments) (*closedForm, error) {
	var chol mat.Cholesky
	if !chol.Factorize(m.cov) {
		return nil, apperrors.WithMessage(apperrors.ErrIllConditionedCovariance,
			"covariance matrix is not positive definite; closed-form solve is unavailable")
	}

	n := m.mu.Len()
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}

	invOnes := mat.NewVecDense(n, nil)
	invMu := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(invOnes, ones); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIllConditionedCovariance, err)
	}
	if err := chol.SolveVecTo(invMu, m.mu); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIllConditionedCovariance, err)
	}

	cf := &closedForm{
		invOnes: invOnes,
		invMu:   invMu,
		a:       mat.Dot(ones, invMu),
		b:       mat.Dot(m.mu, invMu),
		c:       mat.Dot(ones, invOnes),
	}
	cf.d = cf.b*cf.c - cf.a*cf.a
	return cf, nil
}

// gmvReturn is the expected return of the global minimum-variance portfolio.
func (cf *closedForm) gmvReturn() float64 { return cf.a / cf.c }

// degenerate reports whether the frontier collapses to a single point, which
// happens when all assets share the same expected return (or n = 1).
func (cf *closedForm) degenerate() bool {
	scale := math.Max(math.Abs(cf.b*cf.c), 1e-30)
	return cf.d <= 1e-12*scale
}

// weightsAt solves the minimum-variance weights for an exact target return.
func (cf *closedForm) weightsAt(target float64) []float64 {
	n := cf.invOnes.Len()
	w := make([]float64, n)
	g := (cf.b - cf.a*target) / cf.d
	h := (cf.c*target - cf.a) / cf.d
	for i := 0; i < n; i++ {
		w[i] = g*cf.invOnes.AtVec(i) + h*cf.invMu.AtVec(i)
	}
	return w
}

// gmvWeights returns the global minimum-variance portfolio Σ⁻¹1 / (1ᵀΣ⁻¹1).
func (cf *closedForm) gmvWeights() []float64 {
	n := cf.invOnes.Len()
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = cf.invOnes.AtVec(i) / cf.c
	}
	return w
}

// tangencyWeights solves the maximum-Sharpe weights Σ⁻¹(μ − r_f·1), scaled to
// sum to one. It fails when the risk-free rate reaches the global
// minimum-variance return, in which case the Sharpe ratio has no finite
// maximum on the efficient branch.
func (cf *closedForm) tangencyWeights(riskFree float64) ([]float64, error) {
	scale := cf.a - riskFree*cf.c
	if scale <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNoTangencyPortfolio,
			fmt.Sprintf("risk-free rate %g is not below the minimum-variance return %g", riskFree, cf.gmvReturn()))
	}
	n := cf.invOnes.Len()
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = (cf.invMu.AtVec(i) - riskFree*cf.invOnes.AtVec(i)) / scale
	}
	return w, nil
}

// solveFrontier computes the efficient frontier for the given moments. It
// returns the solved points sorted by ascending target return together with
// the target returns that had no feasible portfolio under the constraints.
func solveFrontier(m *moments, cfg Config) ([]FrontierPoint, []float64, error) {
	maxAsset := math.Inf(-1)
	for i := 0; i < m.mu.Len(); i++ {
		maxAsset = math.Max(maxAsset, m.mu.AtVec(i))
	}

	var (
		cf        *closedForm
		pg        *projectedSolver
		collapsed bool
		lo, hi    float64
		err       error
	)

	if cfg.AllowShort {
		cf, err = newClosedForm(m)
		if err != nil {
			return nil, nil, err
		}
		lo = cf.gmvReturn()
		hi = math.Max(lo, maxAsset)
		// A collapsed frontier (n = 1, or all means equal) has d = 0, so the
		// two-fund formula is undefined; the only portfolio is the GMV one.
		if cf.degenerate() {
			collapsed = true
			hi = lo
		}
	} else {
		pg = newProjectedSolver(m, cfg)
		gmv, solveErr := pg.solve(nil)
		if solveErr != nil {
			return nil, nil, solveErr
		}
		if gmv == nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrSolverDidNotConverge,
				"global minimum-variance solve found no feasible portfolio")
		}
		lo, _ = m.stats(gmv)
		hi = math.Max(lo, maxAsset)
	}

	targets := targetGrid(lo, hi, cfg.FrontierPoints)

	// Each target solve reads only the shared moments; execution order does
	// not affect the result.
	results := make([]*FrontierPoint, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(cfg.Parallelism)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			var w []float64
			switch {
			case collapsed:
				w = cf.gmvWeights()
			case cfg.AllowShort:
				w = cf.weightsAt(target)
			default:
				var solveErr error
				w, solveErr = pg.solve(&target)
				if solveErr != nil {
					return solveErr
				}
			}
			if w == nil {
				return nil // infeasible target, recorded as skipped
			}
			results[i] = newFrontierPoint(m, w, target, cfg.RiskFreeRate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	points := make([]FrontierPoint, 0, len(targets))
	var skipped []float64
	for i, p := range results {
		if p == nil {
			skipped = append(skipped, targets[i])
			continue
		}
		points = append(points, *p)
	}

	if err := checkMonotonicity(points); err != nil {
		return nil, nil, err
	}
	return points, skipped, nil
}

// newFrontierPoint evaluates the realized statistics for a weight vector.
func newFrontierPoint(m *moments, w []float64, target, riskFree float64) *FrontierPoint {
	ret, vol := m.stats(w)
	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - riskFree) / vol
	}
	return &FrontierPoint{
		TargetReturn: target,
		Return:       ret,
		Volatility:   vol,
		Sharpe:       sharpe,
		Weights:      w,
	}
}

// targetGrid samples the feasible return range. A collapsed range yields a
// single point rather than duplicated targets.
func targetGrid(lo, hi float64, points int) []float64 {
	if hi-lo < 1e-12 {
		return []float64{lo}
	}
	grid := make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	grid[points-1] = hi
	return grid
}

// checkMonotonicity verifies the defining geometric property of the efficient
// set: volatility must not decrease as the target return rises. A violation
// indicates a solver bug, not valid market data.
func checkMonotonicity(points []FrontierPoint) error {
	for i := 1; i < len(points); i++ {
		slack := 1e-9 * math.Max(1, points[i-1].Volatility)
		if points[i].Volatility < points[i-1].Volatility-slack {
			return apperrors.WithMessage(apperrors.ErrInvariantViolation,
				fmt.Sprintf("frontier volatility decreased from %g to %g between targets %g and %g",
					points[i-1].Volatility, points[i].Volatility, points[i-1].TargetReturn, points[i].TargetReturn))
		}
	}
	return nil
}
