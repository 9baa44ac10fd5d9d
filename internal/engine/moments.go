package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "markowitz/internal/errors"
)

// moments is the internal, matrix-backed form of a MomentEstimate used by the
// solvers. The exported MomentEstimate in the result is a plain-slice copy.
type moments struct {
	symbols []string
	mu      *mat.VecDense
	cov     *mat.SymDense
	periods int
}

// estimateMoments computes the expected-return vector and the unbiased sample
// covariance matrix from an aligned return matrix. It fails with
// ErrIllConditionedCovariance when the estimate cannot support a stable solve:
// fewer periods than assets, loss of symmetry/positive semi-definiteness, or a
// condition number above cfg.CovConditionThreshold. Shrinkage toward the
// constant-correlation target is applied only when explicitly enabled.
func estimateMoments(rm *ReturnMatrix, cfg Config) (*moments, error) {
	t, n := rm.Data.Dims()
	if t <= n {
		return nil, apperrors.WithMessage(apperrors.ErrIllConditionedCovariance,
			fmt.Sprintf("covariance from %d periods over %d assets is singular; more history is required", t, n))
	}

	mu := mat.NewVecDense(n, nil)
	col := make([]float64, t)
	for j := 0; j < n; j++ {
		mat.Col(col, j, rm.Data)
		switch cfg.MeanMethod {
		case MeanGeometric:
			mu.SetVec(j, geometricMean(col))
		default:
			mu.SetVec(j, stat.Mean(col, nil))
		}
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, rm.Data, nil)

	if cfg.Shrinkage {
		shrinkToConstantCorrelation(cov)
	}

	if err := checkConditioning(cov, cfg.CovConditionThreshold); err != nil {
		return nil, err
	}

	if cfg.Annualize {
		factor := periodsPerYear[cfg.Period]
		for j := 0; j < n; j++ {
			mu.SetVec(j, mu.AtVec(j)*factor)
		}
		// Variance scales linearly with the number of periods, not by sqrt.
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				cov.SetSym(i, j, cov.At(i, j)*factor)
			}
		}
	}

	symbols := make([]string, len(rm.Symbols))
	copy(symbols, rm.Symbols)

	return &moments{symbols: symbols, mu: mu, cov: cov, periods: t}, nil
}

// geometricMean returns the compound per-period growth rate of a return series.
func geometricMean(returns []float64) float64 {
	logSum := 0.0
	for _, r := range returns {
		logSum += math.Log1p(r)
	}
	return math.Expm1(logSum / float64(len(returns)))
}

// checkConditioning verifies the covariance matrix is positive semi-definite
// and well-conditioned enough for a stable solve.
func checkConditioning(cov *mat.SymDense, threshold float64) error {
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return apperrors.WithMessage(apperrors.ErrIllConditionedCovariance, "eigendecomposition of covariance matrix failed")
	}
	values := eig.Values(nil)

	minEig, maxEig := values[0], values[len(values)-1]
	if minEig < -1e-10*math.Max(maxEig, 1) {
		return apperrors.WithMessage(apperrors.ErrIllConditionedCovariance,
			fmt.Sprintf("covariance matrix is not positive semi-definite (min eigenvalue %g)", minEig))
	}
	if minEig <= 0 || maxEig/minEig > threshold {
		return apperrors.WithMessage(apperrors.ErrIllConditionedCovariance,
			fmt.Sprintf("covariance condition number exceeds %g; enable shrinkage or provide more history", threshold))
	}
	return nil
}

// shrinkToConstantCorrelation shrinks the sample covariance toward the
// constant-correlation target (average variance on the diagonal, average
// covariance off it), stabilizing near-singular estimates. The intensity is a
// simplified data-driven estimate in [0, 0.5].
func shrinkToConstantCorrelation(cov *mat.SymDense) {
	n := cov.SymmetricDim()
	if n < 2 {
		return
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += cov.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += cov.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := func(i, j int) float64 {
		if i == j {
			return avgVar
		}
		return avgCov
	}

	var sumSqDiff, sum, sumSq float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cov.At(i, j)
			d := v - target(i, j)
			sumSqDiff += d * d
			sum += v
			sumSq += v * v
		}
	}
	count := float64(n * n)
	meanSqDiff := sumSqDiff / count
	varSample := sumSq/count - (sum/count)*(sum/count)

	delta := 0.2
	if varSample > 0 && meanSqDiff > 0 {
		delta = math.Min(0.5, math.Max(0, varSample/(varSample+meanSqDiff)))
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, (1-delta)*cov.At(i, j)+delta*target(i, j))
		}
	}
}

// stats returns the expected return and volatility of a weight vector under
// these moments.
func (m *moments) stats(w []float64) (ret, vol float64) {
	n := m.mu.Len()
	for i := 0; i < n; i++ {
		ret += w[i] * m.mu.AtVec(i)
	}
	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += w[i] * w[j] * m.cov.At(i, j)
		}
	}
	if variance < 0 {
		variance = 0
	}
	return ret, math.Sqrt(variance)
}

// export converts the internal moments into the plain-slice form carried on
// the OptimizationResult.
func (m *moments) export(annualized bool) MomentEstimate {
	n := m.mu.Len()
	means := make([]float64, n)
	cov := make([][]float64, n)
	for i := 0; i < n; i++ {
		means[i] = m.mu.AtVec(i)
		cov[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cov[i][j] = m.cov.At(i, j)
		}
	}
	symbols := make([]string, len(m.symbols))
	copy(symbols, m.symbols)
	return MomentEstimate{
		Symbols:    symbols,
		Means:      means,
		Cov:        cov,
		Periods:    m.periods,
		Annualized: annualized,
	}
}
