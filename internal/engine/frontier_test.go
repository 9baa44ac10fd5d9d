package engine

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"markowitz/internal/testutil"
)

// testMoments builds solver-ready moments from explicit values, bypassing
// estimation.
func testMoments(mu []float64, cov [][]float64) *moments {
	n := len(mu)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov[i][j])
		}
	}
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = string(rune('A' + i))
	}
	return &moments{symbols: symbols, mu: mat.NewVecDense(n, mu), cov: sym, periods: 100}
}

// twoAssetMoments: equal variance 0.0004, zero correlation, means 1% and 2%.
// The minimum-variance portfolio is the analytic [0.5, 0.5].
func twoAssetMoments() *moments {
	return testMoments(
		[]float64{0.01, 0.02},
		[][]float64{{0.0004, 0}, {0, 0.0004}},
	)
}

func mustConfig(t *testing.T, cfg Config) Config {
	t.Helper()
	out, err := cfg.Normalize()
	testutil.AssertNoError(t, err)
	return out
}

func TestClosedFormSolve(t *testing.T) {
	m := twoAssetMoments()
	cf, err := newClosedForm(m)
	testutil.AssertNoError(t, err)

	t.Run("gmv_weights", func(t *testing.T) {
		w := cf.gmvWeights()
		for i, want := range []float64{0.5, 0.5} {
			if math.Abs(w[i]-want) > 1e-10 {
				t.Errorf("gmv weight %d: expected %g, got %g", i, want, w[i])
			}
		}
		if got, want := cf.gmvReturn(), 0.015; math.Abs(got-want) > 1e-12 {
			t.Errorf("expected gmv return %g, got %g", want, got)
		}
	})

	t.Run("target_at_highest_mean", func(t *testing.T) {
		w := cf.weightsAt(0.02)
		for i, want := range []float64{0, 1} {
			if math.Abs(w[i]-want) > 1e-9 {
				t.Errorf("weight %d: expected %g, got %g", i, want, w[i])
			}
		}
	})

	t.Run("tangency_weights", func(t *testing.T) {
		// x = Σ⁻¹(μ − r_f·1) = [12.5, 37.5] at r_f = 0.5%, normalized [0.25, 0.75].
		w, err := cf.tangencyWeights(0.005)
		testutil.AssertNoError(t, err)
		for i, want := range []float64{0.25, 0.75} {
			if math.Abs(w[i]-want) > 1e-10 {
				t.Errorf("tangency weight %d: expected %g, got %g", i, want, w[i])
			}
		}
	})

	t.Run("no_tangency_above_all_returns", func(t *testing.T) {
		_, err := cf.tangencyWeights(0.05)
		testutil.AssertAppError(t, err, "NO_TANGENCY_PORTFOLIO")
	})
}

func TestSolveFrontierShort(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{AllowShort: true, FrontierPoints: 25})

	points, skipped, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)

	if len(skipped) != 0 {
		t.Fatalf("expected no skipped targets with short selling, got %v", skipped)
	}
	if len(points) != 25 {
		t.Fatalf("expected 25 frontier points, got %d", len(points))
	}
	if got := points[0].Return; math.Abs(got-0.015) > 1e-9 {
		t.Errorf("expected frontier to start at the gmv return 0.015, got %g", got)
	}
	for i, p := range points {
		sum := 0.0
		for _, w := range p.Weights {
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("point %d: weights sum to %g", i, sum)
		}
		if i > 0 {
			if p.TargetReturn <= points[i-1].TargetReturn {
				t.Errorf("point %d: targets not strictly increasing", i)
			}
			if p.Volatility < points[i-1].Volatility-1e-12 {
				t.Errorf("point %d: volatility decreased from %g to %g", i, points[i-1].Volatility, p.Volatility)
			}
		}
	}
}

func TestSolveFrontierLongOnly(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{FrontierPoints: 20})

	points, _, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)

	if len(points) == 0 {
		t.Fatal("expected a non-empty frontier")
	}
	for i, p := range points {
		sum := 0.0
		for j, w := range p.Weights {
			if w < -1e-9 {
				t.Errorf("point %d: negative weight %g for asset %d", i, w, j)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("point %d: weights sum to %g", i, sum)
		}
	}

	first := points[0]
	for i, want := range []float64{0.5, 0.5} {
		if math.Abs(first.Weights[i]-want) > 1e-4 {
			t.Errorf("gmv weight %d: expected %g, got %g", i, want, first.Weights[i])
		}
	}
}

func TestProjectedSolverInfeasibleTarget(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{})
	pg := newProjectedSolver(m, cfg)

	t.Run("above_max_asset_mean", func(t *testing.T) {
		target := 0.05
		w, err := pg.solve(&target)
		testutil.AssertNoError(t, err)
		if w != nil {
			t.Fatalf("expected infeasible target to return nil weights, got %v", w)
		}
	})

	t.Run("below_min_asset_mean", func(t *testing.T) {
		target := -0.01
		w, err := pg.solve(&target)
		testutil.AssertNoError(t, err)
		if w != nil {
			t.Fatalf("expected infeasible target to return nil weights, got %v", w)
		}
	})

	t.Run("feasible_target_matches_constraint", func(t *testing.T) {
		target := 0.017
		w, err := pg.solve(&target)
		testutil.AssertNoError(t, err)
		if w == nil {
			t.Fatal("expected feasible solve to produce weights")
		}
		ret, _ := m.stats(w)
		if math.Abs(ret-target) > 1e-6 {
			t.Errorf("expected portfolio return %g, got %g", target, ret)
		}
	})
}

func TestTangencyLongOnly(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{RiskFreeRate: 0.005, FrontierPoints: 30, Interpolate: true})

	points, _, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)

	tan, err := solveTangency(m, cfg, points)
	testutil.AssertNoError(t, err)

	for _, p := range points {
		if p.Sharpe > tan.Sharpe+1e-9 {
			t.Errorf("frontier point at target %g has Sharpe %g above tangency %g", p.TargetReturn, p.Sharpe, tan.Sharpe)
		}
	}
	// The closed-form tangency [0.25, 0.75] is long-only feasible, so the
	// constrained solution should land near it.
	for i, want := range []float64{0.25, 0.75} {
		if math.Abs(tan.Weights[i]-want) > 5e-3 {
			t.Errorf("tangency weight %d: expected ~%g, got %g", i, want, tan.Weights[i])
		}
	}
}

func TestTangencyWithoutInterpolation(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{RiskFreeRate: 0.005, FrontierPoints: 30})

	points, _, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)

	tan, err := solveTangency(m, cfg, points)
	testutil.AssertNoError(t, err)

	if tan.Interpolated {
		t.Error("expected no refinement when interpolation is disabled")
	}
	onGrid := false
	for _, p := range points {
		if p.TargetReturn == tan.TargetReturn {
			onGrid = true
			break
		}
	}
	if !onGrid {
		t.Errorf("expected the tangency target %g to be a frontier grid point", tan.TargetReturn)
	}
}

func TestTangencyNoExcessReturn(t *testing.T) {
	m := twoAssetMoments()
	cfg := mustConfig(t, Config{RiskFreeRate: 0.5})

	points, _, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)

	_, err = solveTangency(m, cfg, points)
	testutil.AssertAppError(t, err, "NO_TANGENCY_PORTFOLIO")
}

func TestFrontierSinglePointWhenMeansCoincide(t *testing.T) {
	m := testMoments(
		[]float64{0.01, 0.01},
		[][]float64{{0.0004, 0}, {0, 0.0001}},
	)
	cfg := mustConfig(t, Config{AllowShort: true})

	points, _, err := solveFrontier(m, cfg)
	testutil.AssertNoError(t, err)
	if len(points) != 1 {
		t.Fatalf("expected the frontier to collapse to one point, got %d", len(points))
	}

	// The collapsed point is the GMV portfolio: Σ⁻¹1 scaled gives [0.2, 0.8]
	// for variances 0.0004 and 0.0001.
	for i, want := range []float64{0.2, 0.8} {
		got := points[0].Weights[i]
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("weight %d is not finite: %g", i, got)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("weight %d: expected %g, got %g", i, want, got)
		}
	}
	if math.Abs(points[0].Return-0.01) > 1e-12 {
		t.Errorf("expected the collapsed return 0.01, got %g", points[0].Return)
	}
}
