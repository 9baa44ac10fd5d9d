package engine

import (
	"fmt"

	apperrors "markowitz/internal/errors"
)

// solveTangency finds the maximum-Sharpe portfolio. With short selling
// allowed it is the closed-form Σ⁻¹(μ − r_f·1) solution; long-only it is the
// best point on the solved frontier, refined (when interpolation is enabled)
// by a ternary search between the bracketing grid points since Sharpe is
// unimodal along the efficient set.
func solveTangency(m *moments, cfg Config, frontier []FrontierPoint) (*TangencyPortfolio, error) {
	if cfg.AllowShort {
		cf, err := newClosedForm(m)
		if err != nil {
			return nil, err
		}
		w, err := cf.tangencyWeights(cfg.RiskFreeRate)
		if err != nil {
			return nil, err
		}
		ret, _ := m.stats(w)
		return &TangencyPortfolio{
			FrontierPoint: *newFrontierPoint(m, w, ret, cfg.RiskFreeRate),
		}, nil
	}
	return tangencyOnFrontier(m, cfg, frontier)
}

func tangencyOnFrontier(m *moments, cfg Config, frontier []FrontierPoint) (*TangencyPortfolio, error) {
	if len(frontier) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNoTangencyPortfolio,
			"frontier has no feasible portfolios to draw a tangency from")
	}

	best := 0
	for i := range frontier {
		if frontier[i].Sharpe > frontier[best].Sharpe {
			best = i
		}
	}
	if frontier[best].Sharpe <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNoTangencyPortfolio,
			fmt.Sprintf("no portfolio on the frontier earns more than the risk-free rate %g", cfg.RiskFreeRate))
	}

	lo := frontier[best].TargetReturn
	hi := lo
	if best > 0 {
		lo = frontier[best-1].TargetReturn
	}
	if best < len(frontier)-1 {
		hi = frontier[best+1].TargetReturn
	}
	if !cfg.Interpolate || hi-lo < 1e-12 {
		return &TangencyPortfolio{FrontierPoint: frontier[best]}, nil
	}

	pg := newProjectedSolver(m, cfg)
	point, refined, err := refineTangency(m, cfg, pg, lo, hi)
	if err != nil {
		return nil, err
	}
	if point == nil || point.Sharpe < frontier[best].Sharpe {
		return &TangencyPortfolio{FrontierPoint: frontier[best]}, nil
	}
	return &TangencyPortfolio{FrontierPoint: *point, Interpolated: refined}, nil
}

// refineTangency ternary-searches the bracketed target interval for the peak
// Sharpe ratio. Targets whose solve turns infeasible shrink toward the
// interior instead of aborting the search.
func refineTangency(m *moments, cfg Config, pg *projectedSolver, lo, hi float64) (*FrontierPoint, bool, error) {
	const rounds = 40

	eval := func(target float64) (*FrontierPoint, error) {
		w, err := pg.solve(&target)
		if err != nil || w == nil {
			return nil, err
		}
		return newFrontierPoint(m, w, target, cfg.RiskFreeRate), nil
	}

	var best *FrontierPoint
	for i := 0; i < rounds && hi-lo > 1e-12; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		p1, err := eval(m1)
		if err != nil {
			return nil, false, err
		}
		p2, err := eval(m2)
		if err != nil {
			return nil, false, err
		}
		switch {
		case p1 == nil:
			lo = m1
		case p2 == nil:
			hi = m2
		case p1.Sharpe < p2.Sharpe:
			lo = m1
			best = keepBest(best, p2)
		default:
			hi = m2
			best = keepBest(best, p1)
		}
	}
	return best, best != nil, nil
}

func keepBest(a, b *FrontierPoint) *FrontierPoint {
	if a == nil || b.Sharpe > a.Sharpe {
		return b
	}
	return a
}
