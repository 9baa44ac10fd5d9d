package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"markowitz/internal/charts"
	"markowitz/internal/config"
	"markowitz/internal/engine"
	apperrors "markowitz/internal/errors"
	"markowitz/internal/logger"
)

// optimizationService runs frontier optimizations over stored price history.
type optimizationService struct {
	prices PriceServicer
	cfg    *config.Config
}

// NewOptimizationService creates a new OptimizationServicer.
func NewOptimizationService(db *gorm.DB, cfg *config.Config) OptimizationServicer {
	return &optimizationService{prices: NewPriceService(db), cfg: cfg}
}

// Optimize loads the close series for the requested universe and computes the
// efficient frontier and tangency portfolio.
func (s *optimizationService) Optimize(req OptimizationRequest) (*engine.OptimizationResult, error) {
	symbols, err := normalizeSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	series, err := s.prices.GetCloseSeries(symbols, req.From, req.To)
	if err != nil {
		return nil, err
	}

	engineCfg := s.engineConfig(req)
	start := time.Now()
	result, err := engine.Compute(series, engineCfg)
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("optimization complete",
		"symbols", symbols,
		"frontier_points", len(result.Frontier),
		"skipped_targets", len(result.SkippedTargets),
		"tangency_sharpe", result.Tangency.Sharpe,
		"duration", time.Since(start),
	)
	return result, nil
}

// RenderFrontierChart runs the optimization and renders the frontier as PNG.
func (s *optimizationService) RenderFrontierChart(req OptimizationRequest) ([]byte, error) {
	result, err := s.Optimize(req)
	if err != nil {
		return nil, err
	}
	return charts.RenderFrontier(result)
}

// engineConfig maps a request onto the engine configuration, falling back to
// server-level defaults.
func (s *optimizationService) engineConfig(req OptimizationRequest) engine.Config {
	cfg := engine.Config{
		ReturnType:            engine.ReturnType(req.ReturnType),
		Period:                engine.Period(req.Period),
		MeanMethod:            engine.MeanMethod(req.MeanMethod),
		AllowShort:            req.AllowShort,
		FrontierPoints:        req.FrontierPoints,
		Annualize:             req.Annualize,
		Shrinkage:             req.Shrinkage,
		Interpolate:           req.Interpolate,
		RiskFreeRate:          s.cfg.RiskFreeRate,
		CovConditionThreshold: s.cfg.CovConditionThreshold,
		MaxIterations:         s.cfg.SolverMaxIterations,
		Parallelism:           s.cfg.SolverParallelism,
	}
	if cfg.FrontierPoints == 0 {
		cfg.FrontierPoints = s.cfg.FrontierPoints
	}
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	// The configured rate is annual; match it to the periodicity of the
	// estimated moments.
	if !cfg.Annualize {
		period := cfg.Period
		if period == "" {
			period = engine.PeriodDaily
		}
		if factor := engine.PeriodsPerYear(period); factor > 0 {
			cfg.RiskFreeRate /= factor
		}
	}
	return cfg
}

// normalizeSymbols trims, uppercases and de-duplicates the requested universe.
func normalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one symbol is required")
	}
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol list contains an empty entry")
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}
