package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "markowitz/internal/errors"
	"markowitz/internal/services"
)

// OptimizationHandler handles portfolio optimization requests.
type OptimizationHandler struct {
	optimizationService services.OptimizationServicer
}

// NewOptimizationHandler creates a new OptimizationHandler.
func NewOptimizationHandler(optimizationService services.OptimizationServicer) *OptimizationHandler {
	return &OptimizationHandler{optimizationService: optimizationService}
}

// OptimizeRequest represents an optimization run payload.
type OptimizeRequest struct {
	Symbols        []string `json:"symbols" binding:"required,min=1,max=50,dive,ticker_symbol"`
	From           string   `json:"from" binding:"omitempty,datetime=2006-01-02"`
	To             string   `json:"to" binding:"omitempty,datetime=2006-01-02"`
	ReturnType     string   `json:"return_type" binding:"omitempty,return_type"`
	Period         string   `json:"period" binding:"omitempty,period"`
	MeanMethod     string   `json:"mean_method" binding:"omitempty,mean_method"`
	AllowShort     bool     `json:"allow_short"`
	FrontierPoints int      `json:"frontier_points" binding:"omitempty,min=2,max=500"`
	RiskFreeRate   *float64 `json:"risk_free_rate" binding:"omitempty,gte=0,lt=1"`
	Annualize      bool     `json:"annualize"`
	Shrinkage      bool     `json:"shrinkage"`
	Interpolate    bool     `json:"interpolate"`
}

func (r *OptimizeRequest) toServiceRequest() (services.OptimizationRequest, error) {
	from, err := parseDate(r.From)
	if err != nil {
		return services.OptimizationRequest{}, err
	}
	to, err := parseDate(r.To)
	if err != nil {
		return services.OptimizationRequest{}, err
	}
	return services.OptimizationRequest{
		Symbols:        r.Symbols,
		From:           from,
		To:             to,
		ReturnType:     r.ReturnType,
		Period:         r.Period,
		MeanMethod:     r.MeanMethod,
		AllowShort:     r.AllowShort,
		FrontierPoints: r.FrontierPoints,
		RiskFreeRate:   r.RiskFreeRate,
		Annualize:      r.Annualize,
		Shrinkage:      r.Shrinkage,
		Interpolate:    r.Interpolate,
	}, nil
}

// Optimize runs a mean-variance optimization
// @Summary     Optimize a portfolio
// @Description Compute the efficient frontier and tangency portfolio for a set of tickers
// @Tags        optimization
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OptimizeRequest true "Optimization parameters"
// @Success     200 {object} engine.OptimizationResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Failure     422 {object} ErrorResponse "Insufficient or degenerate price history"
// @Router      /optimize [post]
func (h *OptimizationHandler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	serviceReq, err := req.toServiceRequest()
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.optimizationService.Optimize(serviceReq)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// FrontierChart renders the efficient frontier as a PNG
// @Summary     Render the efficient frontier
// @Description Run an optimization and return the frontier as a PNG chart
// @Tags        optimization
// @Accept      json
// @Produce     png
// @Security    BearerAuth
// @Param       request body OptimizeRequest true "Optimization parameters"
// @Success     200 {file} binary "PNG image"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Insufficient or degenerate price history"
// @Router      /optimize/chart [post]
func (h *OptimizationHandler) FrontierChart(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	serviceReq, err := req.toServiceRequest()
	if err != nil {
		respondWithError(c, err)
		return
	}

	png, err := h.optimizationService.RenderFrontierChart(serviceReq)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
