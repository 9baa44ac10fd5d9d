package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "markowitz/internal/errors"
	"markowitz/internal/pagination"
	"markowitz/internal/services"
)

// PriceHandler handles price history requests.
type PriceHandler struct {
	priceService services.PriceServicer
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService services.PriceServicer) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

// PriceBarRequest is a single daily bar in a manual price upload.
type PriceBarRequest struct {
	Date   string  `json:"date" binding:"required,datetime=2006-01-02"`
	Open   float64 `json:"open" binding:"omitempty,gt=0"`
	High   float64 `json:"high" binding:"omitempty,gt=0"`
	Low    float64 `json:"low" binding:"omitempty,gt=0"`
	Close  float64 `json:"close" binding:"required,gt=0"`
	Volume int64   `json:"volume" binding:"gte=0"`
}

// RecordPricesRequest represents a manual price upload payload.
type RecordPricesRequest struct {
	Bars []PriceBarRequest `json:"bars" binding:"required,min=1,dive"`
}

// Record stores daily bars for a ticker
// @Summary     Upload price bars
// @Description Store daily OHLCV bars for a ticker, skipping dates already present
// @Tags        prices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Param       request body RecordPricesRequest true "Daily bars"
// @Success     200 {object} map[string]int
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Router      /tickers/{id}/prices [post]
func (h *PriceHandler) Record(c *gin.Context) {
	var req RecordPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.PriceInput, 0, len(req.Bars))
	for _, bar := range req.Bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "dates must be formatted as YYYY-MM-DD"))
			return
		}
		inputs = append(inputs, services.PriceInput{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	inserted, err := h.priceService.RecordPrices(c.Param("id"), inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// History returns paginated price bars for a ticker
// @Summary     Get price history
// @Tags        prices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.EquityPrice]
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Router      /tickers/{id}/prices [get]
func (h *PriceHandler) History(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.priceService.GetPriceHistory(c.Param("id"), from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
