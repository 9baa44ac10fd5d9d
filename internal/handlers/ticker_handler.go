package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "markowitz/internal/errors"
	"markowitz/internal/pagination"
	"markowitz/internal/services"
)

// TickerHandler handles ticker registry requests.
type TickerHandler struct {
	tickerService     services.TickerServicer
	marketDataService services.MarketDataServicer
}

// NewTickerHandler creates a new TickerHandler.
func NewTickerHandler(tickerService services.TickerServicer, marketDataService services.MarketDataServicer) *TickerHandler {
	return &TickerHandler{tickerService: tickerService, marketDataService: marketDataService}
}

// CreateTickerRequest represents the ticker creation payload.
type CreateTickerRequest struct {
	Symbol   string `json:"symbol" binding:"required,ticker_symbol"`
	Name     string `json:"name" binding:"required,max=255"`
	Sector   string `json:"sector" binding:"max=100"`
	Exchange string `json:"exchange" binding:"max=50"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

// UpdateTickerRequest represents the ticker update payload.
type UpdateTickerRequest struct {
	Name        string `json:"name" binding:"max=255"`
	Description string `json:"description" binding:"max=2000"`
	Sector      string `json:"sector" binding:"max=100"`
	Exchange    string `json:"exchange" binding:"max=50"`
}

// SyncRequest selects the date range for a market data sync.
type SyncRequest struct {
	From string `json:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" binding:"omitempty,datetime=2006-01-02"`
}

// Create registers a new ticker
// @Summary     Register a ticker
// @Description Add a tradable instrument to the registry
// @Tags        tickers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTickerRequest true "Ticker data"
// @Success     201 {object} models.Ticker
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Symbol already registered"
// @Router      /tickers [post]
func (h *TickerHandler) Create(c *gin.Context) {
	var req CreateTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ticker, err := h.tickerService.CreateTicker(req.Symbol, req.Name, req.Sector, req.Exchange, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticker)
}

// Get returns a single ticker
// @Summary     Get a ticker
// @Tags        tickers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Success     200 {object} models.Ticker
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Router      /tickers/{id} [get]
func (h *TickerHandler) Get(c *gin.Context) {
	ticker, err := h.tickerService.GetTickerByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticker)
}

// List returns a paginated ticker list
// @Summary     List tickers
// @Tags        tickers
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       sector query string false "Filter by sector"
// @Success     200 {object} pagination.PageResponse[models.Ticker]
// @Router      /tickers [get]
func (h *TickerHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tickerService.ListTickers(page, c.Query("sector"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update changes ticker metadata
// @Summary     Update a ticker
// @Tags        tickers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Param       request body UpdateTickerRequest true "Fields to update"
// @Success     200 {object} models.Ticker
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Router      /tickers/{id} [put]
func (h *TickerHandler) Update(c *gin.Context) {
	var req UpdateTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ticker, err := h.tickerService.UpdateTicker(c.Param("id"), req.Name, req.Description, req.Sector, req.Exchange)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticker)
}

// Delete removes a ticker from the registry
// @Summary     Delete a ticker
// @Tags        tickers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Router      /tickers/{id} [delete]
func (h *TickerHandler) Delete(c *gin.Context) {
	if err := h.tickerService.DeleteTicker(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportCSV bulk-imports tickers
// @Summary     Import tickers from CSV
// @Description Upload a semicolon-separated file of "name;symbol;sector" rows
// @Tags        tickers
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV file"
// @Success     200 {object} services.CSVImportResult
// @Failure     400 {object} ErrorResponse "Invalid file"
// @Router      /tickers/import [post]
func (h *TickerHandler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file upload is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.tickerService.ImportCSV(file)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Sync pulls price history from the market data provider
// @Summary     Sync price history
// @Description Fetch daily bars for the ticker from the upstream provider
// @Tags        tickers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ticker ID"
// @Param       request body SyncRequest false "Date range, defaults to the last year"
// @Success     200 {object} map[string]int
// @Failure     404 {object} ErrorResponse "Ticker not found"
// @Failure     502 {object} ErrorResponse "Provider unavailable"
// @Router      /tickers/{id}/sync [post]
func (h *TickerHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	from, err := parseDate(req.From)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		respondWithError(c, err)
		return
	}

	inserted, err := h.marketDataService.SyncTicker(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}
