package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/pagination"
	"folio/internal/services"
)

// PipelineHandler handles requests from the market-data pipeline. These
// endpoints are authenticated by API key rather than user token.
type PipelineHandler struct {
	tickerService      services.TickerServicer
	revaluationService services.RevaluationServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(tickerService services.TickerServicer, revaluationService services.RevaluationServicer) *PipelineHandler {
	return &PipelineHandler{tickerService: tickerService, revaluationService: revaluationService}
}

// PriceEntryRequest is one close price in a pipeline submission.
type PriceEntryRequest struct {
	TickerID   uint      `json:"ticker_id" binding:"required,gt=0"`
	Close      float64   `json:"close" binding:"required,gt=0"`
	RecordedAt time.Time `json:"recorded_at" binding:"required"`
}

// RecordPricesRequest represents a batch of close prices from the pipeline.
type RecordPricesRequest struct {
	Prices []PriceEntryRequest `json:"prices" binding:"required,min=1,dive"`
}

// RevalueRequest selects the close date to revalue portfolios against.
type RevalueRequest struct {
	RecordedAt time.Time `json:"recorded_at" binding:"required"`
}

// ListTickers returns the full ticker universe for the pipeline to scrape.
// @Summary     Pipeline ticker list
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Ticker]
// @Router      /pipeline/tickers [get]
func (h *PipelineHandler) ListTickers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tickerService.ListTickers(services.TickerFilter{}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordPrices stores a batch of close prices.
// @Summary     Record close prices
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RecordPricesRequest true "Close prices"
// @Success     200 {object} map[string]int "Number of prices recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Unknown ticker"
// @Router      /pipeline/prices [post]
func (h *PipelineHandler) RecordPrices(c *gin.Context) {
	var req RecordPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entries := make([]services.PriceEntry, len(req.Prices))
	for i, p := range req.Prices {
		entries[i] = services.PriceEntry{TickerID: p.TickerID, Close: p.Close, RecordedAt: p.RecordedAt}
	}

	recorded, err := h.tickerService.RecordPrices(entries)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}

// Revalue recomputes holding proportions and stores a valuation snapshot
// for every portfolio, using the given close date.
// @Summary     Revalue portfolios
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RevalueRequest true "Close date"
// @Success     200 {object} map[string]int "Number of portfolios revalued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /pipeline/revalue [post]
func (h *PipelineHandler) Revalue(c *gin.Context) {
	var req RevalueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	revalued, err := h.revaluationService.RevaluePortfolios(req.RecordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revalued": revalued})
}
