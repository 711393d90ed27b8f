package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/pagination"
	"folio/internal/services"
)

// TickerHandler handles reference-data requests.
type TickerHandler struct {
	tickerService services.TickerServicer
}

// NewTickerHandler creates a new TickerHandler.
func NewTickerHandler(tickerService services.TickerServicer) *TickerHandler {
	return &TickerHandler{tickerService: tickerService}
}

// ListSectors returns all sectors.
// @Summary     List sectors
// @Tags        tickers
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Sector
// @Router      /sectors [get]
func (h *TickerHandler) ListSectors(c *gin.Context) {
	sectors, err := h.tickerService.ListSectors()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sectors)
}

// ListTickers returns tickers, optionally filtered by sector, country,
// or safe-asset flag.
// @Summary     List tickers
// @Tags        tickers
// @Produce     json
// @Security    BearerAuth
// @Param       sector_id query int false "Filter by sector ID"
// @Param       country query string false "Filter by market country"
// @Param       safe_asset query bool false "Filter by safe-asset flag"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Ticker]
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /tickers [get]
func (h *TickerHandler) ListTickers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.TickerFilter
	if raw := c.Query("sector_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid sector_id"))
			return
		}
		sectorID := uint(id)
		filter.SectorID = &sectorID
	}
	if raw := c.Query("country"); raw != "" {
		filter.Country = &raw
	}
	if raw := c.Query("safe_asset"); raw != "" {
		safe, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid safe_asset"))
			return
		}
		filter.IsSafeAsset = &safe
	}

	result, err := h.tickerService.ListTickers(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
