package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "folio/internal/errors"
	"folio/internal/pagination"
	"folio/internal/services"
)

// PortfolioHandler handles portfolio-related requests.
type PortfolioHandler struct {
	portfolioService   services.PortfolioServicer
	rebalancingService services.RebalancingServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer, rebalancingService services.RebalancingServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, rebalancingService: rebalancingService}
}

// CreateAutoPortfolioRequest represents the request payload for creating an auto portfolio.
type CreateAutoPortfolioRequest struct {
	Name      string  `json:"name" binding:"omitempty,max=100"`
	Country   string  `json:"country" binding:"required,market_country"`
	Asset     float64 `json:"asset" binding:"required,gt=0"`
	RiskLevel int     `json:"risk_level" binding:"min=0,max=3"`
	SectorIDs []uint  `json:"sector_ids" binding:"required,min=1,dive,gt=0"`
}

// ManualStockRequest is one user-entered position of a manual portfolio.
type ManualStockRequest struct {
	Symbol   string  `json:"symbol" binding:"required,min=1,max=20"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	IsBuy    bool    `json:"is_buy"`
}

// CreateManualPortfolioRequest represents the request payload for creating a manual portfolio.
type CreateManualPortfolioRequest struct {
	Name    string               `json:"name" binding:"omitempty,max=100"`
	Country string               `json:"country" binding:"required,market_country"`
	Stocks  []ManualStockRequest `json:"stocks" binding:"required,min=1,dive"`
}

// TradeRequest represents the request payload for a buy or sell.
type TradeRequest struct {
	Symbol   string  `json:"symbol" binding:"required,min=1,max=20"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"required,gt=0"`
}

// UpdateNameRequest represents the request payload for renaming a portfolio.
type UpdateNameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateAutoPortfolio handles creating and initializing an auto portfolio.
// Creation and initialization are two phases: if initialization fails after
// the portfolio row is committed, the response carries the portfolio ID so
// the client can retry initialization.
// @Summary     Create auto portfolio
// @Description Create an auto portfolio and request its initial allocation
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAutoPortfolioRequest true "Portfolio details"
// @Success     201 {object} models.Portfolio "Portfolio created and initialized"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Allocation service failure"
// @Router      /portfolios/auto [post]
func (h *PortfolioHandler) CreateAutoPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAutoPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	portfolio, err := h.portfolioService.CreateAutoPortfolio(userID, services.CreateAutoPortfolioInput{
		Name:      req.Name,
		Country:   req.Country,
		Asset:     req.Asset,
		RiskLevel: req.RiskLevel,
		SectorIDs: req.SectorIDs,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.portfolioService.InitializeAutoPortfolio(c.Request.Context(), userID, portfolio.ID); err != nil {
		status := apperrors.ErrInternalServer.StatusCode
		code := apperrors.ErrInternalServer.Code
		message := apperrors.ErrInternalServer.Message
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			status, code, message = appErr.StatusCode, appErr.Code, appErr.Message
		}
		c.JSON(status, gin.H{
			"error":        gin.H{"code": code, "message": message},
			"portfolio_id": portfolio.ID,
		})
		return
	}

	created, err := h.portfolioService.GetPortfolioByID(userID, portfolio.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// CreateManualPortfolio handles creating a manual portfolio.
// @Summary     Create manual portfolio
// @Description Create a portfolio from user-entered positions
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateManualPortfolioRequest true "Portfolio details"
// @Success     201 {object} map[string]uint "New portfolio ID"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Unknown ticker"
// @Router      /portfolios/manual [post]
func (h *PortfolioHandler) CreateManualPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateManualPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stocks := make([]services.ManualStockInput, len(req.Stocks))
	for i, stock := range req.Stocks {
		stocks[i] = services.ManualStockInput{
			Symbol:   stock.Symbol,
			Quantity: stock.Quantity,
			Price:    stock.Price,
			IsBuy:    stock.IsBuy,
		}
	}

	portfolioID, err := h.portfolioService.CreateManualPortfolio(userID, services.CreateManualPortfolioInput{
		Name:    req.Name,
		Country: req.Country,
		Stocks:  stocks,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"portfolio_id": portfolioID})
}

// ListPortfolios returns the authenticated user's portfolios.
// @Summary     List portfolios
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Portfolio]
// @Router      /portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.GetUserPortfolios(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolio returns one portfolio with holdings and sectors.
// @Summary     Get portfolio
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Success     200 {object} models.Portfolio
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetPerformance returns a portfolio performance summary.
// @Summary     Portfolio performance
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Success     200 {object} services.Performance
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/performance [get]
func (h *PortfolioHandler) GetPerformance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	performance, err := h.portfolioService.GetPerformance(userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, performance)
}

// GetValuation returns the portfolio's total value and per-holding breakdown.
// The basis query parameter selects the pricing mode: "average" prices
// holdings at average cost, "close" (the default) at the latest recorded close.
// @Summary     Portfolio valuation
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       basis query string false "Pricing basis: average or close" Enums(average, close)
// @Success     200 {object} services.ValuationResult
// @Failure     404 {object} ErrorResponse "Portfolio or price history not found"
// @Router      /portfolios/{id}/valuation [get]
func (h *PortfolioHandler) GetValuation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	basis := c.DefaultQuery("basis", "close")
	if basis != "average" && basis != "close" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "basis must be 'average' or 'close'"))
		return
	}

	result, err := h.portfolioService.Valuation(userID, portfolioID, basis == "average")
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Buy handles a buy mutation on a portfolio.
// @Summary     Buy
// @Description Record a purchase against a portfolio holding
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       request body TradeRequest true "Trade details"
// @Success     204 "Holding updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio or ticker not found"
// @Router      /portfolios/{id}/buy [post]
func (h *PortfolioHandler) Buy(c *gin.Context) {
	h.trade(c, true)
}

// Sell handles a sell mutation on a portfolio.
// @Summary     Sell
// @Description Record a sale against a portfolio holding
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       request body TradeRequest true "Trade details"
// @Success     204 "Holding updated"
// @Failure     400 {object} ErrorResponse "Sell exceeds held quantity"
// @Failure     404 {object} ErrorResponse "Portfolio, ticker, or holding not found"
// @Router      /portfolios/{id}/sell [post]
func (h *PortfolioHandler) Sell(c *gin.Context) {
	h.trade(c, false)
}

func (h *PortfolioHandler) trade(c *gin.Context, buy bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade := services.TradeInput{Symbol: req.Symbol, Quantity: req.Quantity, Price: req.Price}
	if buy {
		err = h.portfolioService.Buy(userID, portfolioID, trade)
	} else {
		err = h.portfolioService.Sell(userID, portfolioID, trade)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateName renames a portfolio.
// @Summary     Rename portfolio
// @Tags        portfolios
// @Accept      json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       request body UpdateNameRequest true "New name"
// @Success     204 "Renamed"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/name [put]
func (h *PortfolioHandler) UpdateName(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.portfolioService.UpdateName(userID, portfolioID, req.Name); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeletePortfolio removes a portfolio.
// @Summary     Delete portfolio
// @Tags        portfolios
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [delete]
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.portfolioService.Delete(userID, portfolioID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRecords returns the portfolio's transaction log, newest first.
// @Summary     Portfolio records
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.PortfolioRecord]
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/records [get]
func (h *PortfolioHandler) GetRecords(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.GetRecords(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRebalancings returns the portfolio's recommendation history.
// @Summary     Portfolio rebalancings
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Portfolio ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Rebalancing]
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/rebalancings [get]
func (h *PortfolioHandler) GetRebalancings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.rebalancingService.GetPortfolioRebalancings(userID, portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
