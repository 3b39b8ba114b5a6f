package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradingagents/internal/server/ports"
)

// TradeHandler exposes the injected trading service. Its success/error shape
// is the service's own; analysis sessions never touch it.
type TradeHandler struct {
	service ports.TradingService
}

// NewTradeHandler creates the trade endpoints handler.
func NewTradeHandler(service ports.TradingService) *TradeHandler {
	return &TradeHandler{service: service}
}

// HandleBuy places a simulated buy order.
func (h *TradeHandler) HandleBuy(c *gin.Context) {
	var req ports.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Buy(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleSell places a simulated sell order.
func (h *TradeHandler) HandleSell(c *gin.Context) {
	var req ports.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Sell(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandlePortfolio returns the current simulated portfolio.
func (h *TradeHandler) HandlePortfolio(c *gin.Context) {
	view, err := h.service.Portfolio(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}
