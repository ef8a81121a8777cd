package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// PriceMonitor re-checks competitor prices and serves price history.
type PriceMonitor interface {
	MonitorPrices(ctx context.Context, domainName string, userProducts []domain.UserProduct) ([]domain.ProductMatch, error)
	TrackPriceHistory(ctx context.Context, userID, productURL string) (*domain.PriceHistory, error)
}

// MonitorHandler handles price monitoring requests.
type MonitorHandler struct {
	monitor PriceMonitor
	log     logger.Interface
}

// NewMonitorHandler creates a monitor handler.
func NewMonitorHandler(monitor PriceMonitor, log logger.Interface) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, log: log}
}

// monitorRequest is the body of POST /api/v1/monitor/prices.
type monitorRequest struct {
	CompetitorDomain string               `json:"competitor_domain"`
	UserProducts     []domain.UserProduct `json:"user_products"`
}

// MonitorPrices handles POST /api/v1/monitor/prices.
func (h *MonitorHandler) MonitorPrices(c *gin.Context) {
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.CompetitorDomain) == "" {
		respondBadRequest(c, "competitor_domain is required")
		return
	}

	matches, err := h.monitor.MonitorPrices(c.Request.Context(), req.CompetitorDomain, req.UserProducts)
	if err != nil {
		h.log.Error("Price monitoring failed", "domain", req.CompetitorDomain, "error", err)
		respondInternalError(c, "Price monitoring failed")
		return
	}
	if matches == nil {
		matches = []domain.ProductMatch{}
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// PriceHistory handles GET /api/v1/monitor/history.
func (h *MonitorHandler) PriceHistory(c *gin.Context) {
	productURL := c.Query("product_url")
	if productURL == "" {
		respondBadRequest(c, "product_url is required")
		return
	}
	// History is stored per user, so a user-less lookup can never match.
	userID := c.Query("user_id")
	if userID == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	history, err := h.monitor.TrackPriceHistory(c.Request.Context(), userID, productURL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "price history")
			return
		}
		h.log.Error("Price history lookup failed", "product_url", productURL, "error", err)
		respondInternalError(c, "Price history lookup failed")
		return
	}

	c.JSON(http.StatusOK, history)
}
