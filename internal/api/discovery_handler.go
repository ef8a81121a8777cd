package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rivalscan/rivalscan/internal/discovery"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
)

// Discoverer runs a full competitor discovery pipeline.
type Discoverer interface {
	Discover(ctx context.Context, in discovery.Input) (*domain.DiscoveryResult, error)
}

// Analyzer analyzes one competitor domain.
type Analyzer interface {
	AnalyzeCompetitor(
		ctx context.Context,
		domainName string,
		businessCtx *domain.BusinessContext,
		searchMeta *domain.SearchMetadata,
		userProducts []domain.UserProduct,
	) (*domain.CompetitorInsight, error)
}

// DiscoveryHandler handles discovery and analysis requests.
type DiscoveryHandler struct {
	discoverer Discoverer
	analyzer   Analyzer
	log        logger.Interface
}

// NewDiscoveryHandler creates a discovery handler.
func NewDiscoveryHandler(discoverer Discoverer, analyzer Analyzer, log logger.Interface) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoverer: discoverer,
		analyzer:   analyzer,
		log:        log,
	}
}

// discoverRequest is the body of POST /api/v1/discover.
type discoverRequest struct {
	Domain            string               `json:"domain"`
	UserID            string               `json:"user_id"`
	BusinessType      string               `json:"business_type"`
	KnownCompetitors  []string             `json:"known_competitors"`
	ProductCatalogURL string               `json:"product_catalog_url"`
	UserProducts      []domain.UserProduct `json:"user_products"`
}

// Discover handles POST /api/v1/discover.
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Domain) == "" {
		respondBadRequest(c, "domain is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	result, err := h.discoverer.Discover(c.Request.Context(), discovery.Input{
		Domain:            req.Domain,
		UserID:            req.UserID,
		BusinessType:      req.BusinessType,
		KnownCompetitors:  req.KnownCompetitors,
		ProductCatalogURL: req.ProductCatalogURL,
		UserProducts:      req.UserProducts,
	})
	if err != nil {
		h.log.Error("Discovery run failed", "domain", req.Domain, "error", err)
		respondInternalError(c, "Discovery failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// analyzeRequest is the body of POST /api/v1/analyze.
type analyzeRequest struct {
	CompetitorDomain string                  `json:"competitor_domain"`
	BusinessContext  *domain.BusinessContext `json:"business_context"`
	SearchMetadata   *domain.SearchMetadata  `json:"search_metadata"`
	UserProducts     []domain.UserProduct    `json:"user_products"`
}

// Analyze handles POST /api/v1/analyze.
func (h *DiscoveryHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.CompetitorDomain) == "" {
		respondBadRequest(c, "competitor_domain is required")
		return
	}

	insight, err := h.analyzer.AnalyzeCompetitor(
		c.Request.Context(),
		req.CompetitorDomain,
		req.BusinessContext,
		req.SearchMetadata,
		req.UserProducts,
	)
	if err != nil {
		h.log.Error("Analysis failed", "domain", req.CompetitorDomain, "error", err)
		respondInternalError(c, "Analysis failed")
		return
	}

	c.JSON(http.StatusOK, insight)
}
