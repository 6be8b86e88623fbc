// internal/interfaces/http/handlers/prices.go
package handlers

import (
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/middleware"
	"github.com/vardan-naturals/storefront/internal/pkg/site"
)

// PriceHandler handles the price administration endpoints
type PriceHandler struct {
	table     *pricing.Table
	syncer    *pricesync.Syncer
	site      *site.Dir
	indexPage string
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(table *pricing.Table, syncer *pricesync.Syncer, dir *site.Dir, indexPage string, logger logrus.FieldLogger) *PriceHandler {
	return &PriceHandler{
		table:     table,
		syncer:    syncer,
		site:      dir,
		indexPage: indexPage,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdatePriceRequest is the body of PUT /admin/prices
type UpdatePriceRequest struct {
	Product string   `json:"product" binding:"required"`
	Variant string   `json:"variant"`
	Price   *float64 `json:"price" binding:"required"`
}

// ListPrices handles GET /admin/prices
func (h *PriceHandler) ListPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Prices retrieved successfully",
		"data":    h.table.Products(),
	})
}

// UpdatePrice handles PUT /admin/prices. Served pages pick the new price up
// through the live update subscription.
func (h *PriceHandler) UpdatePrice(c *gin.Context) {
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.table.Set(req.Product, req.Variant, *req.Price); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	admin, _ := middleware.GetUserEmailFromContext(c)
	h.logger.WithFields(logrus.Fields{
		"admin":   admin,
		"product": req.Product,
		"variant": req.Variant,
		"price":   *req.Price,
	}).Info("Price updated by admin")

	variants, _ := h.table.Variants(req.Product)
	c.JSON(http.StatusOK, gin.H{
		"message": "Price updated successfully",
		"data": pricing.Product{
			Name:     req.Product,
			Variants: variants,
		},
	})
}

// ExportPrices handles GET /admin/prices/export
func (h *PriceHandler) ExportPrices(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+pricesync.ExportFileName(h.now())+`"`)
	c.Status(http.StatusOK)

	if err := h.syncer.ExportCSV(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to export prices")
	}
}

// VerifyPrices handles GET /admin/prices/verify?page=. The page is synced
// from its source and then checked for products left without a price.
func (h *PriceHandler) VerifyPrices(c *gin.Context) {
	page, ok := h.openPage(c)
	if !ok {
		return
	}

	h.syncer.LoadAllPrices(page)
	c.JSON(http.StatusOK, gin.H{
		"message": "Price verification complete",
		"data":    h.syncer.VerifyAllPrices(page),
	})
}

// PriceUpdates handles GET /admin/prices/updates?page=. The page source is
// compared against the price table without being rewritten.
func (h *PriceHandler) PriceUpdates(c *gin.Context) {
	page, ok := h.openPage(c)
	if !ok {
		return
	}

	updates := h.syncer.HighlightPriceUpdates(page, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Price comparison complete",
		"data": gin.H{
			"count":   len(updates),
			"updates": updates,
		},
	})
}

func (h *PriceHandler) openPage(c *gin.Context) (*goquery.Document, bool) {
	name := c.DefaultQuery("page", h.indexPage)
	if !site.IsPage(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an HTML page"})
		return nil, false
	}

	doc, err := h.site.Open(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return nil, false
	}
	return doc, true
}
