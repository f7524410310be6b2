package handlers

import (
	"net/http"
	"strconv"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func listFilters(c *gin.Context) service.ListProductsInput {
	limit, offset := pagination(c)

	in := service.ListProductsInput{Limit: limit, Offset: offset}
	if v := c.Query("q"); v != "" {
		in.Query = &v
	}
	in.Sizes = c.QueryArray("size")
	if v := c.Query("min_price"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.MinPrice = &p
		}
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.MaxPrice = &p
		}
	}
	return in
}

func writeProductPage(c *gin.Context, page *service.ProductPage) {
	c.JSON(http.StatusOK, gin.H{
		"products":        page.Products,
		"total":           page.Total,
		"available_sizes": page.AvailableSizes,
	})
}

// List отдаёт витрину; ?category= сужает до категории, ?q= ищет по имени и
// описанию, ?size= (повторяемый), ?min_price= и ?max_price= фильтруют.
func (h *CatalogHandler) List(c *gin.Context) {
	in := listFilters(c)
	if v := c.Query("category"); v != "" {
		in.CategorySlug = &v
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeProductPage(c, page)
}

func (h *CatalogHandler) ByCategory(c *gin.Context) {
	in := listFilters(c)
	slug := c.Param("category_slug")
	in.CategorySlug = &slug

	page, err := h.catalog.ListProducts(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeProductPage(c, page)
}

func (h *CatalogHandler) Detail(c *gin.Context) {
	d, err := h.catalog.GetProduct(c.Request.Context(), c.Param("category_slug"), c.Param("product_slug"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":        d.Product,
		"colors":         d.Colors,
		"sizes":          d.Sizes,
		"reviews":        d.Reviews,
		"review_count":   d.ReviewCount,
		"average_rating": d.AverageRating,
		"in_cart":        d.InCart,
		"has_purchased":  d.HasPurchased,
	})
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}
