package controller

import (
	"net/http"
	"strings"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxListLimit = 100

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

type ListProductsQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Type     string `form:"type"`
	Featured bool   `form:"featured"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

type ListCategoriesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Home returns featured products and categories. Each half carries its own state.
// GET /api/v1/home
func (ctrl *CatalogController) Home(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ctrl.catalogService.Home(c.Request.Context(), sess.Cart))
}

// ListProducts returns the filtered product listing
// GET /api/v1/products
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.Warn("Invalid product query", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product filters")
		return
	}

	productType := model.ProductType(strings.ToUpper(strings.TrimSpace(query.Type)))
	if productType != "" && !model.ValidProductType(productType) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown product type")
		return
	}
	if query.Limit > maxListLimit {
		query.Limit = maxListLimit
	}

	listing := ctrl.catalogService.ListProducts(c.Request.Context(), service.ProductFilter{
		Search:   query.Search,
		Category: query.Category,
		Type:     productType,
	}, service.ListOptions{
		Featured: query.Featured,
		Limit:    query.Limit,
	}, sess.Cart)

	if listing.State == service.ViewError {
		info := apperrors.ParseError(listing.Err, "product")
		c.JSON(info.Status, gin.H{
			"state":    listing.State,
			"products": listing.Products,
			"error":    info.Code,
			"message":  listing.Message,
		})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// GetProduct returns one product with related products of its category
// GET /api/v1/products/:slug
func (ctrl *CatalogController) GetProduct(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Product slug is required")
		return
	}

	detail, err := ctrl.catalogService.GetProduct(c.Request.Context(), slug, sess.Cart)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListCategories returns the category listing
// GET /api/v1/categories
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	var query ListCategoriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid category limit")
		return
	}

	listing := ctrl.catalogService.ListCategories(c.Request.Context(), query.Limit)
	if listing.State == service.ViewError {
		info := apperrors.ParseError(listing.Err, "category")
		c.JSON(info.Status, gin.H{
			"state":      listing.State,
			"categories": listing.Categories,
			"error":      info.Code,
			"message":    listing.Message,
		})
		return
	}

	c.JSON(http.StatusOK, listing)
}
