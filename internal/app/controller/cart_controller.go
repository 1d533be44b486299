package controller

import (
	"net/http"
	"strings"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/pkg/format"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CartController struct {
	catalogService  service.CatalogService
	checkoutService service.CheckoutService
}

func NewCartController(catalogService service.CatalogService, checkoutService service.CheckoutService) *CartController {
	return &CartController{
		catalogService:  catalogService,
		checkoutService: checkoutService,
	}
}

type AddToCartRequest struct {
	Slug string `json:"slug" binding:"required"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// CartResponse is the cart as the header badge and cart page show it.
type CartResponse struct {
	Items        []model.CartItem `json:"items"`
	Total        decimal.Decimal  `json:"total"`
	TotalDisplay string           `json:"totalDisplay"`
	ItemCount    int              `json:"itemCount"`
}

func newCartResponse(state session.CartState) CartResponse {
	return CartResponse{
		Items:        state.Items,
		Total:        state.Total,
		TotalDisplay: format.FormatPrice(state.Total),
		ItemCount:    len(state.Items),
	}
}

// GetCart returns the session cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// AddToCart looks the product up by slug and adds a snapshot of it. Adding a product
// already in the cart changes nothing.
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Choose a product to add")
		return
	}

	product, err := ctrl.catalogService.FindProduct(c.Request.Context(), strings.TrimSpace(req.Slug))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	if err := sess.Cart.AddToCart(c.Request.Context(), *product); err != nil {
		log.Error("Failed to add item to cart", err, map[string]interface{}{
			"product_id": product.ID,
		})
		apperrors.ParseAndRespond(c, err, "cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"product_id": product.ID,
		"cart_items": sess.Cart.ItemCount(),
	})

	c.JSON(http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// RemoveFromCart removes one product. Removing an absent product is not an error.
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	productID := strings.TrimSpace(c.Param("id"))
	if productID == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Product id is required")
		return
	}

	if err := sess.Cart.RemoveFromCart(c.Request.Context(), productID); err != nil {
		log.Error("Failed to remove item from cart", err, map[string]interface{}{
			"product_id": productID,
		})
		apperrors.ParseAndRespond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	if err := sess.Cart.ClearCart(c.Request.Context()); err != nil {
		log.Error("Failed to clear cart", err, nil)
		apperrors.ParseAndRespond(c, err, "cart")
		return
	}

	log.Info("Cart cleared", nil)
	c.JSON(http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// ApplyCoupon prices the cart with a coupon. The coupon is not stored; checkout sends it again.
// POST /api/v1/cart/coupon
func (ctrl *CartController) ApplyCoupon(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Enter a coupon code")
		return
	}

	quote, err := ctrl.checkoutService.Quote(sess.Cart.Snapshot().Items, req.Code)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, quote)
}
