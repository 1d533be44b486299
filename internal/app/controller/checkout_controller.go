package controller

import (
	"net/http"

	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

// CheckoutPage is what the checkout screen renders before submission.
type CheckoutPage struct {
	Form  service.CheckoutForm `json:"form"`
	Quote *service.Quote       `json:"quote"`
}

// GetCheckout returns the prefilled form and the priced cart
// GET /api/v1/checkout
func (ctrl *CheckoutController) GetCheckout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	quote, err := ctrl.checkoutService.Quote(sess.Cart.Snapshot().Items, "")
	if err != nil {
		apperrors.ParseAndRespond(c, err, "checkout")
		return
	}

	c.JSON(http.StatusOK, CheckoutPage{
		Form:  ctrl.checkoutService.Prefill(sess.Auth.User()),
		Quote: quote,
	})
}

// PlaceOrder submits the session cart. Guests check out without a token.
// POST /api/v1/checkout
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var form service.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please fill all required fields")
		return
	}

	token, err := sess.Auth.AccessToken(c.Request.Context())
	if err != nil {
		log.Warn("Could not read access token, checking out as guest", map[string]interface{}{
			"error": err.Error(),
		})
		token = ""
	}

	confirmation, err := ctrl.checkoutService.PlaceOrder(c.Request.Context(), sess.Cart, form, token)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "checkout")
		return
	}

	log.Info("Checkout completed", map[string]interface{}{
		"order_number": confirmation.OrderNumber,
	})

	c.JSON(http.StatusCreated, gin.H{
		"order":    confirmation,
		"redirect": "/dashboard",
	})
}
