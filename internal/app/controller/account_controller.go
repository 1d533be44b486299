package controller

import (
	"net/http"
	"strings"

	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AccountController serves the customer dashboard. Every route runs behind RequireAuthenticated.
type AccountController struct {
	accountService service.AccountService
}

func NewAccountController(accountService service.AccountService) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// GetProfile returns the signed-in user with the dashboard summary
// GET /api/v1/account/profile
func (ctrl *AccountController) GetProfile(c *gin.Context) {
	user, _ := middleware.GetUser(c)

	summary, err := ctrl.accountService.Summary(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"summary": summary,
	})
}

// ListOrders returns the customer's orders, newest first
// GET /api/v1/account/orders
func (ctrl *AccountController) ListOrders(c *gin.Context) {
	orders, err := ctrl.accountService.Orders(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// ListDownloads returns the files of verified orders
// GET /api/v1/account/downloads
func (ctrl *AccountController) ListDownloads(c *gin.Context) {
	downloads, err := ctrl.accountService.Downloads(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloads": downloads,
		"count":     len(downloads),
	})
}

// SubmitPayment records the UPI transaction reference for an order
// POST /api/v1/account/orders/:id/payment
func (ctrl *AccountController) SubmitPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Order id is required")
		return
	}

	var ref service.PaymentReference
	if err := c.ShouldBindJSON(&ref); err != nil {
		log.Warn("Invalid payment reference request", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Enter the 12 digit UTR number")
		return
	}

	if err := ctrl.accountService.SubmitPaymentReference(c.Request.Context(), middleware.GetAccessToken(c), orderID, ref); err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment reference submitted. We will verify it shortly",
	})
}
