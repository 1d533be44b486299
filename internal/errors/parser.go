package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/digitalghar/storefront/internal/app/service"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/gin-gonic/gin"
)

// ErrorInfo is what a failed request turns into on the wire.
type ErrorInfo struct {
	Status  int
	Code    string            // see codes.go
	Message string            // safe to show to the shopper
	Fields  map[string]string // validation failures only
}

// ParseError classifies an error from the services or the store API client. scope names the
// operation ("product", "checkout") and only changes the wording. Upstream details are never
// echoed except the message the API meant for humans.
func ParseError(err error, scope string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(scope)}
	}

	// 1. pre-flight validation
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		code := ValidationInvalidInput
		if _, ok := verr.Fields["couponCode"]; ok {
			code = ValidationInvalidCoupon
		}
		return ErrorInfo{Status: http.StatusBadRequest, Code: code, Message: verr.Message, Fields: verr.Fields}
	}

	// 2. domain rules
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return ErrorInfo{Status: http.StatusBadRequest, Code: CartEmpty, Message: "Your cart is empty"}
	case errors.Is(err, service.ErrCheckoutInProgress):
		return ErrorInfo{Status: http.StatusConflict, Code: CheckoutInProgress, Message: "Your order is already being placed"}
	case errors.Is(err, service.ErrCategoryHasProducts):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceHasProducts, Message: "Cannot delete category with products. Move or delete products first"}
	case errors.Is(err, session.ErrCartPersist):
		return ErrorInfo{Status: http.StatusInternalServerError, Code: CartPersistFailed, Message: "Your cart could not be saved. Please try again"}
	case errors.Is(err, storage.ErrContentTypeNotAllowed):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadInvalidFileType, Message: "Only JPEG, PNG, GIF and WebP images are allowed"}
	case errors.Is(err, storage.ErrFolderNotAllowed):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "Unknown upload folder"}
	case errors.Is(err, storage.ErrFileTooLarge):
		return ErrorInfo{Status: http.StatusRequestEntityTooLarge, Code: UploadFileTooLarge, Message: "The file is too large"}
	}

	// 3. sign-in rejections
	var aerr *session.AuthenticationError
	if errors.As(err, &aerr) {
		code := AuthInvalidCredentials
		if scope == "register" {
			code = AuthRegistrationFailed
		}
		return ErrorInfo{Status: http.StatusUnauthorized, Code: code, Message: aerr.Message}
	}

	// 4. cancellation before the upstream answered
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if scope == "checkout" {
			return ErrorInfo{Status: http.StatusRequestTimeout, Code: CheckoutCancelled, Message: "Checkout was cancelled before the order was placed"}
		}
		return ErrorInfo{Status: http.StatusGatewayTimeout, Code: UpstreamUnavailable, Message: "The store took too long to respond. Please try again"}
	}

	// 5. store API responses
	upstreamMessage := storeapi.UserMessage(err)
	switch {
	case errors.Is(err, storeapi.ErrNetwork):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: UpstreamUnavailable, Message: "The store is unreachable right now. Please try again shortly"}
	case errors.Is(err, storeapi.ErrUnauthorized):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthUnauthorized, Message: orDefault(upstreamMessage, "Please sign in to continue")}
	case errors.Is(err, storeapi.ErrForbidden):
		return ErrorInfo{Status: http.StatusForbidden, Code: AuthzForbidden, Message: orDefault(upstreamMessage, "You do not have access to this page")}
	case errors.Is(err, storeapi.ErrNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: getNotFoundMessage(scope)}
	case errors.Is(err, storeapi.ErrRejected):
		status := http.StatusBadRequest
		var apiErr *storeapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			status = http.StatusConflict
		}
		return ErrorInfo{Status: status, Code: UpstreamRejected, Message: orDefault(upstreamMessage, getDefaultErrorMessage(scope))}
	case errors.Is(err, storeapi.ErrUpstream):
		if scope == "checkout" {
			return ErrorInfo{Status: http.StatusBadGateway, Code: CheckoutPaymentFailed, Message: "Payment could not be completed. Your cart has been kept"}
		}
		return ErrorInfo{Status: http.StatusBadGateway, Code: UpstreamError, Message: getDefaultErrorMessage(scope)}
	}

	if errors.Is(err, service.ErrPaymentFailed) {
		return ErrorInfo{Status: http.StatusBadGateway, Code: CheckoutPaymentFailed, Message: "Payment could not be completed. Your cart has been kept"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(scope)}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func getNotFoundMessage(scope string) string {
	switch scope {
	case "product":
		return "Product not found"
	case "category":
		return "Category not found"
	case "order":
		return "Order not found"
	default:
		return "The requested resource was not found"
	}
}

func getDefaultErrorMessage(scope string) string {
	switch scope {
	case "product":
		return "Could not load the product. Please try again"
	case "checkout":
		return "Your order could not be placed. Please try again"
	case "order":
		return "Could not update the order. Please try again"
	case "login":
		return "Sign in failed. Please try again"
	case "register":
		return "Registration failed. Please try again"
	default:
		return "Something went wrong. Please try again"
	}
}

// ParseAndRespond writes the classified error and aborts the chain.
func ParseAndRespond(c *gin.Context, err error, scope string) {
	info := ParseError(err, scope)
	if info.Fields != nil {
		c.AbortWithStatusJSON(info.Status, ValidationError{
			Error:   info.Code,
			Message: info.Message,
			Fields:  info.Fields,
		})
		return
	}
	RespondWithError(c, info.Status, info.Code, info.Message)
}
