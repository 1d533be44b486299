package errors

// Error codes returned in the "error" field of every JSON error body.
// Format: CATEGORY_SPECIFIC_DETAIL. The browser app maps these to its own copy.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // sign in required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // rejected by the store API
	AuthRegistrationFailed = "AUTH_REGISTRATION_FAILED"
	AuthSessionUnavailable = "AUTH_SESSION_UNAVAILABLE" // session state could not be loaded

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationRequired      = "VALIDATION_REQUIRED"
	ValidationInvalidCoupon = "VALIDATION_INVALID_COUPON"

	// ==================== Cart (CART_) ====================
	CartEmpty         = "CART_EMPTY"
	CartPersistFailed = "CART_PERSIST_FAILED"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutPaymentFailed = "CHECKOUT_PAYMENT_FAILED"
	CheckoutCancelled     = "CHECKOUT_CANCELLED"
	CheckoutInProgress    = "CHECKOUT_IN_PROGRESS" // another order for this cart is in flight

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ResourceHasProducts   = "RESOURCE_HAS_PRODUCTS" // category delete blocked

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadUnavailable     = "UPLOAD_UNAVAILABLE"

	// ==================== Upstream store API (UPSTREAM_) ====================
	UpstreamUnavailable = "UPSTREAM_UNAVAILABLE" // network failure or timeout
	UpstreamError       = "UPSTREAM_ERROR"       // 5xx or unreadable response
	UpstreamRejected    = "UPSTREAM_REJECTED"    // 4xx business rule rejection

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError  = "INTERNAL_SERVER_ERROR"
	InternalStorageError = "INTERNAL_STORAGE_ERROR"
	InternalRateLimited  = "INTERNAL_RATE_LIMITED"
)
