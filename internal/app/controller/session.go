package controller

import (
	"net/http"

	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/gin-gonic/gin"
)

// currentSession returns the session loaded by SessionMiddleware and answers 503 when a
// route was mounted without it.
func currentSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("Session missing from request context", nil, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.AuthSessionUnavailable, "Your session could not be loaded. Please try again")
		return nil, false
	}
	return sess, true
}
