package middleware

import (
	"net/http"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/errors"
	"github.com/gin-gonic/gin"
)

// Context keys for the signed-in user
const (
	UserKey        = "user"
	AccessTokenKey = "access_token"
)

// RequireAuthenticated lets a request through only when the session has a user and a
// stored access token. It must run after SessionMiddleware.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		sess, ok := GetSession(c)
		if !ok {
			log.Warn("Session missing in auth guard", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			return
		}

		user := sess.Auth.User()
		if user == nil {
			log.Debug("Anonymous request to protected route", nil)
			errors.Unauthorized(c, "")
			return
		}

		token, err := sess.Auth.AccessToken(c.Request.Context())
		if err != nil || token == "" {
			log.Warn("Signed-in session without access token", map[string]interface{}{
				"user_id": user.ID,
			})
			errors.Unauthorized(c, "Your session has expired. Please sign in again")
			return
		}

		c.Set(UserKey, user)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuthenticated.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		user, ok := GetUser(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}
		if !user.IsAdmin() {
			log.Warn("Insufficient permissions", map[string]interface{}{
				"user_id":   user.ID,
				"user_role": string(user.Role),
				"path":      c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "Admins only")
			return
		}
		c.Next()
	}
}

// GetUser extracts the signed-in user set by RequireAuthenticated
func GetUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// GetAccessToken extracts the store API token set by RequireAuthenticated
func GetAccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
