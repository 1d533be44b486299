package middleware

import (
	"context"
	"net/http"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "session"

// SessionLoader is satisfied by *session.Manager.
type SessionLoader interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// SessionMiddleware resolves the browser session from its cookie, issuing a new id when
// the cookie is missing or malformed, and stores the live session in the context.
func SessionMiddleware(loader SessionLoader, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		id, err := c.Cookie(cfg.CookieName)
		if _, perr := uuid.Parse(id); err != nil || perr != nil {
			id = uuid.NewString()
			setSessionCookie(c, cfg, id)
			log.Debug("Issued new session", nil)
		}

		sess, err := loader.Get(c.Request.Context(), id)
		if err != nil {
			log.Error("Failed to load session", err, map[string]interface{}{
				"session_id": id,
			})
			errors.RespondWithError(c, http.StatusServiceUnavailable, errors.AuthSessionUnavailable, "Your session could not be loaded. Please try again")
			return
		}

		c.Set(sessionKey, sess)
		c.Set(loggerKey, log.WithContext(map[string]interface{}{
			"session_id": id,
		}))
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, cfg config.SessionConfig, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, id, int(cfg.CookieMaxAge.Seconds()), "/", "", cfg.CookieSecure, true)
}

// GetSession returns the session SessionMiddleware loaded.
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
