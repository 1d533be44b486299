package controller

import (
	"net/http"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// SessionResponse describes who the browser session belongs to.
type SessionResponse struct {
	Status          session.AuthStatus `json:"status"`
	IsAuthenticated bool               `json:"isAuthenticated"`
	User            *model.User        `json:"user"`
	Redirect        string             `json:"redirect,omitempty"`
}

// Login signs the session in with the store API
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var form service.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please enter your email and password")
		return
	}

	result, err := ctrl.authService.Login(c.Request.Context(), sess.Auth, form)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Register creates a store account and signs the session in
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var form service.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please fix the registration form")
		return
	}

	result, err := ctrl.authService.Register(c.Request.Context(), sess.Auth, form)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "register")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Logout forgets the session's tokens. The cart is kept.
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), sess.Auth); err != nil {
		// in-memory state is anonymous regardless
		middleware.GetLoggerFromContext(c).Warn("Logout left stale auth storage", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed out",
	})
}

// Session reports the auth state of the browser session
// GET /api/v1/auth/session
func (ctrl *AuthController) Session(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	user := sess.Auth.User()
	resp := SessionResponse{
		Status:          sess.Auth.Status(),
		IsAuthenticated: user != nil,
		User:            user,
	}
	if user != nil {
		resp.Redirect = session.RedirectPathFor(user)
	}

	c.JSON(http.StatusOK, resp)
}
