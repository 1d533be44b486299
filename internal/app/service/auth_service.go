package service

import (
	"context"
	"strings"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/pkg/logger"
)

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignInResult is returned by login and register.
type SignInResult struct {
	User     *model.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// AuthService runs the sign-in forms against a session's auth store.
type AuthService interface {
	Login(ctx context.Context, auth *session.AuthStore, form LoginForm) (*SignInResult, error)
	Register(ctx context.Context, auth *session.AuthStore, form RegisterForm) (*SignInResult, error)
	Logout(ctx context.Context, auth *session.AuthStore) error
}

type authService struct{}

func NewAuthService() AuthService {
	return &authService{}
}

func (s *authService) Login(ctx context.Context, auth *session.AuthStore, form LoginForm) (*SignInResult, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validateStruct(form, "Please enter your email and password", map[string]string{
		"email.required":    "Email is required",
		"email.email":       "Enter a valid email address",
		"password.required": "Password is required",
	}); err != nil {
		return nil, err
	}

	user, err := auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		logger.Warn("Login failed", map[string]interface{}{
			"email": form.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	return &SignInResult{User: user, Redirect: session.RedirectPathFor(user)}, nil
}

func (s *authService) Register(ctx context.Context, auth *session.AuthStore, form RegisterForm) (*SignInResult, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Name = strings.TrimSpace(form.Name)
	if err := validateStruct(form, "Please fix the registration form", map[string]string{
		"name.required":            "Name is required",
		"email.required":           "Email is required",
		"email.email":              "Enter a valid email address",
		"password.required":        "Password is required",
		"password.min":             "Password must be at least 6 characters",
		"confirmPassword.required": "Please confirm your password",
		"confirmPassword.eqfield":  "Passwords do not match",
	}); err != nil {
		return nil, err
	}

	user, err := auth.Register(ctx, form.Email, form.Password, form.Name)
	if err != nil {
		logger.Warn("Registration failed", map[string]interface{}{
			"email": form.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
	})
	return &SignInResult{User: user, Redirect: session.RedirectPathFor(user)}, nil
}

func (s *authService) Logout(ctx context.Context, auth *session.AuthStore) error {
	if err := auth.Logout(ctx); err != nil {
		logger.Error("Failed to clear auth storage on logout", err, nil)
		return err
	}
	return nil
}
