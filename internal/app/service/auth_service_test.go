package service

import (
	"context"
	"testing"

	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServiceTest(t *testing.T) (AuthService, *session.AuthStore) {
	t.Helper()
	auth := session.NewAuthStore(newFakeStore(), storage.NewMemoryBackend())
	require.NoError(t, auth.Hydrate(context.Background()))
	return NewAuthService(), auth
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		form     LoginForm
		redirect string
		field    string
		authErr  bool
	}{
		{name: "customer", form: LoginForm{Email: "asha@example.in", Password: "secret1"}, redirect: session.CustomerRedirectPath},
		{name: "admin", form: LoginForm{Email: "admin@digitalghar.in", Password: "secret1"}, redirect: session.AdminRedirectPath},
		{name: "missing password", form: LoginForm{Email: "asha@example.in"}, field: "password"},
		{name: "bad email", form: LoginForm{Email: "asha", Password: "secret1"}, field: "email"},
		{name: "wrong password", form: LoginForm{Email: "asha@example.in", Password: "nope"}, authErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, auth := setupAuthServiceTest(t)

			result, err := svc.Login(context.Background(), auth, tt.form)
			switch {
			case tt.field != "":
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.field)
				assert.False(t, auth.IsAuthenticated())
			case tt.authErr:
				var aerr *session.AuthenticationError
				require.ErrorAs(t, err, &aerr)
				assert.False(t, auth.IsAuthenticated())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.redirect, result.Redirect)
				assert.Equal(t, tt.form.Email, result.User.Email)
				assert.True(t, auth.IsAuthenticated())
			}
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name    string
		form    RegisterForm
		field   string
		message string
	}{
		{
			name: "valid",
			form: RegisterForm{Name: "Asha", Email: "asha@example.in", Password: "secret1", ConfirmPassword: "secret1"},
		},
		{
			name:    "passwords differ",
			form:    RegisterForm{Name: "Asha", Email: "asha@example.in", Password: "secret1", ConfirmPassword: "secret2"},
			field:   "confirmPassword",
			message: "Passwords do not match",
		},
		{
			name:    "short password",
			form:    RegisterForm{Name: "Asha", Email: "asha@example.in", Password: "abc", ConfirmPassword: "abc"},
			field:   "password",
			message: "Password must be at least 6 characters",
		},
		{
			name:    "missing name",
			form:    RegisterForm{Email: "asha@example.in", Password: "secret1", ConfirmPassword: "secret1"},
			field:   "name",
			message: "Name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, auth := setupAuthServiceTest(t)

			result, err := svc.Register(context.Background(), auth, tt.form)
			if tt.field != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.message, verr.Fields[tt.field])
				assert.False(t, auth.IsAuthenticated())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Asha", result.User.Name)
			assert.Equal(t, session.CustomerRedirectPath, result.Redirect)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, auth := setupAuthServiceTest(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, auth, LoginForm{Email: "asha@example.in", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, auth))
	assert.False(t, auth.IsAuthenticated())
	assert.Equal(t, session.StatusAnonymous, auth.CheckAuth(ctx))
}
