package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/digitalghar/storefront/pkg/util"
)

// Persisted keys within a session namespace.
const (
	AuthStorageKey  = "auth-storage"
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

const (
	AdminRedirectPath    = "/admin"
	CustomerRedirectPath = "/dashboard"
)

type AuthStatus string

const (
	StatusUninitialized AuthStatus = "uninitialized"
	StatusLoading       AuthStatus = "loading"
	StatusAuthenticated AuthStatus = "authenticated"
	StatusAnonymous     AuthStatus = "anonymous"
)

// AuthAPI is the subset of the store API the auth store calls.
type AuthAPI interface {
	Login(ctx context.Context, req storeapi.LoginRequest) (*storeapi.AuthResponse, error)
	Register(ctx context.Context, req storeapi.RegisterRequest) (*storeapi.AuthResponse, error)
	Me(ctx context.Context, accessToken string) (*model.User, error)
}

// AuthenticationError is returned when the store API rejects credentials or a registration.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// authRecord is the persisted auth-storage value.
type authRecord struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

type AuthOption func(*AuthStore)

// WithTokenSecret enables local signature checks of access tokens in CheckAuth.
func WithTokenSecret(secret string) AuthOption {
	return func(a *AuthStore) {
		a.tokenSecret = secret
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) AuthOption {
	return func(a *AuthStore) {
		a.now = now
	}
}

// AuthStore tracks the locally known identity of one session.
// Authentication is derived from the user: there is no separate flag to drift.
type AuthStore struct {
	mu          sync.RWMutex
	api         AuthAPI
	backend     storage.Backend
	user        *model.User
	status      AuthStatus
	generation  uint64
	tokenSecret string
	now         func() time.Time
}

func NewAuthStore(api AuthAPI, backend storage.Backend, opts ...AuthOption) *AuthStore {
	a := &AuthStore{
		api:     api,
		backend: backend,
		status:  StatusUninitialized,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hydrate restores the persisted user and moves the store to loading until CheckAuth resolves.
func (a *AuthStore) Hydrate(ctx context.Context) error {
	var record authRecord
	raw, err := a.backend.Get(ctx, AuthStorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load auth record: %w", err)
	default:
		if err := json.Unmarshal(raw, &record); err != nil {
			logger.Warn("Discarding unreadable auth record", map[string]interface{}{
				"error": err.Error(),
			})
			record = authRecord{}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if record.IsAuthenticated && record.User != nil {
		a.user = record.User
	}
	a.status = StatusLoading
	return nil
}

func (a *AuthStore) Login(ctx context.Context, email, password string) (*model.User, error) {
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()

	resp, err := a.api.Login(ctx, storeapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, asAuthenticationError(err, "Invalid email or password")
	}
	return a.commitLogin(ctx, gen, resp)
}

func (a *AuthStore) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()

	resp, err := a.api.Register(ctx, storeapi.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, asAuthenticationError(err, "Registration failed")
	}
	return a.commitLogin(ctx, gen, resp)
}

// Logout forgets the tokens and the user. It never calls the store API.
// The in-memory transition happens even when storage fails.
func (a *AuthStore) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := errors.Join(
		a.backend.Remove(ctx, AccessTokenKey),
		a.backend.Remove(ctx, RefreshTokenKey),
		a.persistRecord(ctx, nil),
	)
	a.user = nil
	a.status = StatusAnonymous
	a.generation++
	if err != nil {
		return fmt.Errorf("clear auth storage: %w", err)
	}
	return nil
}

// CheckAuth revalidates the stored token against GET /auth/me. Failures end in the
// anonymous state and are never returned. A result is dropped if login, register or
// logout committed while the check was in flight.
func (a *AuthStore) CheckAuth(ctx context.Context) AuthStatus {
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()

	token, err := a.AccessToken(ctx)
	if err != nil {
		logger.Warn("Could not read access token", map[string]interface{}{
			"error": err.Error(),
		})
		return a.commitCheck(ctx, gen, nil, false)
	}
	if token == "" {
		return a.commitCheck(ctx, gen, nil, false)
	}

	if !a.tokenUsable(token) {
		return a.commitCheck(ctx, gen, nil, true)
	}

	user, err := a.api.Me(ctx, token)
	if err != nil {
		unauthorized := errors.Is(err, storeapi.ErrUnauthorized)
		if !unauthorized {
			logger.Warn("Session check failed, keeping tokens", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return a.commitCheck(ctx, gen, nil, unauthorized)
	}
	return a.commitCheck(ctx, gen, user, false)
}

// AccessToken returns the stored access token, or "" when there is none.
func (a *AuthStore) AccessToken(ctx context.Context) (string, error) {
	raw, err := a.backend.Get(ctx, AccessTokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// User returns a copy of the current user, or nil.
func (a *AuthStore) User() *model.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *AuthStore) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil
}

func (a *AuthStore) Status() AuthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// RedirectPath is where a freshly signed in user lands.
func (a *AuthStore) RedirectPath() string {
	return RedirectPathFor(a.User())
}

func RedirectPathFor(user *model.User) string {
	if user.IsAdmin() {
		return AdminRedirectPath
	}
	return CustomerRedirectPath
}

func (a *AuthStore) tokenUsable(token string) bool {
	if a.tokenSecret != "" {
		if _, err := util.ValidateToken(token, a.tokenSecret); err != nil {
			logger.Debug("Stored access token rejected locally", map[string]interface{}{
				"error": err.Error(),
			})
			return false
		}
		return true
	}
	return !util.TokenExpired(token, a.now())
}

func (a *AuthStore) commitLogin(ctx context.Context, gen uint64, resp *storeapi.AuthResponse) (*model.User, error) {
	if resp == nil || resp.User == nil || resp.AccessToken == "" {
		return nil, fmt.Errorf("login response missing user or token: %w", storeapi.ErrUpstream)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.backend.Set(ctx, AccessTokenKey, []byte(resp.AccessToken)); err != nil {
		return nil, fmt.Errorf("persist access token: %w", err)
	}
	if resp.RefreshToken != "" {
		if err := a.backend.Set(ctx, RefreshTokenKey, []byte(resp.RefreshToken)); err != nil {
			a.rollbackTokens(ctx)
			return nil, fmt.Errorf("persist refresh token: %w", err)
		}
	}
	if err := a.persistRecord(ctx, resp.User); err != nil {
		a.rollbackTokens(ctx)
		return nil, err
	}

	if a.generation != gen {
		logger.Debug("Auth state changed during login, last login wins", nil)
	}
	user := *resp.User
	a.user = &user
	a.status = StatusAuthenticated
	a.generation++

	out := user
	return &out, nil
}

func (a *AuthStore) commitCheck(ctx context.Context, gen uint64, user *model.User, clearTokens bool) AuthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.generation != gen {
		return a.status
	}

	if clearTokens {
		if err := errors.Join(
			a.backend.Remove(ctx, AccessTokenKey),
			a.backend.Remove(ctx, RefreshTokenKey),
		); err != nil {
			logger.Warn("Failed to clear rejected tokens", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if err := a.persistRecord(ctx, user); err != nil {
		logger.Warn("Failed to persist auth record", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if user != nil {
		u := *user
		a.user = &u
		a.status = StatusAuthenticated
	} else {
		a.user = nil
		a.status = StatusAnonymous
	}
	return a.status
}

func (a *AuthStore) persistRecord(ctx context.Context, user *model.User) error {
	raw, err := json.Marshal(authRecord{User: user, IsAuthenticated: user != nil})
	if err != nil {
		return fmt.Errorf("encode auth record: %w", err)
	}
	if err := a.backend.Set(ctx, AuthStorageKey, raw); err != nil {
		return fmt.Errorf("persist auth record: %w", err)
	}
	return nil
}

func (a *AuthStore) rollbackTokens(ctx context.Context) {
	_ = a.backend.Remove(ctx, AccessTokenKey)
	_ = a.backend.Remove(ctx, RefreshTokenKey)
}

// asAuthenticationError turns an API rejection into an AuthenticationError.
// Transport and server failures are returned as they are.
func asAuthenticationError(err error, fallback string) error {
	if errors.Is(err, storeapi.ErrNetwork) || errors.Is(err, storeapi.ErrUpstream) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := storeapi.UserMessage(err)
	if msg == "" {
		msg = fallback
	}
	return &AuthenticationError{Message: msg, Err: err}
}
