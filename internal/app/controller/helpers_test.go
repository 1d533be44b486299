package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/digitalghar/storefront/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testPassword    = "secret1"
	testTokenSecret = "test-secret"
)

var testSessionConfig = config.SessionConfig{
	CookieName:   "dg_session",
	CookieMaxAge: time.Hour,
}

// fakeStore is an in-process store API. It speaks the same JSON the real API does so
// the controllers run against the real client.
type fakeStore struct {
	mu sync.Mutex

	products   []model.Product
	categories []model.Category
	orders     []model.Order
	users      map[string]*model.User // email -> user

	failCatalog bool

	createdOrders  []storeapi.CreateOrderRequest
	utrs           map[string]string
	verified       []string
	rejected       map[string]string
	productInputs  []storeapi.ProductInput
	productUploads []string
	deleted        []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*model.User{},
		utrs:     map[string]string{},
		rejected: map[string]string{},
	}
}

func (f *fakeStore) issue(user *model.User) gin.H {
	token, _ := util.SignToken(user.ID, user.Email, string(user.Role), testTokenSecret, time.Hour)
	return gin.H{"accessToken": token, "refreshToken": "refresh-" + user.ID, "user": user}
}

func (f *fakeStore) authorized(c *gin.Context, admin bool) (*model.User, bool) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims, err := util.ValidateToken(raw, testTokenSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Token expired"})
		return nil, false
	}
	f.mu.Lock()
	user := f.users[claims.Email]
	f.mu.Unlock()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
		return nil, false
	}
	if admin && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "Admins only"})
		return nil, false
	}
	return user, true
}

func (f *fakeStore) handler() http.Handler {
	r := gin.New()

	r.GET("/products", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCatalog {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL"})
			return
		}
		out := []model.Product{}
		for _, p := range f.products {
			if c.Query("featured") == "true" && !p.IsFeatured {
				continue
			}
			if cat := c.Query("category"); cat != "" && (p.Category == nil || p.Category.Slug != cat) {
				continue
			}
			out = append(out, p)
		}
		c.JSON(http.StatusOK, gin.H{"products": out})
	})
	r.GET("/products/:slug", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range f.products {
			if p.Slug == c.Param("slug") {
				c.JSON(http.StatusOK, gin.H{"product": p})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "Product not found"})
	})
	r.GET("/categories", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCatalog {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": f.categories})
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req storeapi.LoginRequest
		_ = c.ShouldBindJSON(&req)
		f.mu.Lock()
		user := f.users[req.Email]
		f.mu.Unlock()
		if user == nil || req.Password != testPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "INVALID_CREDENTIALS", "message": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, f.issue(user))
	})
	r.POST("/auth/register", func(c *gin.Context) {
		var req storeapi.RegisterRequest
		_ = c.ShouldBindJSON(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, exists := f.users[req.Email]; exists {
			c.JSON(http.StatusConflict, gin.H{"error": "EMAIL_TAKEN", "message": "Email already registered"})
			return
		}
		user := &model.User{ID: uuid.NewString(), Email: req.Email, Name: req.Name, Role: model.RoleCustomer}
		f.users[req.Email] = user
		c.JSON(http.StatusCreated, f.issue(user))
	})
	r.GET("/auth/me", func(c *gin.Context) {
		if user, ok := f.authorized(c, false); ok {
			c.JSON(http.StatusOK, gin.H{"user": user})
		}
	})

	r.POST("/orders", func(c *gin.Context) {
		var req storeapi.CreateOrderRequest
		_ = c.ShouldBindJSON(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.createdOrders = append(f.createdOrders, req)
		c.JSON(http.StatusCreated, gin.H{"order": model.Order{
			ID:            "o-new",
			OrderNumber:   "ORD-202601-NEW001",
			TotalAmount:   decimal.NewFromInt(499),
			PaymentStatus: model.PaymentStatusPending,
			CreatedAt:     time.Now(),
		}})
	})
	r.GET("/orders", func(c *gin.Context) {
		user, ok := f.authorized(c, false)
		if !ok {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []model.Order{}
		for _, o := range f.orders {
			if o.UserEmail == user.Email {
				out = append(out, o)
			}
		}
		c.JSON(http.StatusOK, gin.H{"orders": out})
	})
	r.POST("/orders/:id/payment", func(c *gin.Context) {
		if _, ok := f.authorized(c, false); !ok {
			return
		}
		var req storeapi.PaymentReferenceRequest
		_ = c.ShouldBindJSON(&req)
		f.mu.Lock()
		f.utrs[c.Param("id")] = req.UTRNumber
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	admin := r.Group("/admin")
	admin.Use(func(c *gin.Context) {
		if _, ok := f.authorized(c, true); !ok {
			c.Abort()
		}
	})
	admin.GET("/products", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"products": f.products})
	})
	admin.POST("/products", func(c *gin.Context) {
		var in storeapi.ProductInput
		if err := json.Unmarshal([]byte(c.PostForm("data")), &in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_DATA"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.productInputs = append(f.productInputs, in)
		for _, field := range []string{"image", "file"} {
			if fh, err := c.FormFile(field); err == nil {
				f.productUploads = append(f.productUploads, field+":"+fh.Filename)
			}
		}
		c.JSON(http.StatusCreated, gin.H{"product": model.Product{ID: "p-new", Title: in.Title, Slug: in.Slug}})
	})
	admin.DELETE("/products/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, "product:"+c.Param("id"))
		c.Status(http.StatusNoContent)
	})
	admin.GET("/categories", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"categories": f.categories})
	})
	admin.DELETE("/categories/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, "category:"+c.Param("id"))
		c.Status(http.StatusNoContent)
	})
	admin.GET("/orders", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"orders": f.orders})
	})
	admin.POST("/orders/:id/verify", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.verified = append(f.verified, c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	admin.POST("/orders/:id/reject", func(c *gin.Context) {
		var req storeapi.RejectOrderRequest
		_ = c.ShouldBindJSON(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rejected[c.Param("id")] = req.Reason
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	return r
}

// testEnv is one storefront instance wired to a fake store API.
type testEnv struct {
	store   *fakeStore
	client  *storeapi.Client
	manager *session.Manager
	router  *gin.Engine
}

func setupControllerTest(t *testing.T, opts ...session.ManagerOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	srv := httptest.NewServer(store.handler())
	t.Cleanup(srv.Close)

	client, err := storeapi.NewClient(storeapi.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	opts = append(opts, session.WithAuthOptions(session.WithTokenSecret(testTokenSecret)))
	manager := session.NewManager(storage.NewMemoryBackend(), client, opts...)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware(), middleware.SessionMiddleware(manager, testSessionConfig))

	return &testEnv{store: store, client: client, manager: manager, router: router}
}

func (e *testEnv) addUser(email, name string, role model.UserRole) *model.User {
	user := &model.User{ID: "u-" + email, Email: email, Name: name, Role: role}
	e.store.mu.Lock()
	e.store.users[email] = user
	e.store.mu.Unlock()
	return user
}

// signIn creates a session signed in as email and returns its id.
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	id := uuid.NewString()
	sess, err := e.manager.Get(context.Background(), id)
	require.NoError(t, err)
	_, err = sess.Auth.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return id
}

func (e *testEnv) session(t *testing.T, id string) *session.Session {
	t.Helper()
	sess, err := e.manager.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func (e *testEnv) do(method, path string, body interface{}, sessionID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, sessionID)
}

func (e *testEnv) serve(req *http.Request, sessionID string) *httptest.ResponseRecorder {
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: testSessionConfig.CookieName, Value: sessionID})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func testProduct(id, title, categorySlug string, price int64) model.Product {
	return model.Product{
		ID:          id,
		Title:       title,
		Slug:        strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Price:       decimal.NewFromInt(price),
		ProductType: model.ProductTypePDF,
		Category:    &model.Category{ID: "c-" + categorySlug, Name: strings.ToUpper(categorySlug[:1]) + categorySlug[1:], Slug: categorySlug},
	}
}

func newCatalog(e *testEnv) service.CatalogService {
	return service.NewCatalogService(e.client)
}
