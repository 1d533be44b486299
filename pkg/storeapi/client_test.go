package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/api/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "empty base url", config: Config{}},
		{name: "relative url", config: Config{BaseURL: "/api"}},
		{name: "negative timeout", config: Config{BaseURL: "http://localhost:5000/api", Timeout: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestClient_ListProducts_QueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("featured"))
		assert.Equal(t, "6", r.URL.Query().Get("limit"))
		assert.False(t, r.URL.Query().Has("search"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"products":[{"id":"p1","title":"Notion Planner","slug":"notion-planner","price":499}]}`)
	})

	products, err := client.ListProducts(context.Background(), ProductQuery{Featured: true, Limit: 6})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(499)))
}

func TestClient_Me_SendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"user":{"id":"u1","email":"a@b.in","name":"Asha","role":"ADMIN"}}`)
	})

	user, err := client.Me(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantMessage string
	}{
		{name: "401", status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`, wantErr: ErrUnauthorized, wantMessage: "Invalid credentials"},
		{name: "403", status: http.StatusForbidden, body: `{}`, wantErr: ErrForbidden},
		{name: "404", status: http.StatusNotFound, body: `{"error":"NOT_FOUND","message":"Product not found"}`, wantErr: ErrNotFound, wantMessage: "Product not found"},
		{name: "409", status: http.StatusConflict, body: `{"message":"Email already registered"}`, wantErr: ErrRejected, wantMessage: "Email already registered"},
		{name: "500 non-json", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.in", Password: "secret1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMessage, UserMessage(err))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: baseURL})
	require.NoError(t, err)

	_, err = client.ListCategories(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_CreateOrder_SendsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"p1", "p2"}, req.ProductIDs)
		assert.Equal(t, "upi", string(req.PaymentMethod))

		_, _ = io.WriteString(w, `{"order":{"id":"o1","orderNumber":"ORD-202601-ABC123","totalAmount":998,"paymentStatus":"PENDING","orderStatus":"PENDING","items":[]}}`)
	})

	order, err := client.CreateOrder(context.Background(), "tok", CreateOrderRequest{
		ProductIDs:    []string{"p1", "p2"},
		Email:         "a@b.in",
		Name:          "Asha",
		PaymentMethod: "upi",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-202601-ABC123", order.OrderNumber)
}

func TestClient_AdminCreateProduct_Multipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var data ProductInput
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &data))
		assert.Equal(t, "Kids Worksheets", data.Title)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cover.png", header.Filename)

		_, _, err = r.FormFile("file")
		assert.True(t, errors.Is(err, http.ErrMissingFile))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"product":{"id":"p9","title":"Kids Worksheets","slug":"kids-worksheets","price":199}}`)
	})

	product, err := client.AdminCreateProduct(context.Background(), "admin-tok", ProductForm{
		Data:  ProductInput{Title: "Kids Worksheets", Slug: "kids-worksheets", Price: 199},
		Image: &Upload{Filename: "cover.png", ContentType: "image/png", Data: []byte{0x89, 0x50}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p9", product.ID)
}

func TestClient_AdminRejectOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/orders/o1/reject", r.URL.Path)
		var req RejectOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "UTR mismatch", req.Reason)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.AdminRejectOrder(context.Background(), "tok", "o1", "UTR mismatch"))
}
