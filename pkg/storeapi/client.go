package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/logger"
)

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 4 << 10

// Client represents a store API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new store API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// ==================== Catalog ====================

// ListProducts calls GET /products.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	params := url.Values{}
	if q.Featured {
		params.Set("featured", "true")
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var out productsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/products", params), "", nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out.Products, nil
}

// GetProduct calls GET /products/{slug}.
func (c *Client) GetProduct(ctx context.Context, slug string) (*model.Product, error) {
	var out productEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(slug), "", nil, &out); err != nil {
		return nil, fmt.Errorf("get product %s: %w", slug, err)
	}
	if out.Product == nil {
		return nil, fmt.Errorf("get product %s: %w", slug, ErrNotFound)
	}
	return out.Product, nil
}

// ListCategories calls GET /categories.
func (c *Client) ListCategories(ctx context.Context, limit int) ([]model.Category, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var out categoriesEnvelope
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/categories", params), "", nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out.Categories, nil
}

// ==================== Auth ====================

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

// Me calls GET /auth/me with the given access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*model.User, error) {
	var out userEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("current user: %w", ErrUnauthorized)
	}
	return out.User, nil
}

// ==================== Customer orders ====================

func (c *Client) CreateOrder(ctx context.Context, accessToken string, req CreateOrderRequest) (*model.Order, error) {
	var out orderEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/orders", accessToken, req, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if out.Order == nil {
		return nil, fmt.Errorf("create order: empty response: %w", ErrUpstream)
	}
	return out.Order, nil
}

func (c *Client) ListMyOrders(ctx context.Context, accessToken string) ([]model.Order, error) {
	var out ordersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/orders", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out.Orders, nil
}

// SubmitPaymentReference posts the bank transfer UTR for manual verification.
func (c *Client) SubmitPaymentReference(ctx context.Context, accessToken, orderID, utr string) error {
	path := "/orders/" + url.PathEscape(orderID) + "/payment"
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, PaymentReferenceRequest{UTRNumber: utr}, nil); err != nil {
		return fmt.Errorf("submit payment reference: %w", err)
	}
	return nil
}

// ==================== Admin ====================

func (c *Client) AdminListProducts(ctx context.Context, accessToken string) ([]model.Product, error) {
	var out productsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/admin/products", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("admin list products: %w", err)
	}
	return out.Products, nil
}

func (c *Client) AdminGetProduct(ctx context.Context, accessToken, id string) (*model.Product, error) {
	var out productEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/admin/products/"+url.PathEscape(id), accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("admin get product %s: %w", id, err)
	}
	if out.Product == nil {
		return nil, fmt.Errorf("admin get product %s: %w", id, ErrNotFound)
	}
	return out.Product, nil
}

func (c *Client) AdminCreateProduct(ctx context.Context, accessToken string, form ProductForm) (*model.Product, error) {
	return c.sendProductForm(ctx, http.MethodPost, "/admin/products", accessToken, form)
}

func (c *Client) AdminUpdateProduct(ctx context.Context, accessToken, id string, form ProductForm) (*model.Product, error) {
	return c.sendProductForm(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(id), accessToken, form)
}

func (c *Client) AdminDeleteProduct(ctx context.Context, accessToken, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), accessToken, nil, nil); err != nil {
		return fmt.Errorf("admin delete product %s: %w", id, err)
	}
	return nil
}

func (c *Client) AdminListCategories(ctx context.Context, accessToken string) ([]model.Category, error) {
	var out categoriesEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/admin/categories", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("admin list categories: %w", err)
	}
	return out.Categories, nil
}

func (c *Client) AdminCreateCategory(ctx context.Context, accessToken string, in CategoryInput) (*model.Category, error) {
	var out categoryEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/admin/categories", accessToken, in, &out); err != nil {
		return nil, fmt.Errorf("admin create category: %w", err)
	}
	return out.Category, nil
}

func (c *Client) AdminUpdateCategory(ctx context.Context, accessToken, id string, in CategoryInput) (*model.Category, error) {
	var out categoryEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/admin/categories/"+url.PathEscape(id), accessToken, in, &out); err != nil {
		return nil, fmt.Errorf("admin update category %s: %w", id, err)
	}
	return out.Category, nil
}

func (c *Client) AdminDeleteCategory(ctx context.Context, accessToken, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/admin/categories/"+url.PathEscape(id), accessToken, nil, nil); err != nil {
		return fmt.Errorf("admin delete category %s: %w", id, err)
	}
	return nil
}

func (c *Client) AdminListOrders(ctx context.Context, accessToken string) ([]model.Order, error) {
	var out ordersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/admin/orders", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("admin list orders: %w", err)
	}
	return out.Orders, nil
}

func (c *Client) AdminVerifyOrder(ctx context.Context, accessToken, id string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/admin/orders/"+url.PathEscape(id)+"/verify", accessToken, nil, nil); err != nil {
		return fmt.Errorf("admin verify order %s: %w", id, err)
	}
	return nil
}

func (c *Client) AdminRejectOrder(ctx context.Context, accessToken, id, reason string) error {
	path := "/admin/orders/" + url.PathEscape(id) + "/reject"
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, RejectOrderRequest{Reason: reason}, nil); err != nil {
		return fmt.Errorf("admin reject order %s: %w", id, err)
	}
	return nil
}

// ==================== Transport ====================

func (c *Client) sendProductForm(ctx context.Context, method, path, accessToken string, form ProductForm) (*model.Product, error) {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return nil, fmt.Errorf("encode product form: %w", err)
	}

	resp, err := c.doRequest(ctx, method, path, accessToken, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	var out productEnvelope
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product response: %w", err)
		}
	}
	return out.Product, nil
}

// encodeProductForm builds the multipart body: "data" (JSON), optional "image" and "file".
func encodeProductForm(form ProductForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(form.Data)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("data", string(data)); err != nil {
		return nil, "", err
	}

	parts := []struct {
		field  string
		upload *Upload
	}{{"image", form.Image}, {"file", form.File}}
	for _, p := range parts {
		field, upload := p.field, p.upload
		if upload == nil {
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.Filename))
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(upload.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// doJSON sends payload (if any) as JSON and decodes the response into out (if any).
func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, payload, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
		contentType = "application/json"
	}

	resp, err := c.doRequest(ctx, method, path, accessToken, body, contentType)
	if err != nil {
		return err
	}

	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w: %v", ErrUpstream, err)
	}
	return nil
}

// doRequest performs an HTTP request against the store API
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body io.Reader, contentType string) ([]byte, error) {
	endpoint := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	logger.Debug("Store API call", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newAPIError(resp.StatusCode, raw)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w: %v", ErrUpstream, err)
	}
	return respBody, nil
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
