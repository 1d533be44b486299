package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory store API covering every interface the services use.
type fakeStore struct {
	mu sync.Mutex

	products   []model.Product
	categories []model.Category
	orders     []model.Order

	listErr     error
	relatedErr  error
	categoryErr error
	orderErr    error
	adminErr    error

	queries        []storeapi.ProductQuery
	created        []storeapi.CreateOrderRequest
	productForms   []storeapi.ProductForm
	categoryInputs []storeapi.CategoryInput
	deleted        []string
	verified       []string
	rejected       map[string]string
	utrs           map[string]string
	users          map[string]*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rejected: map[string]string{},
		utrs:     map[string]string{},
		users:    map[string]*model.User{},
	}
}

func (f *fakeStore) ListProducts(_ context.Context, q storeapi.ProductQuery) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if q.Category != "" && f.relatedErr != nil {
		return nil, f.relatedErr
	}
	out := []model.Product{}
	for _, p := range f.products {
		if q.Featured && !p.IsFeatured {
			continue
		}
		if q.Category != "" && (p.Category == nil || p.Category.Slug != q.Category) {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, slug string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, &storeapi.APIError{StatusCode: http.StatusNotFound, Message: "Product not found"}
}

func (f *fakeStore) ListCategories(_ context.Context, _ int) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeStore) CreateOrder(_ context.Context, _ string, req storeapi.CreateOrderRequest) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.created = append(f.created, req)
	return &model.Order{
		ID:            "ord-1",
		OrderNumber:   "ORD-202601-ABC123",
		TotalAmount:   decimal.NewFromInt(199),
		PaymentStatus: model.PaymentStatusPending,
		OrderStatus:   model.OrderStatusPending,
		CreatedAt:     time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeStore) ListMyOrders(_ context.Context, _ string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return append([]model.Order(nil), f.orders...), nil
}

func (f *fakeStore) SubmitPaymentReference(_ context.Context, _ string, orderID, utr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return f.orderErr
	}
	f.utrs[orderID] = utr
	return nil
}

func (f *fakeStore) AdminListProducts(_ context.Context, _ string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeStore) AdminGetProduct(ctx context.Context, _ string, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, &storeapi.APIError{StatusCode: http.StatusNotFound, Message: "Product not found"}
}

func (f *fakeStore) AdminCreateProduct(_ context.Context, _ string, form storeapi.ProductForm) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	f.productForms = append(f.productForms, form)
	return &model.Product{ID: "p-new", Title: form.Data.Title, Slug: form.Data.Slug}, nil
}

func (f *fakeStore) AdminUpdateProduct(_ context.Context, _ string, id string, form storeapi.ProductForm) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	f.productForms = append(f.productForms, form)
	return &model.Product{ID: id, Title: form.Data.Title, Slug: form.Data.Slug}, nil
}

func (f *fakeStore) AdminDeleteProduct(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) AdminListCategories(_ context.Context, _ string) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeStore) AdminCreateCategory(_ context.Context, _ string, in storeapi.CategoryInput) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryInputs = append(f.categoryInputs, in)
	return &model.Category{ID: "c-new", Name: in.Name, Slug: in.Slug}, nil
}

func (f *fakeStore) AdminUpdateCategory(_ context.Context, _ string, id string, in storeapi.CategoryInput) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryInputs = append(f.categoryInputs, in)
	return &model.Category{ID: id, Name: in.Name, Slug: in.Slug}, nil
}

func (f *fakeStore) AdminDeleteCategory(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) AdminListOrders(_ context.Context, _ string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return append([]model.Order(nil), f.orders...), nil
}

func (f *fakeStore) AdminVerifyOrder(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeStore) AdminRejectOrder(_ context.Context, _ string, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.rejected[id] = reason
	return nil
}

// auth side, for session.AuthStore

func (f *fakeStore) Login(_ context.Context, req storeapi.LoginRequest) (*storeapi.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Password != "secret1" {
		return nil, &storeapi.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	role := model.RoleCustomer
	if req.Email == "admin@digitalghar.in" {
		role = model.RoleAdmin
	}
	user := &model.User{ID: "u-" + req.Email, Email: req.Email, Name: "Asha", Role: role}
	token := "access-" + req.Email
	f.users[token] = user
	return &storeapi.AuthResponse{AccessToken: token, RefreshToken: "refresh", User: user}, nil
}

func (f *fakeStore) Register(ctx context.Context, req storeapi.RegisterRequest) (*storeapi.AuthResponse, error) {
	resp, err := f.Login(ctx, storeapi.LoginRequest{Email: req.Email, Password: req.Password})
	if err == nil {
		resp.User.Name = req.Name
	}
	return resp, err
}

func (f *fakeStore) Me(_ context.Context, token string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, &storeapi.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid token"}
}

func boolPtr(b bool) *bool { return &b }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testProduct(id, title, category string, price int64) model.Product {
	return model.Product{
		ID:          id,
		Title:       title,
		Slug:        "slug-" + id,
		Price:       decimal.NewFromInt(price),
		ProductType: model.ProductTypePDF,
		Category:    &model.Category{Name: category, Slug: category},
	}
}

type cartSet map[string]bool

func (c cartSet) Contains(id string) bool { return c[id] }
