package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/format"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

var ErrCategoryHasProducts = errors.New("category has products")

const recentOrderLimit = 5

// AdminAPI is the back-office part of the store API.
type AdminAPI interface {
	AdminListProducts(ctx context.Context, accessToken string) ([]model.Product, error)
	AdminGetProduct(ctx context.Context, accessToken, id string) (*model.Product, error)
	AdminCreateProduct(ctx context.Context, accessToken string, form storeapi.ProductForm) (*model.Product, error)
	AdminUpdateProduct(ctx context.Context, accessToken, id string, form storeapi.ProductForm) (*model.Product, error)
	AdminDeleteProduct(ctx context.Context, accessToken, id string) error
	AdminListCategories(ctx context.Context, accessToken string) ([]model.Category, error)
	AdminCreateCategory(ctx context.Context, accessToken string, in storeapi.CategoryInput) (*model.Category, error)
	AdminUpdateCategory(ctx context.Context, accessToken, id string, in storeapi.CategoryInput) (*model.Category, error)
	AdminDeleteCategory(ctx context.Context, accessToken, id string) error
	AdminListOrders(ctx context.Context, accessToken string) ([]model.Order, error)
	AdminVerifyOrder(ctx context.Context, accessToken, id string) error
	AdminRejectOrder(ctx context.Context, accessToken, id, reason string) error
}

// ProductDraft is the admin product form as submitted. Prices arrive as text.
type ProductDraft struct {
	Title            string            `json:"title" form:"title" validate:"required"`
	Slug             string            `json:"slug" form:"slug"`
	ShortDescription string            `json:"shortDescription" form:"shortDescription" validate:"required"`
	LongDescription  string            `json:"longDescription" form:"longDescription"`
	CategoryID       string            `json:"categoryId" form:"categoryId" validate:"required"`
	Price            string            `json:"price" form:"price" validate:"required"`
	OriginalPrice    string            `json:"originalPrice" form:"originalPrice"`
	ProductType      model.ProductType `json:"productType" form:"productType" validate:"omitempty,oneof=PDF VIDEO COURSE TEMPLATE PLR OTHER"`
	AgeGroup         string            `json:"ageGroup" form:"ageGroup"`
	LicenseType      model.LicenseType `json:"licenseType" form:"licenseType" validate:"omitempty,oneof=PERSONAL PLR MRR"`
	IsFeatured       bool              `json:"isFeatured" form:"isFeatured"`
	IsActive         *bool             `json:"isActive" form:"isActive"`
	Tags             string            `json:"tags" form:"tags"`
	ImageURL         string            `json:"imageUrl" form:"imageUrl"`
}

type CategoryDraft struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
	IsActive     *bool  `json:"isActive"`
}

// OrderFilter narrows the admin order table. Search matches order number, email or name.
type OrderFilter struct {
	Search        string
	PaymentStatus model.PaymentStatus
}

func (f OrderFilter) Matches(o model.Order) bool {
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(o.OrderNumber), q) || strings.Contains(strings.ToLower(o.UserEmail), q) {
		return true
	}
	return o.User != nil && strings.Contains(strings.ToLower(o.User.Name), q)
}

func FilterOrders(orders []model.Order, f OrderFilter) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

type RevenueStats struct {
	ThisMonth     decimal.Decimal `json:"thisMonth"`
	LastMonth     decimal.Decimal `json:"lastMonth"`
	ChangePercent *float64        `json:"changePercent,omitempty"`
}

type OrderStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

type ProductStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type DashboardStats struct {
	Revenue      RevenueStats  `json:"revenue"`
	Orders       OrderStats    `json:"orders"`
	Products     ProductStats  `json:"products"`
	RecentOrders []model.Order `json:"recentOrders"`
}

type AdminService interface {
	ListProducts(ctx context.Context, token string) ([]model.Product, error)
	GetProduct(ctx context.Context, token, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, token string, draft ProductDraft, image, file *storeapi.Upload) (*model.Product, error)
	UpdateProduct(ctx context.Context, token, id string, draft ProductDraft, image, file *storeapi.Upload) (*model.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error

	ListCategories(ctx context.Context, token string) ([]model.Category, error)
	CreateCategory(ctx context.Context, token string, draft CategoryDraft) (*model.Category, error)
	UpdateCategory(ctx context.Context, token, id string, draft CategoryDraft) (*model.Category, error)
	DeleteCategory(ctx context.Context, token string, category model.Category) error
	DeleteCategoryByID(ctx context.Context, token, id string) error

	ListOrders(ctx context.Context, token string, filter OrderFilter) ([]model.Order, error)
	VerifyOrder(ctx context.Context, token, id string) error
	RejectOrder(ctx context.Context, token, id, reason string) error

	Dashboard(ctx context.Context, token string) (*DashboardStats, error)
	ExportOrders(ctx context.Context, token string, filter OrderFilter) ([]byte, error)
}

type adminService struct {
	api AdminAPI
	now func() time.Time
}

func NewAdminService(api AdminAPI) AdminService {
	return &adminService{api: api, now: time.Now}
}

// ==================== Products ====================

// PrepareProduct runs the form checks and builds the "data" document.
func PrepareProduct(draft ProductDraft) (*storeapi.ProductInput, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.ShortDescription = strings.TrimSpace(draft.ShortDescription)
	if err := validateStruct(draft, "Please fill in all required fields", map[string]string{
		"title.required":            "Title is required",
		"shortDescription.required": "Short description is required",
		"categoryId.required":       "Category is required",
		"price.required":            "Price is required",
	}); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(draft.Price))
	if err != nil || !price.IsPositive() {
		return nil, newValidationError("Please fill in all required fields", map[string]string{
			"price": "Price must be a number greater than 0",
		})
	}

	in := &storeapi.ProductInput{
		Title:            draft.Title,
		Slug:             strings.TrimSpace(draft.Slug),
		ShortDescription: draft.ShortDescription,
		LongDescription:  draft.LongDescription,
		CategoryID:       draft.CategoryID,
		Price:            price.InexactFloat64(),
		ProductType:      draft.ProductType,
		AgeGroup:         strings.TrimSpace(draft.AgeGroup),
		LicenseType:      draft.LicenseType,
		IsFeatured:       draft.IsFeatured,
		IsActive:         true,
		Tags:             SplitTags(draft.Tags),
		ImageURL:         strings.TrimSpace(draft.ImageURL),
	}
	if in.Slug == "" {
		in.Slug = format.Slugify(draft.Title)
	}
	if in.ProductType == "" {
		in.ProductType = model.ProductTypePDF
	}
	if in.LicenseType == "" {
		in.LicenseType = model.LicensePersonal
	}
	if draft.IsActive != nil {
		in.IsActive = *draft.IsActive
	}

	if s := strings.TrimSpace(draft.OriginalPrice); s != "" {
		original, err := decimal.NewFromString(s)
		if err != nil || original.IsNegative() {
			return nil, newValidationError("Please check the highlighted fields", map[string]string{
				"originalPrice": "Original price must be a number",
			})
		}
		f := original.InexactFloat64()
		in.OriginalPrice = &f
	}
	return in, nil
}

// SplitTags splits a comma separated list, trimming blanks.
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *adminService) ListProducts(ctx context.Context, token string) ([]model.Product, error) {
	return s.api.AdminListProducts(ctx, token)
}

func (s *adminService) GetProduct(ctx context.Context, token, id string) (*model.Product, error) {
	return s.api.AdminGetProduct(ctx, token, id)
}

func (s *adminService) CreateProduct(ctx context.Context, token string, draft ProductDraft, image, file *storeapi.Upload) (*model.Product, error) {
	in, err := PrepareProduct(draft)
	if err != nil {
		return nil, err
	}
	product, err := s.api.AdminCreateProduct(ctx, token, storeapi.ProductForm{Data: *in, Image: image, File: file})
	if err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"slug": in.Slug,
		})
		return nil, err
	}
	logger.Info("Product created", map[string]interface{}{
		"slug": in.Slug,
	})
	return product, nil
}

func (s *adminService) UpdateProduct(ctx context.Context, token, id string, draft ProductDraft, image, file *storeapi.Upload) (*model.Product, error) {
	in, err := PrepareProduct(draft)
	if err != nil {
		return nil, err
	}
	product, err := s.api.AdminUpdateProduct(ctx, token, id, storeapi.ProductForm{Data: *in, Image: image, File: file})
	if err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	logger.Info("Product updated", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

func (s *adminService) DeleteProduct(ctx context.Context, token, id string) error {
	if err := s.api.AdminDeleteProduct(ctx, token, id); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// ==================== Categories ====================

func prepareCategory(draft CategoryDraft) (*storeapi.CategoryInput, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if err := validateStruct(draft, "Please fill in all required fields", map[string]string{
		"name.required": "Name is required",
	}); err != nil {
		return nil, err
	}

	in := &storeapi.CategoryInput{
		Name:         draft.Name,
		Slug:         strings.TrimSpace(draft.Slug),
		Description:  draft.Description,
		Icon:         draft.Icon,
		DisplayOrder: draft.DisplayOrder,
		IsActive:     true,
	}
	if in.Slug == "" {
		in.Slug = format.Slugify(draft.Name)
	}
	if draft.IsActive != nil {
		in.IsActive = *draft.IsActive
	}
	return in, nil
}

func (s *adminService) ListCategories(ctx context.Context, token string) ([]model.Category, error) {
	categories, err := s.api.AdminListCategories(ctx, token)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].DisplayOrder < categories[j].DisplayOrder
	})
	return categories, nil
}

func (s *adminService) CreateCategory(ctx context.Context, token string, draft CategoryDraft) (*model.Category, error) {
	in, err := prepareCategory(draft)
	if err != nil {
		return nil, err
	}
	return s.api.AdminCreateCategory(ctx, token, *in)
}

func (s *adminService) UpdateCategory(ctx context.Context, token, id string, draft CategoryDraft) (*model.Category, error) {
	in, err := prepareCategory(draft)
	if err != nil {
		return nil, err
	}
	return s.api.AdminUpdateCategory(ctx, token, id, *in)
}

// DeleteCategory refuses locally when the category is known to hold products.
// With no known count the store API decides.
func (s *adminService) DeleteCategory(ctx context.Context, token string, category model.Category) error {
	if count, known := category.ProductCount(); known && count > 0 {
		logger.Warn("Category delete blocked", map[string]interface{}{
			"category_id": category.ID,
			"products":    count,
		})
		return ErrCategoryHasProducts
	}
	if err := s.api.AdminDeleteCategory(ctx, token, category.ID); err != nil {
		logger.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": category.ID,
		})
		return err
	}
	return nil
}

// DeleteCategoryByID looks the category up first so the product count can be checked.
func (s *adminService) DeleteCategoryByID(ctx context.Context, token, id string) error {
	categories, err := s.api.AdminListCategories(ctx, token)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.ID == id {
			return s.DeleteCategory(ctx, token, c)
		}
	}
	return s.DeleteCategory(ctx, token, model.Category{ID: id})
}

// ==================== Orders ====================

func (s *adminService) ListOrders(ctx context.Context, token string, filter OrderFilter) ([]model.Order, error) {
	orders, err := s.api.AdminListOrders(ctx, token)
	if err != nil {
		logger.Error("Failed to list orders", err, nil)
		return nil, err
	}
	return FilterOrders(orders, filter), nil
}

func (s *adminService) VerifyOrder(ctx context.Context, token, id string) error {
	if err := s.api.AdminVerifyOrder(ctx, token, id); err != nil {
		logger.Error("Failed to verify order", err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}
	logger.Info("Order verified", map[string]interface{}{
		"order_id": id,
	})
	return nil
}

func (s *adminService) RejectOrder(ctx context.Context, token, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return newValidationError("Please provide a reason for rejection", map[string]string{
			"reason": "Reason is required",
		})
	}
	if err := s.api.AdminRejectOrder(ctx, token, id, reason); err != nil {
		logger.Error("Failed to reject order", err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}
	logger.Info("Order rejected", map[string]interface{}{
		"order_id": id,
	})
	return nil
}

// ==================== Dashboard ====================

func (s *adminService) Dashboard(ctx context.Context, token string) (*DashboardStats, error) {
	var (
		orders   []model.Order
		products []model.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.api.AdminListOrders(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.api.AdminListProducts(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to load dashboard", err, nil)
		return nil, err
	}

	return ComputeDashboard(orders, products, s.now()), nil
}

// ComputeDashboard derives the back-office headline numbers. Revenue counts verified orders.
func ComputeDashboard(orders []model.Order, products []model.Product, now time.Time) *DashboardStats {
	now = now.In(format.IST)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, format.IST)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	stats := &DashboardStats{
		Revenue: RevenueStats{ThisMonth: decimal.Zero, LastMonth: decimal.Zero},
	}

	for _, o := range orders {
		stats.Orders.Total++
		switch o.OrderStatus {
		case model.OrderStatusCompleted:
			stats.Orders.Completed++
		case model.OrderStatusPending, model.OrderStatusProcessing:
			stats.Orders.Pending++
		}

		if o.PaymentStatus != model.PaymentStatusVerified {
			continue
		}
		paid := o.CreatedAt
		if o.PaidAt != nil {
			paid = *o.PaidAt
		}
		switch {
		case !paid.Before(thisMonth):
			stats.Revenue.ThisMonth = stats.Revenue.ThisMonth.Add(o.TotalAmount)
		case !paid.Before(lastMonth):
			stats.Revenue.LastMonth = stats.Revenue.LastMonth.Add(o.TotalAmount)
		}
	}

	if stats.Revenue.LastMonth.IsPositive() {
		change := stats.Revenue.ThisMonth.Sub(stats.Revenue.LastMonth).
			Div(stats.Revenue.LastMonth).Mul(hundred).Round(1).InexactFloat64()
		stats.Revenue.ChangePercent = &change
	}

	for _, p := range products {
		stats.Products.Total++
		if p.IsActive == nil || *p.IsActive {
			stats.Products.Active++
		}
	}

	recent := make([]model.Order, len(orders))
	copy(recent, orders)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentOrderLimit {
		recent = recent[:recentOrderLimit]
	}
	stats.RecentOrders = recent
	return stats
}

// ==================== Export ====================

var exportHeaders = []string{"Order Number", "Date", "Customer", "Email", "Items", "Amount", "Payment Status", "Order Status", "UTR"}

// ExportOrders renders the filtered orders as an XLSX workbook.
func (s *adminService) ExportOrders(ctx context.Context, token string, filter OrderFilter) ([]byte, error) {
	orders, err := s.ListOrders(ctx, token, filter)
	if err != nil {
		return nil, err
	}
	return RenderOrdersXLSX(orders)
}

func RenderOrdersXLSX(orders []model.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, o := range orders {
		titles := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			titles = append(titles, item.ProductTitle)
		}
		row := []interface{}{
			o.OrderNumber,
			format.FormatDate(o.CreatedAt),
			o.CustomerName(),
			o.UserEmail,
			strings.Join(titles, ", "),
			o.TotalAmount.InexactFloat64(),
			string(o.PaymentStatus),
			string(o.OrderStatus),
			o.UTRNumber,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write order %s: %w", o.OrderNumber, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
