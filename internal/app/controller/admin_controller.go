package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	apperrors "github.com/digitalghar/storefront/internal/errors"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/format"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/gin-gonic/gin"
)

const (
	maxCoverImageSize  = 5 << 20   // 5MB
	maxProductFileSize = 500 << 20 // 500MB
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AdminController serves the back office. Every route runs behind RequireAdmin.
type AdminController struct {
	adminService service.AdminService
	now          func() time.Time
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
		now:          time.Now,
	}
}

type ListOrdersQuery struct {
	Search        string `form:"search"`
	PaymentStatus string `form:"paymentStatus"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

func (q ListOrdersQuery) filter() service.OrderFilter {
	return service.OrderFilter{
		Search:        q.Search,
		PaymentStatus: model.PaymentStatus(strings.ToUpper(strings.TrimSpace(q.PaymentStatus))),
	}
}

// ==================== Dashboard ====================

// Dashboard returns revenue, order and product stats
// GET /api/v1/admin/dashboard
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	stats, err := ctrl.adminService.Dashboard(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "dashboard")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ==================== Products ====================

// ListProducts returns every product including inactive ones
// GET /api/v1/admin/products
func (ctrl *AdminController) ListProducts(c *gin.Context) {
	products, err := ctrl.adminService.ListProducts(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product for the edit form
// GET /api/v1/admin/products/:id
func (ctrl *AdminController) GetProduct(c *gin.Context) {
	product, err := ctrl.adminService.GetProduct(c.Request.Context(), middleware.GetAccessToken(c), c.Param("id"))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// CreateProduct accepts JSON, or multipart with a "data" JSON part plus optional
// "image" and "file" parts
// POST /api/v1/admin/products
func (ctrl *AdminController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	draft, image, file, ok := ctrl.bindProductForm(c)
	if !ok {
		return
	}

	product, err := ctrl.adminService.CreateProduct(c.Request.Context(), middleware.GetAccessToken(c), draft, image, file)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
	})
}

// UpdateProduct replaces a product's fields
// PUT /api/v1/admin/products/:id
func (ctrl *AdminController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id := c.Param("id")
	draft, image, file, ok := ctrl.bindProductForm(c)
	if !ok {
		return
	}

	product, err := ctrl.adminService.UpdateProduct(c.Request.Context(), middleware.GetAccessToken(c), id, draft, image, file)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	log.Info("Product updated", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// DeleteProduct removes a product
// DELETE /api/v1/admin/products/:id
func (ctrl *AdminController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := ctrl.adminService.DeleteProduct(c.Request.Context(), middleware.GetAccessToken(c), id); err != nil {
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted",
	})
}

func (ctrl *AdminController) bindProductForm(c *gin.Context) (service.ProductDraft, *storeapi.Upload, *storeapi.Upload, bool) {
	log := middleware.GetLoggerFromContext(c)
	var draft service.ProductDraft

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&draft); err != nil {
			log.Warn("Invalid product request", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
			return draft, nil, nil, false
		}
		return draft, nil, nil, true
	}

	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &draft); err != nil {
			log.Warn("Invalid product data part", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
			return draft, nil, nil, false
		}
	} else if err := c.ShouldBind(&draft); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return draft, nil, nil, false
	}

	image, err := readUpload(c, "image", maxCoverImageSize)
	if err == nil && image != nil {
		err = storage.ValidateContentType(image.ContentType, storage.ImageContentTypes)
	}
	if err != nil {
		apperrors.ParseAndRespond(c, err, "upload")
		return draft, nil, nil, false
	}

	file, err := readUpload(c, "file", maxProductFileSize)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "upload")
		return draft, nil, nil, false
	}

	return draft, image, file, true
}

// readUpload returns nil when the part is absent.
func readUpload(c *gin.Context, field string, maxSize int64) (*storeapi.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateFileSize(header.Size, maxSize); err != nil {
		return nil, err
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*storeapi.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return &storeapi.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ==================== Categories ====================

// ListCategories returns categories in display order
// GET /api/v1/admin/categories
func (ctrl *AdminController) ListCategories(c *gin.Context) {
	categories, err := ctrl.adminService.ListCategories(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory adds a category
// POST /api/v1/admin/categories
func (ctrl *AdminController) CreateCategory(c *gin.Context) {
	var draft service.CategoryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid category data")
		return
	}

	category, err := ctrl.adminService.CreateCategory(c.Request.Context(), middleware.GetAccessToken(c), draft)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"category": category,
	})
}

// UpdateCategory replaces a category's fields
// PUT /api/v1/admin/categories/:id
func (ctrl *AdminController) UpdateCategory(c *gin.Context) {
	var draft service.CategoryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid category data")
		return
	}

	category, err := ctrl.adminService.UpdateCategory(c.Request.Context(), middleware.GetAccessToken(c), c.Param("id"), draft)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// DeleteCategory removes a category that has no products
// DELETE /api/v1/admin/categories/:id
func (ctrl *AdminController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id := c.Param("id")
	if err := ctrl.adminService.DeleteCategoryByID(c.Request.Context(), middleware.GetAccessToken(c), id); err != nil {
		log.Warn("Category not deleted", map[string]interface{}{
			"category_id": id,
			"error":       err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted",
	})
}

// ==================== Orders ====================

// ListOrders returns orders matching the search and payment status filter
// GET /api/v1/admin/orders
func (ctrl *AdminController) ListOrders(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order filters")
		return
	}

	orders, err := ctrl.adminService.ListOrders(c.Request.Context(), middleware.GetAccessToken(c), query.filter())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// VerifyOrder confirms a manual payment and releases the downloads
// POST /api/v1/admin/orders/:id/verify
func (ctrl *AdminController) VerifyOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id := c.Param("id")
	if err := ctrl.adminService.VerifyOrder(c.Request.Context(), middleware.GetAccessToken(c), id); err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	log.Info("Order payment verified", map[string]interface{}{
		"order_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified",
	})
}

// RejectOrder rejects a payment reference with a reason
// POST /api/v1/admin/orders/:id/reject
func (ctrl *AdminController) RejectOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id := c.Param("id")
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Please provide a reason for rejection")
		return
	}

	if err := ctrl.adminService.RejectOrder(c.Request.Context(), middleware.GetAccessToken(c), id, req.Reason); err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	log.Info("Order payment rejected", map[string]interface{}{
		"order_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment rejected",
	})
}

// ExportOrders downloads the filtered orders as a spreadsheet
// GET /api/v1/admin/orders/export
func (ctrl *AdminController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order filters")
		return
	}

	data, err := ctrl.adminService.ExportOrders(c.Request.Context(), middleware.GetAccessToken(c), query.filter())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "order")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", ctrl.now().In(format.IST).Format("2006-01-02"))
	log.Info("Orders exported", map[string]interface{}{
		"filename": filename,
		"bytes":    len(data),
	})

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
