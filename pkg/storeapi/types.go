package storeapi

import (
	"github.com/digitalghar/storefront/internal/app/model"
)

// ProductQuery holds the filters GET /products understands. Zero values are omitted.
type ProductQuery struct {
	Featured bool
	Category string // category slug
	Type     model.ProductType
	Search   string
	Status   string
	Limit    int
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

type CreateOrderRequest struct {
	ProductIDs    []string            `json:"productIds"`
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone,omitempty"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	CouponCode    string              `json:"couponCode,omitempty"`
}

type PaymentReferenceRequest struct {
	UTRNumber string `json:"utrNumber"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// CategoryInput is the admin create/update payload.
type CategoryInput struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

// ProductInput is the JSON document sent in the "data" part of the admin product form.
type ProductInput struct {
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	ShortDescription string            `json:"shortDescription"`
	LongDescription  string            `json:"longDescription"`
	CategoryID       string            `json:"categoryId"`
	Price            float64           `json:"price"`
	OriginalPrice    *float64          `json:"originalPrice,omitempty"`
	ProductType      model.ProductType `json:"productType"`
	AgeGroup         string            `json:"ageGroup,omitempty"`
	LicenseType      model.LicenseType `json:"licenseType"`
	IsFeatured       bool              `json:"isFeatured"`
	IsActive         bool              `json:"isActive"`
	Tags             []string          `json:"tags"`
	ImageURL         string            `json:"imageUrl,omitempty"`
}

// Upload is an optional file part of the admin product form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductForm is the multipart body for admin product create/update.
type ProductForm struct {
	Data  ProductInput
	Image *Upload
	File  *Upload
}

type productsEnvelope struct {
	Products []model.Product `json:"products"`
}

type productEnvelope struct {
	Product *model.Product `json:"product"`
}

type categoriesEnvelope struct {
	Categories []model.Category `json:"categories"`
}

type categoryEnvelope struct {
	Category *model.Category `json:"category"`
}

type ordersEnvelope struct {
	Orders []model.Order `json:"orders"`
}

type orderEnvelope struct {
	Order *model.Order `json:"order"`
}

type userEnvelope struct {
	User *model.User `json:"user"`
}
