package model

import (
	"github.com/shopspring/decimal"
)

type ProductType string // kind of downloadable
type LicenseType string // resale rights attached to the file

const (
	ProductTypePDF      ProductType = "PDF"
	ProductTypeVideo    ProductType = "VIDEO"
	ProductTypeCourse   ProductType = "COURSE"
	ProductTypeTemplate ProductType = "TEMPLATE"
	ProductTypePLR      ProductType = "PLR"
	ProductTypeOther    ProductType = "OTHER"

	LicensePersonal LicenseType = "PERSONAL"
	LicensePLR      LicenseType = "PLR" // private label rights
	LicenseMRR      LicenseType = "MRR" // master resale rights
)

// ValidProductType reports whether t is one the store API accepts.
func ValidProductType(t ProductType) bool {
	switch t {
	case ProductTypePDF, ProductTypeVideo, ProductTypeCourse, ProductTypeTemplate, ProductTypePLR, ProductTypeOther:
		return true
	}
	return false
}

type CategoryCount struct {
	Products int `json:"products"`
}

type Category struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description,omitempty"`
	Icon         string         `json:"icon,omitempty"`
	DisplayOrder int            `json:"displayOrder,omitempty"`
	IsActive     *bool          `json:"isActive,omitempty"`
	Count        *CategoryCount `json:"_count,omitempty"`
}

// ProductCount returns the known product count and whether the API reported one.
func (c Category) ProductCount() (int, bool) {
	if c.Count == nil {
		return 0, false
	}
	return c.Count.Products, true
}

type Product struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	ShortDescription string           `json:"shortDescription"`
	LongDescription  string           `json:"longDescription"`
	Price            decimal.Decimal  `json:"price"`
	OriginalPrice    *decimal.Decimal `json:"originalPrice,omitempty"`
	DiscountPercent  *int             `json:"discountPercent,omitempty"`
	ProductType      ProductType      `json:"productType"`
	AgeGroup         string           `json:"ageGroup,omitempty"`
	ImageURL         string           `json:"imageUrl"`
	GalleryImages    []string         `json:"galleryImages,omitempty"`
	IsFeatured       bool             `json:"isFeatured"`
	IsActive         *bool            `json:"isActive,omitempty"`
	RatingAvg        float64          `json:"ratingAvg"`
	RatingCount      int              `json:"ratingCount"`
	Tags             []string         `json:"tags,omitempty"`
	LicenseType      LicenseType      `json:"licenseType"`
	Category         *Category        `json:"category,omitempty"`
	CategoryID       string           `json:"categoryId,omitempty"`
	FileSize         *int64           `json:"fileSize,omitempty"`
	DownloadCount    *int             `json:"downloadCount,omitempty"`
}
