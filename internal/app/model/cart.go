package model

import (
	"github.com/shopspring/decimal"
)

type CartCategory struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CartItem is a copy of a product taken when the shopper added it. Later catalog
// changes do not reach items already in a cart.
type CartItem struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	ImageURL      string           `json:"imageUrl"`
	Category      CartCategory     `json:"category"`
}

// NewCartItem snapshots the fields the cart shows.
func NewCartItem(p Product) CartItem {
	item := CartItem{
		ID:       p.ID,
		Title:    p.Title,
		Slug:     p.Slug,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	}
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		item.OriginalPrice = &op
	}
	if p.Category != nil {
		item.Category = CartCategory{Name: p.Category.Name, Slug: p.Category.Slug}
	}
	return item
}

// Savings is originalPrice - price when the item is discounted, zero otherwise.
func (i CartItem) Savings() decimal.Decimal {
	if i.OriginalPrice == nil || !i.OriginalPrice.GreaterThan(i.Price) {
		return decimal.Zero
	}
	return i.OriginalPrice.Sub(i.Price)
}
