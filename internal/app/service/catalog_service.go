package service

import (
	"context"
	"strings"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"golang.org/x/sync/errgroup"
)

const (
	HomeFeaturedLimit   = 6
	HomeCategoryLimit   = 6
	RelatedProductLimit = 4
)

// ViewState is what a listing shows. There is no fallback data: an API failure is "error".
type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewReady   ViewState = "ready"
	ViewEmpty   ViewState = "empty"
	ViewError   ViewState = "error"
)

// CatalogAPI is the read-only part of the store API.
type CatalogAPI interface {
	ListProducts(ctx context.Context, q storeapi.ProductQuery) ([]model.Product, error)
	GetProduct(ctx context.Context, slug string) (*model.Product, error)
	ListCategories(ctx context.Context, limit int) ([]model.Category, error)
}

// CartLookup answers "is this product in the cart". A nil lookup means nothing is.
type CartLookup interface {
	Contains(productID string) bool
}

// ProductFilter holds the client-side predicates. Empty fields match everything.
type ProductFilter struct {
	Search   string
	Category string // category slug
	Type     model.ProductType
}

// Matches ANDs the non-empty predicates.
func (f ProductFilter) Matches(p model.Product) bool {
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		inTitle := strings.Contains(strings.ToLower(p.Title), needle)
		inCategory := p.Category != nil && strings.Contains(strings.ToLower(p.Category.Name), needle)
		if !inTitle && !inCategory {
			return false
		}
	}
	if f.Category != "" && (p.Category == nil || p.Category.Slug != f.Category) {
		return false
	}
	if f.Type != "" && p.ProductType != f.Type {
		return false
	}
	return true
}

func FilterProducts(products []model.Product, f ProductFilter) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

type ListOptions struct {
	Featured bool
	Limit    int
}

type ProductView struct {
	model.Product
	InCart bool `json:"inCart"`
}

type ProductListing struct {
	State    ViewState     `json:"state"`
	Products []ProductView `json:"products"`
	Message  string        `json:"message,omitempty"`
	Err      error         `json:"-"`
}

type CategoryListing struct {
	State      ViewState        `json:"state"`
	Categories []model.Category `json:"categories"`
	Message    string           `json:"message,omitempty"`
	Err        error            `json:"-"`
}

type ProductDetail struct {
	Product ProductView   `json:"product"`
	Related []ProductView `json:"related"`
}

type HomeView struct {
	Featured   ProductListing  `json:"featured"`
	Categories CategoryListing `json:"categories"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter, opts ListOptions, cart CartLookup) ProductListing
	GetProduct(ctx context.Context, slug string, cart CartLookup) (*ProductDetail, error)
	FindProduct(ctx context.Context, slug string) (*model.Product, error)
	ListCategories(ctx context.Context, limit int) CategoryListing
	Home(ctx context.Context, cart CartLookup) HomeView
}

type catalogService struct {
	api CatalogAPI
}

func NewCatalogService(api CatalogAPI) CatalogService {
	return &catalogService{api: api}
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter, opts ListOptions, cart CartLookup) ProductListing {
	products, err := s.api.ListProducts(ctx, storeapi.ProductQuery{
		Featured: opts.Featured,
		Category: filter.Category,
		Type:     filter.Type,
		Search:   filter.Search,
		Limit:    opts.Limit,
	})
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category": filter.Category,
			"type":     string(filter.Type),
			"featured": opts.Featured,
		})
		return ProductListing{State: ViewError, Products: []ProductView{}, Message: "Could not load products", Err: err}
	}

	views := annotate(FilterProducts(products, filter), cart)
	state := ViewReady
	if len(views) == 0 {
		state = ViewEmpty
	}
	return ProductListing{State: state, Products: views}
}

func (s *catalogService) GetProduct(ctx context.Context, slug string, cart CartLookup) (*ProductDetail, error) {
	product, err := s.FindProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{
		Product: annotateOne(*product, cart),
		Related: []ProductView{},
	}
	if product.Category == nil || product.Category.Slug == "" {
		return detail, nil
	}

	related, err := s.api.ListProducts(ctx, storeapi.ProductQuery{
		Category: product.Category.Slug,
		Limit:    RelatedProductLimit + 1,
	})
	if err != nil {
		// the page still renders without related products
		logger.Warn("Failed to load related products", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		return detail, nil
	}

	for _, p := range related {
		if p.ID == product.ID {
			continue
		}
		detail.Related = append(detail.Related, annotateOne(p, cart))
		if len(detail.Related) == RelatedProductLimit {
			break
		}
	}
	return detail, nil
}

func (s *catalogService) FindProduct(ctx context.Context, slug string) (*model.Product, error) {
	logger.Debug("Fetching product", map[string]interface{}{
		"slug": slug,
	})
	product, err := s.api.GetProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context, limit int) CategoryListing {
	categories, err := s.api.ListCategories(ctx, limit)
	if err != nil {
		logger.Error("Failed to list categories", err, nil)
		return CategoryListing{State: ViewError, Categories: []model.Category{}, Message: "Could not load categories", Err: err}
	}
	if limit > 0 && len(categories) > limit {
		categories = categories[:limit]
	}
	if len(categories) == 0 {
		return CategoryListing{State: ViewEmpty, Categories: []model.Category{}}
	}
	return CategoryListing{State: ViewReady, Categories: categories}
}

// Home loads the featured products and categories in parallel. Each half fails on its own.
func (s *catalogService) Home(ctx context.Context, cart CartLookup) HomeView {
	view := HomeView{
		Featured:   ProductListing{State: ViewLoading},
		Categories: CategoryListing{State: ViewLoading},
	}

	var g errgroup.Group
	g.Go(func() error {
		view.Featured = s.ListProducts(ctx, ProductFilter{}, ListOptions{Featured: true, Limit: HomeFeaturedLimit}, cart)
		return nil
	})
	g.Go(func() error {
		view.Categories = s.ListCategories(ctx, HomeCategoryLimit)
		return nil
	})
	_ = g.Wait()

	return view
}

func annotate(products []model.Product, cart CartLookup) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, annotateOne(p, cart))
	}
	return views
}

func annotateOne(p model.Product, cart CartLookup) ProductView {
	return ProductView{Product: p, InCart: cart != nil && cart.Contains(p.ID)}
}
