package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// AccountAPI is the customer part of the store API.
type AccountAPI interface {
	ListMyOrders(ctx context.Context, accessToken string) ([]model.Order, error)
	SubmitPaymentReference(ctx context.Context, accessToken, orderID, utr string) error
}

// Download is one purchased file as the downloads page shows it.
type Download struct {
	OrderID       string     `json:"orderId"`
	OrderNumber   string     `json:"orderNumber"`
	ItemID        string     `json:"itemId"`
	ProductTitle  string     `json:"productTitle"`
	ProductSlug   string     `json:"productSlug,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	DownloadURL   string     `json:"downloadUrl,omitempty"`
	DownloadLimit int        `json:"downloadLimit"`
	DownloadCount int        `json:"downloadCount"`
	Remaining     int        `json:"remaining"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Expired       bool       `json:"expired"`
	Available     bool       `json:"available"`
}

// AccountSummary feeds the customer dashboard header.
type AccountSummary struct {
	TotalOrders        int             `json:"totalOrders"`
	PendingPayments    int             `json:"pendingPayments"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	AvailableDownloads int             `json:"availableDownloads"`
}

type PaymentReference struct {
	UTRNumber string `json:"utrNumber" validate:"required,numeric,len=12"`
}

type AccountService interface {
	Orders(ctx context.Context, accessToken string) ([]model.Order, error)
	Downloads(ctx context.Context, accessToken string) ([]Download, error)
	Summary(ctx context.Context, accessToken string) (*AccountSummary, error)
	SubmitPaymentReference(ctx context.Context, accessToken, orderID string, ref PaymentReference) error
}

type accountService struct {
	api AccountAPI
	now func() time.Time
}

func NewAccountService(api AccountAPI) AccountService {
	return &accountService{api: api, now: time.Now}
}

func (s *accountService) Orders(ctx context.Context, accessToken string) ([]model.Order, error) {
	orders, err := s.api.ListMyOrders(ctx, accessToken)
	if err != nil {
		logger.Error("Failed to list customer orders", err, nil)
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *accountService) Downloads(ctx context.Context, accessToken string) ([]Download, error) {
	orders, err := s.Orders(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return CollectDownloads(orders, s.now()), nil
}

func (s *accountService) Summary(ctx context.Context, accessToken string) (*AccountSummary, error) {
	orders, err := s.Orders(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{TotalOrders: len(orders), TotalSpent: decimal.Zero}
	for _, o := range orders {
		switch o.PaymentStatus {
		case model.PaymentStatusVerified:
			summary.TotalSpent = summary.TotalSpent.Add(o.TotalAmount)
		case model.PaymentStatusPending, model.PaymentStatusSubmitted:
			summary.PendingPayments++
		}
	}
	for _, d := range CollectDownloads(orders, s.now()) {
		if d.Available {
			summary.AvailableDownloads++
		}
	}
	return summary, nil
}

func (s *accountService) SubmitPaymentReference(ctx context.Context, accessToken, orderID string, ref PaymentReference) error {
	ref.UTRNumber = strings.TrimSpace(ref.UTRNumber)
	if err := validateStruct(ref, "Invalid payment reference", map[string]string{
		"utrNumber": "UTR must be exactly 12 digits",
	}); err != nil {
		return err
	}

	if err := s.api.SubmitPaymentReference(ctx, accessToken, orderID, ref.UTRNumber); err != nil {
		logger.Error("Failed to submit payment reference", err, map[string]interface{}{
			"order_id": orderID,
		})
		return err
	}

	logger.Info("Payment reference submitted", map[string]interface{}{
		"order_id": orderID,
	})
	return nil
}

// CollectDownloads lists the items of verified orders with their availability at now.
func CollectDownloads(orders []model.Order, now time.Time) []Download {
	downloads := []Download{}
	for _, o := range orders {
		if o.PaymentStatus != model.PaymentStatusVerified {
			continue
		}
		for _, item := range o.Items {
			d := Download{
				OrderID:       o.ID,
				OrderNumber:   o.OrderNumber,
				ItemID:        item.ID,
				ProductTitle:  item.ProductTitle,
				DownloadURL:   item.DownloadURL,
				DownloadLimit: item.DownloadLimit,
				DownloadCount: item.DownloadCount,
				ExpiresAt:     item.ExpiresAt,
			}
			if item.Product != nil {
				d.ProductSlug = item.Product.Slug
				d.ImageURL = item.Product.ImageURL
				if d.ProductTitle == "" {
					d.ProductTitle = item.Product.Title
				}
			}
			d.Remaining = item.DownloadLimit - item.DownloadCount
			if d.Remaining < 0 {
				d.Remaining = 0
			}
			d.Expired = item.ExpiresAt != nil && item.ExpiresAt.Before(now)
			d.Available = d.Remaining > 0 && !d.Expired
			downloads = append(downloads, d)
		}
	}
	return downloads
}
