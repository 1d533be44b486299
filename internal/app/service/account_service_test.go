package service

import (
	"context"
	"testing"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountOrders(now time.Time) []model.Order {
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	return []model.Order{
		{
			ID: "o1", OrderNumber: "ORD-1", PaymentStatus: model.PaymentStatusVerified,
			TotalAmount: decimal.NewFromInt(149), CreatedAt: now.Add(-48 * time.Hour),
			Items: []model.OrderItem{
				{ID: "i1", ProductTitle: "Budget Planner", DownloadLimit: 5, DownloadCount: 2, ExpiresAt: &future},
				{ID: "i2", DownloadLimit: 3, DownloadCount: 3, Product: &model.OrderProduct{Title: "Meal Planner", Slug: "meal-planner"}},
				{ID: "i3", ProductTitle: "Yoga", DownloadLimit: 5, ExpiresAt: &past},
			},
		},
		{
			ID: "o2", OrderNumber: "ORD-2", PaymentStatus: model.PaymentStatusSubmitted,
			TotalAmount: decimal.NewFromInt(99), CreatedAt: now.Add(-time.Hour),
			Items: []model.OrderItem{{ID: "i4", ProductTitle: "Pending", DownloadLimit: 5}},
		},
		{
			ID: "o3", OrderNumber: "ORD-3", PaymentStatus: model.PaymentStatusPending,
			TotalAmount: decimal.NewFromInt(50), CreatedAt: now.Add(-2 * time.Hour),
		},
	}
}

func TestCollectDownloads(t *testing.T) {
	now := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
	downloads := CollectDownloads(accountOrders(now), now)

	require.Len(t, downloads, 3)

	assert.Equal(t, "i1", downloads[0].ItemID)
	assert.Equal(t, 3, downloads[0].Remaining)
	assert.True(t, downloads[0].Available)

	assert.Equal(t, "Meal Planner", downloads[1].ProductTitle)
	assert.Equal(t, "meal-planner", downloads[1].ProductSlug)
	assert.Equal(t, 0, downloads[1].Remaining)
	assert.False(t, downloads[1].Available)

	assert.True(t, downloads[2].Expired)
	assert.False(t, downloads[2].Available)
}

func TestAccountService_OrdersAndSummary(t *testing.T) {
	now := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.orders = accountOrders(now)
	svc := NewAccountService(store).(*accountService)
	svc.now = func() time.Time { return now }

	orders, err := svc.Orders(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"o2", "o3", "o1"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})

	summary, err := svc.Summary(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, 2, summary.PendingPayments)
	assert.Equal(t, "149", summary.TotalSpent.String())
	assert.Equal(t, 1, summary.AvailableDownloads)
}

func TestAccountService_SubmitPaymentReference(t *testing.T) {
	tests := []struct {
		name    string
		utr     string
		wantErr bool
	}{
		{name: "twelve digits", utr: "123456789012"},
		{name: "trimmed", utr: " 123456789012 "},
		{name: "too short", utr: "12345", wantErr: true},
		{name: "letters", utr: "12345678901A", wantErr: true},
		{name: "empty", utr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewAccountService(store)

			err := svc.SubmitPaymentReference(context.Background(), "token", "o1", PaymentReference{UTRNumber: tt.utr})
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "UTR must be exactly 12 digits", verr.Fields["utrNumber"])
				assert.Empty(t, store.utrs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "123456789012", store.utrs["o1"])
		})
	}
}

func TestAccountService_UpstreamErrorPassesThrough(t *testing.T) {
	store := newFakeStore()
	store.orderErr = storeapi.ErrNetwork
	svc := NewAccountService(store)

	_, err := svc.Downloads(context.Background(), "token")
	assert.ErrorIs(t, err, storeapi.ErrNetwork)
}
