package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGateway struct {
	calls    int
	requests []OrderRequest
	err      error
}

func (g *recordingGateway) PlaceOrder(_ context.Context, req OrderRequest) (*OrderConfirmation, error) {
	g.calls++
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &OrderConfirmation{
		OrderNumber:   "ORD-202601-TEST01",
		Email:         req.Form.Email,
		Total:         req.Quote.Total,
		PaymentMethod: req.Form.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
	}, nil
}

func setupCheckoutTest(t *testing.T, products ...model.Product) (*session.CartStore, *recordingGateway, CheckoutService) {
	t.Helper()
	ctx := context.Background()
	cart := session.NewCartStore(storage.NewMemoryBackend())
	for _, p := range products {
		require.NoError(t, cart.AddToCart(ctx, p))
	}
	gateway := &recordingGateway{}
	svc := NewCheckoutService(gateway, map[string]int{"welcome10": 10})
	return cart, gateway, svc
}

func validForm() CheckoutForm {
	return CheckoutForm{Email: "asha@example.in", Name: "Asha", PaymentMethod: model.PaymentMethodUPI}
}

func TestCheckoutService_Quote(t *testing.T) {
	_, _, svc := setupCheckoutTest(t)

	discounted := model.NewCartItem(testProduct("p1", "Budget Planner", "planners", 149))
	discounted.OriginalPrice = decPtr(299)
	plain := model.NewCartItem(testProduct("p2", "Meal Planner", "planners", 99))
	items := []model.CartItem{discounted, plain}

	tests := []struct {
		name     string
		coupon   string
		discount string
		total    string
		wantErr  bool
	}{
		{name: "no coupon", discount: "0", total: "248"},
		{name: "coupon is case-insensitive", coupon: "Welcome10", discount: "24.8", total: "223.2"},
		{name: "unknown coupon", coupon: "FREE100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(items, tt.coupon)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, "couponCode")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, q.ItemCount)
			assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(248)))
			assert.True(t, q.Savings.Equal(decimal.NewFromInt(150)))
			assert.Equal(t, tt.discount, q.Discount.String())
			assert.Equal(t, tt.total, q.Total.String())
		})
	}
}

func TestCheckoutService_Prefill(t *testing.T) {
	_, _, svc := setupCheckoutTest(t)

	form := svc.Prefill(&model.User{Email: "asha@example.in", Name: "Asha"})
	assert.Equal(t, "asha@example.in", form.Email)
	assert.Equal(t, "Asha", form.Name)
	assert.Equal(t, model.PaymentMethodUPI, form.PaymentMethod)

	anon := svc.Prefill(nil)
	assert.Empty(t, anon.Email)
	assert.Equal(t, model.PaymentMethodUPI, anon.PaymentMethod)
}

func TestCheckoutService_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	cart, gateway, svc := setupCheckoutTest(t,
		testProduct("p1", "Budget Planner", "planners", 149),
		testProduct("p2", "Meal Planner", "planners", 99),
	)

	form := validForm()
	form.CouponCode = "WELCOME10"
	confirmation, err := svc.PlaceOrder(ctx, cart, form, "token")
	require.NoError(t, err)

	assert.Equal(t, "ORD-202601-TEST01", confirmation.OrderNumber)
	assert.Equal(t, "223.2", confirmation.Total.String())
	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, "token", gateway.requests[0].AccessToken)
	assert.Equal(t, 0, cart.ItemCount())
	assert.True(t, cart.Total().IsZero())
}

func TestCheckoutService_PlaceOrder_ValidationLeavesCartAlone(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		form  CheckoutForm
		field string
	}{
		{"missing name", CheckoutForm{Email: "asha@example.in"}, "name"},
		{"blank name", CheckoutForm{Email: "asha@example.in", Name: "   "}, "name"},
		{"bad email", CheckoutForm{Email: "not-an-email", Name: "Asha"}, "email"},
		{"unknown payment method", CheckoutForm{Email: "asha@example.in", Name: "Asha", PaymentMethod: "cash"}, "paymentMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, gateway, svc := setupCheckoutTest(t, testProduct("p1", "Budget Planner", "planners", 149))

			_, err := svc.PlaceOrder(ctx, cart, tt.form, "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, 0, gateway.calls)
			assert.Equal(t, 1, cart.ItemCount())
		})
	}
}

func TestCheckoutService_PlaceOrder_EmptyCart(t *testing.T) {
	cart, gateway, svc := setupCheckoutTest(t)

	_, err := svc.PlaceOrder(context.Background(), cart, validForm(), "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, gateway.calls)
}

func TestCheckoutService_PlaceOrder_GatewayFailureKeepsCart(t *testing.T) {
	cart, gateway, svc := setupCheckoutTest(t, testProduct("p1", "Budget Planner", "planners", 149))
	gateway.err = ErrPaymentFailed

	_, err := svc.PlaceOrder(context.Background(), cart, validForm(), "")
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, 1, cart.ItemCount())
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(149)))
}

// hookGateway calls during while the order is in flight.
type hookGateway struct {
	recordingGateway
	during func()
}

func (g *hookGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	if g.during != nil {
		g.during()
	}
	return g.recordingGateway.PlaceOrder(ctx, req)
}

func TestCheckoutService_PlaceOrder_KeepsItemsAddedDuringOrder(t *testing.T) {
	ctx := context.Background()
	cart := session.NewCartStore(storage.NewMemoryBackend())
	require.NoError(t, cart.AddToCart(ctx, testProduct("p1", "Budget Planner", "planners", 149)))
	require.NoError(t, cart.AddToCart(ctx, testProduct("p2", "Meal Planner", "planners", 99)))

	gateway := &hookGateway{}
	gateway.during = func() {
		require.NoError(t, cart.AddToCart(ctx, testProduct("p3", "Habit Tracker", "trackers", 59)))
	}
	svc := NewCheckoutService(gateway, nil)

	confirmation, err := svc.PlaceOrder(ctx, cart, validForm(), "")
	require.NoError(t, err)

	assert.Equal(t, "248", confirmation.Total.String())
	assert.Len(t, gateway.requests[0].Quote.Items, 2)
	assert.Equal(t, 1, cart.ItemCount())
	assert.True(t, cart.Contains("p3"))
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(59)))
}

func TestCheckoutService_PlaceOrder_RejectsConcurrentOrder(t *testing.T) {
	ctx := context.Background()
	cart := session.NewCartStore(storage.NewMemoryBackend())
	require.NoError(t, cart.AddToCart(ctx, testProduct("p1", "Budget Planner", "planners", 149)))

	entered := make(chan struct{})
	proceed := make(chan struct{})
	gateway := &hookGateway{during: func() {
		close(entered)
		<-proceed
	}}
	svc := NewCheckoutService(gateway, nil)

	first := make(chan error, 1)
	go func() {
		_, err := svc.PlaceOrder(ctx, cart, validForm(), "")
		first <- err
	}()
	<-entered

	_, err := svc.PlaceOrder(ctx, cart, validForm(), "")
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Equal(t, 1, cart.ItemCount())

	close(proceed)
	require.NoError(t, <-first)
	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, 0, cart.ItemCount())

	// the guard is released once the order settles
	_, err = svc.PlaceOrder(ctx, cart, validForm(), "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSimulatedGateway(t *testing.T) {
	t.Run("confirms after delay", func(t *testing.T) {
		gateway := NewSimulatedGateway(10 * time.Millisecond)
		conf, err := gateway.PlaceOrder(context.Background(), OrderRequest{
			Form:  validForm(),
			Quote: Quote{Total: decimal.NewFromInt(149)},
		})
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^ORD-\d{6}-[0-9A-F]{6}$`), conf.OrderNumber)
		assert.Equal(t, model.PaymentStatusPending, conf.PaymentStatus)
		assert.Equal(t, "149", conf.Total.String())
	})

	t.Run("cancellation keeps the cart", func(t *testing.T) {
		cart := session.NewCartStore(storage.NewMemoryBackend())
		require.NoError(t, cart.AddToCart(context.Background(), testProduct("p1", "Budget Planner", "planners", 149)))
		svc := NewCheckoutService(NewSimulatedGateway(time.Minute), nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := svc.PlaceOrder(ctx, cart, validForm(), "")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, cart.ItemCount())
	})
}

func TestSimulatedOrderNumber(t *testing.T) {
	n := SimulatedOrderNumber(time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^ORD-202601-[0-9A-F]{6}$`, n)
}

func TestAPIGateway_PlaceOrder(t *testing.T) {
	store := newFakeStore()
	gateway := NewAPIGateway(store)

	items := []model.CartItem{
		model.NewCartItem(testProduct("p1", "Budget Planner", "planners", 149)),
		model.NewCartItem(testProduct("p2", "Meal Planner", "planners", 50)),
	}
	form := validForm()
	conf, err := gateway.PlaceOrder(context.Background(), OrderRequest{
		Form:        form,
		Quote:       Quote{Items: items, Coupon: &AppliedCoupon{Code: "WELCOME10", Percent: 10}},
		AccessToken: "token",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-202601-ABC123", conf.OrderNumber)
	assert.Equal(t, "ord-1", conf.OrderID)

	require.Len(t, store.created, 1)
	assert.Equal(t, []string{"p1", "p2"}, store.created[0].ProductIDs)
	assert.Equal(t, "WELCOME10", store.created[0].CouponCode)
	assert.Equal(t, model.PaymentMethodUPI, store.created[0].PaymentMethod)

	store.orderErr = storeapi.ErrNetwork
	_, err = gateway.PlaceOrder(context.Background(), OrderRequest{Form: form, Quote: Quote{Items: items}})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.True(t, errors.Is(err, storeapi.ErrNetwork))
}
