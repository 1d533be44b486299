package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrPaymentFailed      = errors.New("payment could not be completed")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

const checkoutRequiredMessage = "Please fill all required fields"

var hundred = decimal.NewFromInt(100)

// CheckoutForm is what the buyer submits.
type CheckoutForm struct {
	Email         string              `json:"email" validate:"required,email"`
	Name          string              `json:"name" validate:"required"`
	Phone         string              `json:"phone" validate:"omitempty,max=20"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=upi card netbanking wallet"`
	CouponCode    string              `json:"couponCode"`
}

type AppliedCoupon struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

// Quote prices a cart snapshot. Discount is rounded to paise.
type Quote struct {
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"itemCount"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Savings   decimal.Decimal  `json:"savings"`
	Discount  decimal.Decimal  `json:"discount"`
	Total     decimal.Decimal  `json:"total"`
	Coupon    *AppliedCoupon   `json:"coupon,omitempty"`
}

type OrderRequest struct {
	Form        CheckoutForm
	Quote       Quote
	AccessToken string
}

type OrderConfirmation struct {
	OrderID       string              `json:"orderId,omitempty"`
	OrderNumber   string              `json:"orderNumber"`
	Email         string              `json:"email"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	PlacedAt      time.Time           `json:"placedAt"`
}

// PaymentGateway places an order and reports whether it was accepted.
type PaymentGateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error)
}

// CheckoutCart is the part of the cart store checkout needs.
type CheckoutCart interface {
	Snapshot() session.CartState
	RemoveItems(ctx context.Context, ids []string) error
	BeginCheckout() (release func(), ok bool)
}

type CheckoutService interface {
	Quote(items []model.CartItem, couponCode string) (*Quote, error)
	Prefill(user *model.User) CheckoutForm
	PlaceOrder(ctx context.Context, cart CheckoutCart, form CheckoutForm, accessToken string) (*OrderConfirmation, error)
}

type checkoutService struct {
	gateway PaymentGateway
	coupons map[string]int
}

// NewCheckoutService takes the coupon table as code -> percent off.
func NewCheckoutService(gateway PaymentGateway, coupons map[string]int) CheckoutService {
	table := make(map[string]int, len(coupons))
	for code, pct := range coupons {
		table[strings.ToUpper(code)] = pct
	}
	return &checkoutService{gateway: gateway, coupons: table}
}

func (s *checkoutService) Quote(items []model.CartItem, couponCode string) (*Quote, error) {
	q := &Quote{
		Items:     items,
		ItemCount: len(items),
		Subtotal:  decimal.Zero,
		Savings:   decimal.Zero,
		Discount:  decimal.Zero,
	}
	for _, item := range items {
		q.Subtotal = q.Subtotal.Add(item.Price)
		q.Savings = q.Savings.Add(item.Savings())
	}

	if code := strings.ToUpper(strings.TrimSpace(couponCode)); code != "" {
		pct, ok := s.coupons[code]
		if !ok {
			return nil, newValidationError("Invalid coupon code", map[string]string{
				"couponCode": "Invalid coupon code",
			})
		}
		q.Coupon = &AppliedCoupon{Code: code, Percent: pct}
		q.Discount = q.Subtotal.Mul(decimal.NewFromInt(int64(pct))).Div(hundred).Round(2)
	}

	q.Total = q.Subtotal.Sub(q.Discount)
	return q, nil
}

func (s *checkoutService) Prefill(user *model.User) CheckoutForm {
	form := CheckoutForm{PaymentMethod: model.PaymentMethodUPI}
	if user != nil {
		form.Email = user.Email
		form.Name = user.Name
	}
	return form
}

// PlaceOrder validates, prices and submits the cart. Only one order per cart runs at a
// time. The ordered items are removed after the gateway confirms; anything added while
// the order was in flight stays. On any failure the cart is left as it was.
func (s *checkoutService) PlaceOrder(ctx context.Context, cart CheckoutCart, form CheckoutForm, accessToken string) (*OrderConfirmation, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Name = strings.TrimSpace(form.Name)
	if form.PaymentMethod == "" {
		form.PaymentMethod = model.PaymentMethodUPI
	}

	if err := validateStruct(form, checkoutRequiredMessage, map[string]string{
		"email.required":      "Email is required",
		"email.email":         "Enter a valid email address",
		"name.required":       "Name is required",
		"paymentMethod.oneof": "Choose UPI, card, net banking or wallet",
	}); err != nil {
		return nil, err
	}

	release, ok := cart.BeginCheckout()
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	defer release()

	snapshot := cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	quote, err := s.Quote(snapshot.Items, form.CouponCode)
	if err != nil {
		return nil, err
	}

	logger.Info("Placing order", map[string]interface{}{
		"items":          quote.ItemCount,
		"total":          quote.Total.String(),
		"payment_method": string(form.PaymentMethod),
		"coupon":         form.CouponCode,
	})

	confirmation, err := s.gateway.PlaceOrder(ctx, OrderRequest{Form: form, Quote: *quote, AccessToken: accessToken})
	if err != nil {
		logger.Warn("Order was not placed, cart kept", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	ordered := make([]string, len(snapshot.Items))
	for i, item := range snapshot.Items {
		ordered[i] = item.ID
	}
	if err := cart.RemoveItems(ctx, ordered); err != nil {
		// the order exists; a stale cart is the lesser problem
		logger.Error("Order placed but ordered items could not be removed from cart", err, map[string]interface{}{
			"order_number": confirmation.OrderNumber,
		})
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_number": confirmation.OrderNumber,
	})
	return confirmation, nil
}

// OrderAPI is the order creation endpoint of the store API.
type OrderAPI interface {
	CreateOrder(ctx context.Context, accessToken string, req storeapi.CreateOrderRequest) (*model.Order, error)
}

// APIGateway places orders through POST /orders. Payment itself is verified later by an admin.
type APIGateway struct {
	api OrderAPI
}

func NewAPIGateway(api OrderAPI) *APIGateway {
	return &APIGateway{api: api}
}

func (g *APIGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	ids := make([]string, 0, len(req.Quote.Items))
	for _, item := range req.Quote.Items {
		ids = append(ids, item.ID)
	}

	order, err := g.api.CreateOrder(ctx, req.AccessToken, storeapi.CreateOrderRequest{
		ProductIDs:    ids,
		Email:         req.Form.Email,
		Name:          req.Form.Name,
		Phone:         req.Form.Phone,
		PaymentMethod: req.Form.PaymentMethod,
		CouponCode:    couponCode(req.Quote),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	return &OrderConfirmation{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Email:         req.Form.Email,
		Total:         order.TotalAmount,
		PaymentMethod: req.Form.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		PlacedAt:      order.CreatedAt,
	}, nil
}

// SimulatedGateway accepts every order after a fixed delay.
type SimulatedGateway struct {
	Delay time.Duration
	now   func() time.Time
}

func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{Delay: delay, now: time.Now}
}

func (g *SimulatedGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := g.now()
	return &OrderConfirmation{
		OrderNumber:   SimulatedOrderNumber(now),
		Email:         req.Form.Email,
		Total:         req.Quote.Total,
		PaymentMethod: req.Form.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		PlacedAt:      now,
	}, nil
}

// SimulatedOrderNumber formats ORD-YYYYMM-XXXXXX.
func SimulatedOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", t.Format("200601"), suffix)
}

func couponCode(q Quote) string {
	if q.Coupon == nil {
		return ""
	}
	return q.Coupon.Code
}
