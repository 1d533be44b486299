package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string // manual verification progress
type OrderStatus string   // fulfilment progress
type PaymentMethod string // method picked at checkout

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // awaiting payment reference
	PaymentStatusSubmitted PaymentStatus = "SUBMITTED" // UTR submitted, awaiting admin
	PaymentStatusVerified  PaymentStatus = "VERIFIED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"

	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"

	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

type OrderProduct struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Slug     string `json:"slug"`
}

type OrderItem struct {
	ID            string          `json:"id"`
	ProductTitle  string          `json:"productTitle"`
	ProductPrice  decimal.Decimal `json:"productPrice"`
	DownloadURL   string          `json:"downloadUrl,omitempty"`
	DownloadLimit int             `json:"downloadLimit"`
	DownloadCount int             `json:"downloadCount"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	Product       *OrderProduct   `json:"product,omitempty"`
}

type OrderCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	UserEmail     string          `json:"userEmail,omitempty"`
	User          *OrderCustomer  `json:"user,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	UTRNumber     string          `json:"utrNumber,omitempty"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// CustomerName prefers the linked account name and falls back to the order email.
func (o Order) CustomerName() string {
	if o.User != nil && o.User.Name != "" {
		return o.User.Name
	}
	return o.UserEmail
}
