package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order line type tags expected by the order-creation endpoint.
const (
	OrderLineProduct = "product"
	OrderLineBundle  = "bundle"
	OrderLineGiftBox = "giftbox"
)

// OrderLine is one entry in an order submission. It carries identity and
// quantity only: prices are re-derived server-side at order creation so a
// tampered client cannot influence what it is charged.
type OrderLine struct {
	Type      string `json:"type"`
	ProductID string `json:"product,omitempty"`
	BundleID  string `json:"bundleId,omitempty"`
	GiftBoxID string `json:"giftBoxId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// ShippingAddress is the delivery address collected at checkout.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required,numeric,len=6"`
	Phone      string `json:"phone" validate:"required,e164"`
}

// OrderPayload is the request body for POST /orders.
type OrderPayload struct {
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

// Order represents a created order as returned by the server.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	Items     []OrderLine     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
