package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	StatusPending       OrderStatus = "pending"
	StatusConfirmed     OrderStatus = "confirmed"
	StatusInPreparation OrderStatus = "in_preparation"
	StatusReady         OrderStatus = "ready"
	StatusDelivered     OrderStatus = "delivered"
	StatusCancelled     OrderStatus = "cancelled"
)

// ValidStatus reports whether value names a known order status.
func ValidStatus(value string) bool {
	switch OrderStatus(value) {
	case StatusPending, StatusConfirmed, StatusInPreparation, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderType distinguishes walk-in, catering and online orders.
type OrderType string

const (
	TypeRegular  OrderType = "regular"
	TypeCatering OrderType = "catering"
	TypeOnline   OrderType = "online"
)

// Order is a customer order. The order does not own any stock state; stock
// moves only when the lifecycle state machine drives the inventory ledger
// through a status transition.
type Order struct {
	gorm.Model
	OrderNumber         string          `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID          uint            `gorm:"not null" json:"customer_id"`
	Customer            *User           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderType           OrderType       `gorm:"type:varchar(16);default:regular" json:"order_type"`
	Status              OrderStatus     `gorm:"type:varchar(16);default:pending" json:"status"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	TaxAmount           decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"tax_amount"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_amount"`
	DeliveryDate        *time.Time      `json:"delivery_date,omitempty"`
	DeliveryAddress     string          `gorm:"type:text" json:"delivery_address"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`

	// Catering orders only.
	EventDate         *time.Time `json:"event_date,omitempty"`
	GuestCount        int        `json:"guest_count"`
	SetupRequirements string     `gorm:"type:text" json:"setup_requirements"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is one product line of an order.
type OrderItem struct {
	gorm.Model
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	ProductID           uint            `gorm:"not null" json:"product_id"`
	Product             *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
}
