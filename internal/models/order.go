package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderInstance is one concrete delivery materialized from a schedule.
// Items, addresses and amounts are snapshots taken at firing time.
type OrderInstance struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	OrderNumber     string         `json:"order_number" gorm:"unique;not null"`
	ScheduleID      *uint          `json:"schedule_id" gorm:"index"`
	CustomerID      uint           `json:"customer_id" gorm:"not null;index"`
	DeliveryDate    *time.Time     `json:"delivery_date"`
	Items           []ScheduleItem `json:"items" gorm:"serializer:json"`
	Status          string         `json:"status" gorm:"default:'pending'"` // pending, confirmed, processing, shipped, delivered, cancelled, refunded
	ShippingAddress Address        `json:"shipping_address" gorm:"serializer:json"`
	BillingAddress  *Address       `json:"billing_address,omitempty" gorm:"serializer:json"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	Shipping        float64        `json:"shipping"`
	Discount        float64        `json:"discount"`
	Total           float64        `json:"total" gorm:"not null"`
	PaymentMethod   string         `json:"payment_method"`
	Notes           string         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)
