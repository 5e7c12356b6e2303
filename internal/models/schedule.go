package models

import (
	"time"

	"gorm.io/gorm"
)

// Recurrence is the declarative rule set describing when a schedule fires.
// SelectedDates, when non-empty, overrides every other field.
type Recurrence struct {
	StartDate     *time.Time  `json:"start_date,omitempty"`
	EndDate       *time.Time  `json:"end_date,omitempty"`
	DaysOfWeek    []int       `json:"days_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	IncludeDates  []time.Time `json:"include_dates,omitempty"`
	ExcludeDates  []time.Time `json:"exclude_dates,omitempty"`
	SelectedDates []time.Time `json:"selected_dates,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

type ScheduleItem struct {
	ProductID uint    `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type RecurringSchedule struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CustomerID      uint           `json:"customer_id" gorm:"not null;index"`
	Items           []ScheduleItem `json:"items" gorm:"serializer:json"`
	Recurrence      Recurrence     `json:"recurrence" gorm:"serializer:json"`
	ScheduleStatus  string         `json:"schedule_status" gorm:"default:'active'"` // active, paused, ended
	NextDeliveryAt  *time.Time     `json:"next_delivery_at" gorm:"index"`
	ShippingAddress Address        `json:"shipping_address" gorm:"serializer:json"`
	BillingAddress  *Address       `json:"billing_address,omitempty" gorm:"serializer:json"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	Shipping        float64        `json:"shipping"`
	Discount        float64        `json:"discount"`
	Total           float64        `json:"total" gorm:"not null"`
	PaymentMethod   string         `json:"payment_method"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type ScheduleStatus string

const (
	ScheduleActive ScheduleStatus = "active"
	SchedulePaused ScheduleStatus = "paused"
	ScheduleEnded  ScheduleStatus = "ended"
)
