package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Email       string         `json:"email" gorm:"unique;not null"`
	PhoneNumber string         `json:"phone_number"`
	Role        string         `json:"role" gorm:"default:'customer'"` // admin, customer
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type CustomerRole string

const (
	RoleAdmin    CustomerRole = "admin"
	RoleCustomer CustomerRole = "customer"
)
