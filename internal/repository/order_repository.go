package repository

import (
	"order_scheduler/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *models.OrderInstance) error
	GetByID(id uint) (*models.OrderInstance, error)
	GetByCustomerID(customerID uint) ([]models.OrderInstance, error)
	GetByScheduleID(scheduleID uint) ([]models.OrderInstance, error)
	Update(order *models.OrderInstance) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.OrderInstance) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.OrderInstance, error) {
	var order models.OrderInstance
	err := r.db.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByCustomerID(customerID uint) ([]models.OrderInstance, error) {
	var orders []models.OrderInstance
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByScheduleID(scheduleID uint) ([]models.OrderInstance, error) {
	var orders []models.OrderInstance
	err := r.db.Where("schedule_id = ?", scheduleID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Update(order *models.OrderInstance) error {
	return r.db.Save(order).Error
}
