package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"order_scheduler/internal/models"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(schedule *models.RecurringSchedule) error {
	args := m.Called(schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(id uint) (*models.RecurringSchedule, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) GetByCustomerID(customerID uint) ([]models.RecurringSchedule, error) {
	args := m.Called(customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) GetDue(now time.Time) ([]models.RecurringSchedule, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ClaimNextDelivery(id uint, expected time.Time, next *time.Time, status string) (bool, error) {
	args := m.Called(id, expected, next, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) Update(schedule *models.RecurringSchedule) error {
	args := m.Called(schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) UpdateStatus(id uint, status string, next *time.Time) error {
	args := m.Called(id, status, next)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *models.OrderInstance) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id uint) (*models.OrderInstance, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInstance), args.Error(1)
}

func (m *MockOrderRepository) GetByCustomerID(customerID uint) ([]models.OrderInstance, error) {
	args := m.Called(customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderInstance), args.Error(1)
}

func (m *MockOrderRepository) GetByScheduleID(scheduleID uint) ([]models.OrderInstance, error) {
	args := m.Called(scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderInstance), args.Error(1)
}

func (m *MockOrderRepository) Update(order *models.OrderInstance) error {
	args := m.Called(order)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindStock(productID uint) (int, error) {
	args := m.Called(productID)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(productID uint, delta int) error {
	args := m.Called(productID, delta)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStockAll(items []models.ScheduleItem) error {
	args := m.Called(items)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(customer *models.Customer) error {
	args := m.Called(customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(entry *models.AuditEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByScheduleID(scheduleID uint) ([]models.AuditEntry, error) {
	args := m.Called(scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditEntry), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendOrderConfirmation(address string, payload interface{}) error {
	args := m.Called(address, payload)
	return args.Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyOrderCreated(ctx context.Context, order *models.OrderInstance) {
	m.Called(ctx, order)
}
