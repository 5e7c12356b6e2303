package repository

import (
	"time"

	"order_scheduler/internal/models"

	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(schedule *models.RecurringSchedule) error
	GetByID(id uint) (*models.RecurringSchedule, error)
	GetByCustomerID(customerID uint) ([]models.RecurringSchedule, error)
	GetDue(now time.Time) ([]models.RecurringSchedule, error)
	ClaimNextDelivery(id uint, expected time.Time, next *time.Time, status string) (bool, error)
	Update(schedule *models.RecurringSchedule) error
	UpdateStatus(id uint, status string, next *time.Time) error
	Delete(id uint) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(schedule *models.RecurringSchedule) error {
	return r.db.Create(schedule).Error
}

func (r *scheduleRepository) GetByID(id uint) (*models.RecurringSchedule, error) {
	var schedule models.RecurringSchedule
	err := r.db.First(&schedule, id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) GetByCustomerID(customerID uint) ([]models.RecurringSchedule, error) {
	var schedules []models.RecurringSchedule
	err := r.db.Where("customer_id = ?", customerID).Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) GetDue(now time.Time) ([]models.RecurringSchedule, error) {
	var schedules []models.RecurringSchedule
	err := r.db.
		Where("schedule_status = ? AND next_delivery_at IS NOT NULL AND next_delivery_at <= ?",
			string(models.ScheduleActive), now).
		Find(&schedules).Error
	return schedules, err
}

// ClaimNextDelivery advances next_delivery_at and schedule_status in a single
// conditional update. The write only applies while next_delivery_at still
// holds the value the caller read, so overlapping batch runs cannot fire the
// same delivery twice; the loser sees false and skips the schedule.
func (r *scheduleRepository) ClaimNextDelivery(id uint, expected time.Time, next *time.Time, status string) (bool, error) {
	tx := r.db.Model(&models.RecurringSchedule{}).
		Where("id = ? AND next_delivery_at = ?", id, expected).
		Updates(map[string]interface{}{
			"next_delivery_at": next,
			"schedule_status":  status,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *scheduleRepository) Update(schedule *models.RecurringSchedule) error {
	return r.db.Save(schedule).Error
}

func (r *scheduleRepository) UpdateStatus(id uint, status string, next *time.Time) error {
	return r.db.Model(&models.RecurringSchedule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"schedule_status":  status,
			"next_delivery_at": next,
		}).Error
}

func (r *scheduleRepository) Delete(id uint) error {
	return r.db.Delete(&models.RecurringSchedule{}, id).Error
}
