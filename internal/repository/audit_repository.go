package repository

import (
	"order_scheduler/internal/models"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Record(entry *models.AuditEntry) error
	GetByScheduleID(scheduleID uint) ([]models.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(entry *models.AuditEntry) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) GetByScheduleID(scheduleID uint) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.Where("schedule_id = ?", scheduleID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
