package models

import "time"

// AuditEntry records one operator action against a schedule, with the
// document state before and after the change serialized as JSON.
type AuditEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ActorID    uint      `json:"actor_id" gorm:"not null"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action" gorm:"not null"`
	ScheduleID uint      `json:"schedule_id" gorm:"index"`
	Before     string    `json:"before" gorm:"type:text"`
	After      string    `json:"after" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}
