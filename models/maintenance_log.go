package models

import "time"

// MaintenanceLog records a maintenance window for a resource. An open log
// puts the resource into Maintenance; closing it hands the status back to
// the booking-derived recompute.
type MaintenanceLog struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ResourceID uint       `json:"resource_id" gorm:"not null;index"`
	Resource   Resource   `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	StaffID    uint       `json:"staff_id" gorm:"not null"`
	Staff      User       `json:"staff,omitempty" gorm:"foreignKey:StaffID"`
	Notes      string     `json:"notes" gorm:"type:text"`
	StartedAt  time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null"`
}
