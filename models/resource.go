package models

import "time"

const (
	ResourceCategoryTable = "table"
	ResourceCategoryRoom  = "room"
)

const (
	ResourceStatusAvailable   = "Available"
	ResourceStatusReserved    = "Reserved"
	ResourceStatusMaintenance = "Maintenance"
)

// Resource is a bookable physical asset: a restaurant table or a hotel room.
// Status is a derived field; it is Reserved exactly when at least one active
// future booking references the resource, and recomputed after every booking
// create/cancel. Maintenance is set manually and is never overwritten by the
// recompute.
type Resource struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Category    string    `json:"category" gorm:"type:varchar(20);not null;default:'table'"`
	Capacity    int       `json:"capacity" gorm:"not null;default:1"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:'Available'"`
	Location    string    `json:"location" gorm:"type:varchar(100)"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(12,2);default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}
