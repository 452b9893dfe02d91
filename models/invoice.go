package models

import "time"

// Invoice is the structured billing record for a confirmed booking. One
// invoice per booking; regeneration returns the same record and re-renders
// the same artifact.
type Invoice struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	BookingID uint    `json:"booking_id" gorm:"not null;uniqueIndex"`
	Booking   Booking `json:"-" gorm:"foreignKey:BookingID"`

	InvoiceNumber string `json:"invoice_number" gorm:"type:varchar(50);not null"`

	// Bill-to snapshot
	BillName  string `json:"bill_name" gorm:"type:varchar(255)"`
	BillEmail string `json:"bill_email" gorm:"type:varchar(255)"`
	BillPhone string `json:"bill_phone" gorm:"type:varchar(50)"`

	// Reservation detail snapshot
	ResourceName     string `json:"resource_name" gorm:"type:varchar(100);not null"`
	ResourceCategory string `json:"resource_category" gorm:"type:varchar(20);not null"`
	Date             string `json:"date" gorm:"type:varchar(10);not null"`
	StartTime        string `json:"start_time" gorm:"type:varchar(20);not null"`
	EndTime          string `json:"end_time" gorm:"type:varchar(20);not null"`
	Guests           int    `json:"guests" gorm:"not null"`

	Description   string  `json:"description" gorm:"type:varchar(255);not null"`
	Amount        float64 `json:"amount" gorm:"type:decimal(12,2);not null"`
	Total         float64 `json:"total" gorm:"type:decimal(12,2);not null"`
	PaymentMethod string  `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentStatus string  `json:"payment_status" gorm:"type:varchar(20);not null"`
	PaymentRef    string  `json:"payment_ref" gorm:"type:varchar(100)"`
	Terms         string  `json:"terms" gorm:"type:varchar(255)"`

	FilePath  string    `json:"file_path" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}
