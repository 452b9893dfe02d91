package models

import "time"

// Payment state of a booking
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment methods. Card goes through the gateway; everything else is settled
// on arrival and persisted with a pending payment state.
const (
	PaymentMethodCard      = "card"
	PaymentMethodPaypal    = "paypal"
	PaymentMethodOnArrival = "on_arrival"
)

// Lifecycle statuses. Cancelled bookings are removed through the cancel
// transition; completed is computed from the date, never stored.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
)

// Booking is a time-boxed claim on a Resource. Date is "YYYY-MM-DD";
// StartTime/EndTime keep the raw client strings ("19:00" or "7:00 PM") and
// StartMinutes/EndMinutes hold the canonical minutes-since-midnight snapshot
// used by the database-side overlap guard.
type Booking struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ResourceID      uint      `json:"resource_id" gorm:"not null;index"`
	Resource        Resource  `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	ResourceName    string    `json:"resource_name" gorm:"type:varchar(100);not null"`
	Date            string    `json:"date" gorm:"type:varchar(10);not null;index"`
	StartTime       string    `json:"start_time" gorm:"type:varchar(20);not null"`
	EndTime         string    `json:"end_time" gorm:"type:varchar(20);not null"`
	StartMinutes    int       `json:"-" gorm:"not null"`
	EndMinutes      int       `json:"-" gorm:"not null"`
	Guests          int       `json:"guests" gorm:"not null"`
	PaymentMethod   string    `json:"payment_method" gorm:"type:varchar(20);not null"`
	TotalPrice      float64   `json:"total_price" gorm:"type:decimal(12,2);not null"`
	FullName        string    `json:"full_name" gorm:"type:varchar(255)"`
	Email           string    `json:"email" gorm:"type:varchar(255)"`
	Phone           string    `json:"phone" gorm:"type:varchar(50)"`
	SpecialRequests string    `json:"special_requests" gorm:"type:text"`
	PaymentStatus   string    `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentIntentID string    `json:"payment_intent_id" gorm:"type:varchar(100)"`
	UserID          uint      `json:"user_id" gorm:"not null;index"`
	Status          string    `json:"status" gorm:"-"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null"`
}

// IsPast reports whether the booking date is strictly before today.
func (b *Booking) IsPast(now time.Time) bool {
	d, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.Before(today)
}

// LifecycleStatus computes the booking state lazily: completed once the date
// has passed, otherwise confirmed.
func (b *Booking) LifecycleStatus(now time.Time) string {
	if b.IsPast(now) {
		return BookingStatusCompleted
	}
	return BookingStatusConfirmed
}
