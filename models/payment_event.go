package models

import "time"

// PaymentEvent is an audit record for asynchronous gateway notifications
// delivered through the webhook endpoint.
type PaymentEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Provider  string    `json:"provider" gorm:"type:varchar(20);not null;default:'stripe'"`
	EventID   string    `json:"event_id" gorm:"type:varchar(100);index"`
	EventType string    `json:"event_type" gorm:"type:varchar(100);not null"`
	IntentID  string    `json:"intent_id" gorm:"type:varchar(100);index"`
	Status    string    `json:"status" gorm:"type:varchar(50)"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}
