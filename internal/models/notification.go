package models

import "time"

// Notification types a teacher can send to a student's guardians.
const (
	NotificationTypeSleepy = "sleepy"
	NotificationTypeHealth = "health"
	NotificationTypeCustom = "custom"
)

// Notification read states. Read is terminal; there is no transition back.
const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

// Notification is one message in a student's outbox.
type Notification struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RecipientCardID string    `gorm:"size:32;index;not null" json:"recipient_card_id"`
	Type            string    `gorm:"size:16;not null" json:"type"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	SenderUsername  string    `gorm:"size:64" json:"sender_username"`
	SentAt          time.Time `gorm:"not null" json:"sent_at"`
	Status          string    `gorm:"size:16;not null;default:unread" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
