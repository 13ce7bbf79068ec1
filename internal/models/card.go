package models

import "time"

// Swipe statuses reported by the scanning hardware. A freshly approved card
// starts at Unset until its first swipe arrives.
const (
	SwipeStatusUnset    = "Unset"
	SwipeStatusBoarded  = "Boarded"
	SwipeStatusAlighted = "Alighted"
	SwipeStatusOther    = "Other"
)

// PendingCard is a card the scanner has seen but no admin has approved yet.
type PendingCard struct {
	CardID      string    `gorm:"primaryKey;size:32" json:"card_id"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
}

// StudentProfile is the canonical student record, keyed by the RFID card.
type StudentProfile struct {
	CardID        string    `gorm:"primaryKey;size:32" json:"card_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	GuardianName  string    `gorm:"size:255" json:"guardian_name"`
	ClassName     string    `gorm:"size:64;index" json:"class_name"`
	GuardianPhone string    `gorm:"size:32" json:"guardian_phone"`
	StudentPhone  string    `gorm:"size:32" json:"student_phone"`
	Address       string    `gorm:"size:255" json:"address"`
	Gender        string    `gorm:"size:16" json:"gender"`
	DateOfBirth   string    `gorm:"size:10" json:"date_of_birth"`
	Email         string    `gorm:"size:255" json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CardStatus tracks the latest swipe outcome for a card. Only the swipe
// ingestion path mutates it after creation.
type CardStatus struct {
	CardID     string       `gorm:"primaryKey;size:32" json:"card_id"`
	LastStatus string       `gorm:"size:32;not null;default:Unset" json:"last_status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	SwipeLog   []SwipeEvent `gorm:"foreignKey:CardID;references:CardID" json:"swipe_log,omitempty"`
}

// SwipeEvent is a single boarded/alighted record appended by the scanner.
type SwipeEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CardID     string    `gorm:"size:32;index;not null" json:"card_id"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
