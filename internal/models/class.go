package models

import "time"

// Class is one school class together with its optional managing teacher
// account.
type Class struct {
	ClassName       string            `gorm:"primaryKey;size:64" json:"class_name"`
	TeacherUsername *string           `gorm:"size:64" json:"teacher_username,omitempty"`
	Members         []ClassMembership `gorm:"foreignKey:ClassName;references:ClassName" json:"members,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ClassMembership is the denormalized roster entry mirroring
// StudentProfile.ClassName. The unique index on CardID guarantees a card sits
// in at most one class; a transfer moves the row instead of copying it, so
// JoinedAt survives.
type ClassMembership struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ClassName     string     `gorm:"size:64;index;not null" json:"class_name"`
	CardID        string     `gorm:"size:32;uniqueIndex;not null" json:"card_id"`
	Name          string     `gorm:"size:255" json:"name"`
	JoinedAt      time.Time  `gorm:"not null" json:"joined_at"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
