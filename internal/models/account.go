package models

import "time"

// Account roles. Teacher accounts manage exactly one class; student accounts
// link back to one card.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Account maps a login username to a role and its linked entity. The unique
// index on LinkedCardID keeps one student credential per card; NULL rows
// (admin and teacher accounts) are exempt.
type Account struct {
	Username         string    `gorm:"primaryKey;size:64" json:"username"`
	LinkedCardID     *string   `gorm:"size:32;uniqueIndex" json:"linked_card_id,omitempty"`
	Role             string    `gorm:"size:16;not null" json:"role"`
	PasswordHash     string    `gorm:"size:128" json:"-"`
	ManagedClassName *string   `gorm:"size:64" json:"managed_class_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
