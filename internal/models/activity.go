package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable events triggered by administrators and
// teachers: approvals, transfers, credential deletions, roster repairs.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorUsername string            `gorm:"size:64;not null" json:"actor_username"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null" json:"action"`
	EntityType    string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID      string            `gorm:"size:64" json:"entity_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}
