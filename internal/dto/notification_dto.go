package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// NotificationSendRequest is a teacher's or admin's send form. Message is
// optional for the canned types and required for custom notifications.
type NotificationSendRequest struct {
	RecipientCardID string `json:"recipient_card_id" validate:"required,max=32"`
	Type            string `json:"type" validate:"required,oneof=sleepy health custom"`
	Message         string `json:"message" validate:"omitempty,max=2000"`
}

// NotificationResponse is the serialized notification record.
type NotificationResponse struct {
	ID              uint      `json:"id"`
	RecipientCardID string    `json:"recipient_card_id"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	SenderUsername  string    `json:"sender_username"`
	SentAt          time.Time `json:"sent_at"`
	Status          string    `json:"status"`
}

// NotificationListResponse wraps a recipient's notification feed.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int64                  `json:"unread_count"`
}

// MarkAllReadResponse reports how many notifications a batch read touched.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NewNotificationResponse converts a model into a DTO.
func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:              n.ID,
		RecipientCardID: n.RecipientCardID,
		Type:            n.Type,
		Message:         n.Message,
		SenderUsername:  n.SenderUsername,
		SentAt:          n.SentAt,
		Status:          n.Status,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NewNotificationResponse(n))
	}
	return out
}
