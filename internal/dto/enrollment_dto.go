package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// ApprovalRequest is the profile form an admin submits when approving a
// pending card.
type ApprovalRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	GuardianName  string `json:"guardian_name" validate:"required,max=255"`
	ClassName     string `json:"class_name" validate:"required,max=64"`
	GuardianPhone string `json:"guardian_phone" validate:"required,max=32"`
	StudentPhone  string `json:"student_phone" validate:"omitempty,max=32"`
	Address       string `json:"address" validate:"omitempty,max=255"`
	Gender        string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Email         string `json:"email" validate:"omitempty,emailish"`
}

// ApprovalResponse reports the outcome of an approval, including the
// generated default credentials.
type ApprovalResponse struct {
	CardID   string                 `json:"card_id"`
	Username string                 `json:"username"`
	Profile  StudentProfileResponse `json:"profile"`
}

// PendingCardResponse is one entry of the enrollment queue.
type PendingCardResponse struct {
	CardID      string    `json:"card_id"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// PendingCardListResponse wraps a page of the enrollment queue.
type PendingCardListResponse struct {
	Items      []PendingCardResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// NewPendingCardResponse converts a model into a DTO.
func NewPendingCardResponse(card models.PendingCard) PendingCardResponse {
	return PendingCardResponse{
		CardID:      card.CardID,
		FirstSeenAt: card.FirstSeenAt,
	}
}

// NewPendingCardResponseSlice converts a slice of models into DTOs.
func NewPendingCardResponseSlice(cards []models.PendingCard) []PendingCardResponse {
	out := make([]PendingCardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, NewPendingCardResponse(card))
	}
	return out
}
