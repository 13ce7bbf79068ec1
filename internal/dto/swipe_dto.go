package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/pkg/vntime"
)

// SwipeIngestRequest is the payload a bus reader posts for one card swipe.
// OccurredAt accepts the reader's local timestamp format or ISO 8601 and
// defaults to the server clock when omitted.
type SwipeIngestRequest struct {
	CardID     string `json:"card_id" validate:"required,max=32"`
	Status     string `json:"status" validate:"required,oneof=Boarded Alighted Other"`
	OccurredAt string `json:"occurred_at" validate:"omitempty,max=64"`
}

// SwipeIngestResponse reports what happened to an ingested swipe.
type SwipeIngestResponse struct {
	CardID     string    `json:"card_id"`
	Outcome    string    `json:"outcome"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// Ingest outcomes.
const (
	SwipeOutcomeRecorded = "recorded"
	SwipeOutcomePending  = "pending_approval"
)

// SwipeEventResponse is one history entry. DisplayTime carries the
// dashboard's local-time rendering of OccurredAt.
type SwipeEventResponse struct {
	ID          uint      `json:"id"`
	CardID      string    `json:"card_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
	DisplayTime string    `json:"display_time"`
}

// SwipeHistoryResponse wraps a page of a card's swipe log.
type SwipeHistoryResponse struct {
	CardID     string               `json:"card_id"`
	LastStatus string               `json:"last_status"`
	Items      []SwipeEventResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// DaySummary is one calendar day of the weekly chart.
type DaySummary struct {
	Date     string `json:"date"`
	Boarded  int    `json:"boarded"`
	Alighted int    `json:"alighted"`
}

// WeeklySummaryResponse is the seven day swipe chart, oldest day first.
type WeeklySummaryResponse struct {
	CardID string       `json:"card_id"`
	Days   []DaySummary `json:"days"`
}

// NewSwipeEventResponse converts a model into a DTO.
func NewSwipeEventResponse(event models.SwipeEvent) SwipeEventResponse {
	return SwipeEventResponse{
		ID:          event.ID,
		CardID:      event.CardID,
		Status:      event.Status,
		OccurredAt:  event.OccurredAt,
		DisplayTime: vntime.Format(event.OccurredAt),
	}
}

// NewSwipeEventResponseSlice converts a slice of models into DTOs.
func NewSwipeEventResponseSlice(events []models.SwipeEvent) []SwipeEventResponse {
	out := make([]SwipeEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, NewSwipeEventResponse(event))
	}
	return out
}
