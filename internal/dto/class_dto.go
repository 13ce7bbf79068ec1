package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// ClassResponse is the serialized class record.
type ClassResponse struct {
	ClassName       string  `json:"class_name"`
	TeacherUsername *string `json:"teacher_username,omitempty"`
	MemberCount     int     `json:"member_count"`
}

// MembershipResponse is one roster entry.
type MembershipResponse struct {
	CardID        string     `json:"card_id"`
	Name          string     `json:"name"`
	ClassName     string     `json:"class_name"`
	JoinedAt      time.Time  `json:"joined_at"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
}

// RosterResponse is a class with its full member list.
type RosterResponse struct {
	ClassName       string               `json:"class_name"`
	TeacherUsername *string              `json:"teacher_username,omitempty"`
	Members         []MembershipResponse `json:"members"`
}

// ResyncReportResponse summarizes a roster repair pass.
type ResyncReportResponse struct {
	ClassName string `json:"class_name"`
	Created   int    `json:"created"`
	Moved     int    `json:"moved"`
	Removed   int    `json:"removed"`
}

// NewMembershipResponse converts a model into a DTO.
func NewMembershipResponse(member models.ClassMembership) MembershipResponse {
	return MembershipResponse{
		CardID:        member.CardID,
		Name:          member.Name,
		ClassName:     member.ClassName,
		JoinedAt:      member.JoinedAt,
		TransferredAt: member.TransferredAt,
	}
}

// NewMembershipResponseSlice converts a slice of models into DTOs.
func NewMembershipResponseSlice(members []models.ClassMembership) []MembershipResponse {
	out := make([]MembershipResponse, 0, len(members))
	for _, member := range members {
		out = append(out, NewMembershipResponse(member))
	}
	return out
}
