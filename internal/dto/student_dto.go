package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// StudentProfileResponse is the serialized student record.
type StudentProfileResponse struct {
	CardID        string    `json:"card_id"`
	Name          string    `json:"name"`
	GuardianName  string    `json:"guardian_name"`
	ClassName     string    `json:"class_name"`
	GuardianPhone string    `json:"guardian_phone"`
	StudentPhone  string    `json:"student_phone"`
	Address       string    `json:"address"`
	Gender        string    `json:"gender"`
	DateOfBirth   string    `json:"date_of_birth"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StudentUpdateRequest carries partial profile edits. A changed ClassName
// triggers the class transfer path.
type StudentUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,max=255"`
	ClassName     *string `json:"class_name" validate:"omitempty,min=1,max=64"`
	GuardianPhone *string `json:"guardian_phone" validate:"omitempty,max=32"`
	StudentPhone  *string `json:"student_phone" validate:"omitempty,max=32"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	Gender        *string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth   *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Email         *string `json:"email" validate:"omitempty,emailish"`
}

// StudentListRequest carries list filters from the admin panel.
type StudentListRequest struct {
	Search    string `query:"search"`
	ClassName string `query:"class"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// StudentListResponse wraps a page of student records.
type StudentListResponse struct {
	Items      []StudentProfileResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}

// NewStudentProfileResponse converts a model into a DTO.
func NewStudentProfileResponse(profile models.StudentProfile) StudentProfileResponse {
	return StudentProfileResponse{
		CardID:        profile.CardID,
		Name:          profile.Name,
		GuardianName:  profile.GuardianName,
		ClassName:     profile.ClassName,
		GuardianPhone: profile.GuardianPhone,
		StudentPhone:  profile.StudentPhone,
		Address:       profile.Address,
		Gender:        profile.Gender,
		DateOfBirth:   profile.DateOfBirth,
		Email:         profile.Email,
		CreatedAt:     profile.CreatedAt,
		UpdatedAt:     profile.UpdatedAt,
	}
}

// NewStudentProfileResponseSlice converts a slice of models into DTOs.
func NewStudentProfileResponseSlice(profiles []models.StudentProfile) []StudentProfileResponse {
	out := make([]StudentProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, NewStudentProfileResponse(profile))
	}
	return out
}
