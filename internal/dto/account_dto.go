package dto

import (
	"time"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// LoginRequest carries submitted credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// PrincipalResponse is the session principal returned after authentication.
type PrincipalResponse struct {
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	LinkedCardID     *string   `json:"linked_card_id,omitempty"`
	ManagedClassName *string   `json:"managed_class_name,omitempty"`
	LoginAt          time.Time `json:"login_at"`
}

// LoginResponse bundles the bearer token with the principal.
type LoginResponse struct {
	Token     string            `json:"token"`
	Principal PrincipalResponse `json:"principal"`
}

// AccountCreateRequest is the admin form for creating teacher or admin
// accounts. Student accounts are only created through enrollment approval.
type AccountCreateRequest struct {
	Username         string `json:"username" validate:"required,min=3,max=64,lowercase,alphanum"`
	Role             string `json:"role" validate:"required,oneof=admin teacher"`
	ManagedClassName string `json:"managed_class_name" validate:"required_if=Role teacher,max=64"`
}

// AccountResponse is the serialized credential record. The password hash is
// never exposed.
type AccountResponse struct {
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	LinkedCardID     *string   `json:"linked_card_id,omitempty"`
	ManagedClassName *string   `json:"managed_class_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AccountListRequest carries account list filters.
type AccountListRequest struct {
	Search    string `query:"search"`
	Role      string `query:"role" validate:"omitempty,oneof=admin teacher student"`
	ClassName string `query:"class"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// AccountListResponse wraps a page of accounts.
type AccountListResponse struct {
	Items      []AccountResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewAccountResponse converts a model into a DTO.
func NewAccountResponse(account models.Account) AccountResponse {
	return AccountResponse{
		Username:         account.Username,
		Role:             account.Role,
		LinkedCardID:     account.LinkedCardID,
		ManagedClassName: account.ManagedClassName,
		CreatedAt:        account.CreatedAt,
	}
}

// NewAccountResponseSlice converts a slice of models into DTOs.
func NewAccountResponseSlice(accounts []models.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, NewAccountResponse(account))
	}
	return out
}
