package service

import "github.com/buspass-vn/buspass-go-api/internal/dto"

func paginationMeta(page, pageSize int, total int64) dto.PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return dto.PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
