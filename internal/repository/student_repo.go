package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search    string
	ClassName string
	Page      int
	PageSize  int
}

// StudentRepository provides access to student profile records.
type StudentRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
	Get(ctx context.Context, cardID string) (models.StudentProfile, error)
	List(ctx context.Context, filter StudentFilter) ([]models.StudentProfile, int64, error)
	All(ctx context.Context) ([]models.StudentProfile, error)
	Update(ctx context.Context, cardID string, updates map[string]interface{}) (models.StudentProfile, error)
	Delete(ctx context.Context, cardID string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *studentRepository) Get(ctx context.Context, cardID string) (models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.WithContext(ctx).First(&profile, "card_id = ?", cardID).Error; err != nil {
		return models.StudentProfile{}, err
	}
	return profile, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.StudentProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentProfile{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(card_id) LIKE ?", like, like)
	}

	if filter.ClassName != "" {
		query = query.Where("class_name = ?", filter.ClassName)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var profiles []models.StudentProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *studentRepository) All(ctx context.Context) ([]models.StudentProfile, error) {
	var profiles []models.StudentProfile
	if err := r.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *studentRepository) Update(ctx context.Context, cardID string, updates map[string]interface{}) (models.StudentProfile, error) {
	tx := r.db.WithContext(ctx).Model(&models.StudentProfile{}).Where("card_id = ?", cardID)
	if err := tx.Updates(updates).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return r.Get(ctx, cardID)
}

func (r *studentRepository) Delete(ctx context.Context, cardID string) error {
	return r.db.WithContext(ctx).Delete(&models.StudentProfile{}, "card_id = ?", cardID).Error
}
