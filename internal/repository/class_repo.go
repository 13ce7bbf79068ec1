package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// ClassRepository manages classes and their denormalized rosters.
type ClassRepository interface {
	EnsureClass(ctx context.Context, className string) (models.Class, error)
	Get(ctx context.Context, className string) (models.Class, error)
	List(ctx context.Context) ([]models.Class, error)
	SetTeacher(ctx context.Context, className string, username *string) error
	Members(ctx context.Context, className string) ([]models.ClassMembership, error)
	MemberByCard(ctx context.Context, cardID string) (models.ClassMembership, error)
	AllMembers(ctx context.Context) ([]models.ClassMembership, error)
	CreateMember(ctx context.Context, member *models.ClassMembership) error
	SaveMember(ctx context.Context, member *models.ClassMembership) error
	DeleteMemberByCard(ctx context.Context, cardID string) error
	DeleteMember(ctx context.Context, className, cardID string) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a repository backed by GORM.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

// EnsureClass lazily creates the class row. An existing roster is never
// touched.
func (r *classRepository) EnsureClass(ctx context.Context, className string) (models.Class, error) {
	class := models.Class{ClassName: className}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&class).Error; err != nil {
		return models.Class{}, err
	}

	return r.Get(ctx, className)
}

func (r *classRepository) Get(ctx context.Context, className string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, "class_name = ?", className).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).Order("class_name ASC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) SetTeacher(ctx context.Context, className string, username *string) error {
	result := r.db.WithContext(ctx).Model(&models.Class{}).
		Where("class_name = ?", className).
		Update("teacher_username", username)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classRepository) Members(ctx context.Context, className string) ([]models.ClassMembership, error) {
	var members []models.ClassMembership
	if err := r.db.WithContext(ctx).
		Where("class_name = ?", className).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *classRepository) MemberByCard(ctx context.Context, cardID string) (models.ClassMembership, error) {
	var member models.ClassMembership
	if err := r.db.WithContext(ctx).First(&member, "card_id = ?", cardID).Error; err != nil {
		return models.ClassMembership{}, err
	}
	return member, nil
}

func (r *classRepository) AllMembers(ctx context.Context) ([]models.ClassMembership, error) {
	var members []models.ClassMembership
	if err := r.db.WithContext(ctx).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *classRepository) CreateMember(ctx context.Context, member *models.ClassMembership) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// SaveMember persists membership mutations in place. Because CardID carries a
// unique index, moving a member between classes is an update of the same row,
// which is what keeps JoinedAt intact across transfers.
func (r *classRepository) SaveMember(ctx context.Context, member *models.ClassMembership) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *classRepository) DeleteMemberByCard(ctx context.Context, cardID string) error {
	err := r.db.WithContext(ctx).Delete(&models.ClassMembership{}, "card_id = ?", cardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (r *classRepository) DeleteMember(ctx context.Context, className, cardID string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.ClassMembership{}, "class_name = ? AND card_id = ?", className, cardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
