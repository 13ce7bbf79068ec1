package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// AccountFilter narrows account listings from the admin panel.
type AccountFilter struct {
	Search    string
	Role      string
	ClassName string
	Page      int
	PageSize  int
}

// AccountRepository handles persistence for login credentials.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	Get(ctx context.Context, username string) (models.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	FindByCardID(ctx context.Context, cardID string) (models.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error)
	Update(ctx context.Context, username string, updates map[string]interface{}) error
	Delete(ctx context.Context, username string) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs a repository backed by GORM.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) Get(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "username = ?", username).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.Get(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (r *accountRepository) FindByCardID(ctx context.Context, cardID string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "linked_card_id = ?", cardID).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Account{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(linked_card_id) LIKE ?", like, like)
	}

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if filter.ClassName != "" {
		query = query.Where("managed_class_name = ?", filter.ClassName)
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

	var accounts []models.Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *accountRepository) Update(ctx context.Context, username string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, username string) error {
	result := r.db.WithContext(ctx).Delete(&models.Account{}, "username = ?", username)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
