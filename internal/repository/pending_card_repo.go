package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// PendingCardRepository manages the enrollment queue of unassigned cards.
type PendingCardRepository interface {
	Upsert(ctx context.Context, card *models.PendingCard) error
	Get(ctx context.Context, cardID string) (models.PendingCard, error)
	List(ctx context.Context, limit, offset int) ([]models.PendingCard, int64, error)
	Delete(ctx context.Context, cardID string) error
}

type pendingCardRepository struct {
	db *gorm.DB
}

// NewPendingCardRepository constructs a repository backed by GORM.
func NewPendingCardRepository(db *gorm.DB) PendingCardRepository {
	return &pendingCardRepository{db: db}
}

// Upsert keeps the earliest first-seen timestamp when the scanner reports the
// same unknown card repeatedly.
func (r *pendingCardRepository) Upsert(ctx context.Context, card *models.PendingCard) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(card).Error
}

func (r *pendingCardRepository) Get(ctx context.Context, cardID string) (models.PendingCard, error) {
	var card models.PendingCard
	if err := r.db.WithContext(ctx).First(&card, "card_id = ?", cardID).Error; err != nil {
		return models.PendingCard{}, err
	}
	return card, nil
}

func (r *pendingCardRepository) List(ctx context.Context, limit, offset int) ([]models.PendingCard, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&models.PendingCard{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []models.PendingCard
	if err := query.
		Order("first_seen_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&cards).Error; err != nil {
		return nil, 0, err
	}

	return cards, total, nil
}

func (r *pendingCardRepository) Delete(ctx context.Context, cardID string) error {
	result := r.db.WithContext(ctx).Delete(&models.PendingCard{}, "card_id = ?", cardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
