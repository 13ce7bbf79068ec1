package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// CardStatusRepository handles per-card runtime status and the swipe log.
type CardStatusRepository interface {
	Create(ctx context.Context, status *models.CardStatus) error
	Get(ctx context.Context, cardID string) (models.CardStatus, error)
	AppendSwipe(ctx context.Context, event *models.SwipeEvent) error
	History(ctx context.Context, cardID string, limit, offset int) ([]models.SwipeEvent, int64, error)
	EventsSince(ctx context.Context, cardID string, since time.Time) ([]models.SwipeEvent, error)
	Delete(ctx context.Context, cardID string) error
}

type cardStatusRepository struct {
	db *gorm.DB
}

// NewCardStatusRepository constructs a repository backed by GORM.
func NewCardStatusRepository(db *gorm.DB) CardStatusRepository {
	return &cardStatusRepository{db: db}
}

func (r *cardStatusRepository) Create(ctx context.Context, status *models.CardStatus) error {
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *cardStatusRepository) Get(ctx context.Context, cardID string) (models.CardStatus, error) {
	var status models.CardStatus
	if err := r.db.WithContext(ctx).First(&status, "card_id = ?", cardID).Error; err != nil {
		return models.CardStatus{}, err
	}
	return status, nil
}

// AppendSwipe records the event and moves the card's last status in one
// transaction so readers never observe the log without the status.
func (r *cardStatusRepository) AppendSwipe(ctx context.Context, event *models.SwipeEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		result := tx.Model(&models.CardStatus{}).
			Where("card_id = ?", event.CardID).
			Update("last_status", event.Status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

// History returns swipe events newest first. Events sharing a timestamp keep
// whatever order the store yields; callers must not rely on it across reads.
func (r *cardStatusRepository) History(ctx context.Context, cardID string, limit, offset int) ([]models.SwipeEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SwipeEvent{}).Where("card_id = ?", cardID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.SwipeEvent
	if err := query.
		Order("occurred_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *cardStatusRepository) EventsSince(ctx context.Context, cardID string, since time.Time) ([]models.SwipeEvent, error) {
	var events []models.SwipeEvent
	if err := r.db.WithContext(ctx).
		Where("card_id = ? AND occurred_at >= ?", cardID, since).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *cardStatusRepository) Delete(ctx context.Context, cardID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.SwipeEvent{}, "card_id = ?", cardID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CardStatus{}, "card_id = ?", cardID).Error
	})
}
