package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/models"
)

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, cardID string, limit, offset int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id uint, cardID string) (models.Notification, error)
	MarkAllRead(ctx context.Context, cardID string) (int64, error)
	CountUnread(ctx context.Context, cardID string) (int64, error)
	DeleteByRecipient(ctx context.Context, cardID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, cardID string, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_card_id = ?", cardID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	if err := query.
		Order("sent_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead transitions a notification to read. Already-read notifications are
// returned unchanged; read is terminal.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint, cardID string) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_card_id = ?", id, cardID).
		First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.Status == models.NotificationStatusRead {
		return notification, nil
	}

	notification.Status = models.NotificationStatusRead
	if err := r.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	return notification, nil
}

// MarkAllRead flips every unread notification for the recipient in a single
// batched update and reports how many rows moved.
func (r *notificationRepository) MarkAllRead(ctx context.Context, cardID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_card_id = ? AND status = ?", cardID, models.NotificationStatusUnread).
		Update("status", models.NotificationStatusRead)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, cardID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_card_id = ? AND status = ?", cardID, models.NotificationStatusUnread).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, cardID string) error {
	return r.db.WithContext(ctx).Delete(&models.Notification{}, "recipient_card_id = ?", cardID).Error
}
