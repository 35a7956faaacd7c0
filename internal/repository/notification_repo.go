package repository

import (
	"fmt"
	"time"

	"soundrise/internal/model"
	"soundrise/internal/util"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByID(id string) (*model.Notification, error)
	FindByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	CountUnreadByUserID(userID string) (int64, error)
	MarkAsRead(id string) error
	MarkAllAsRead(userID string) error
}

type notificationRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	notificationCountCachePrefix = "notification:count:"
	notificationCacheExpiration  = 10 * time.Minute
)

func NewNotificationRepository(db *gorm.DB, redis *util.RedisClient) NotificationRepository {
	return &notificationRepository{
		db:    db,
		redis: redis,
	}
}

// Create creates a new notification
func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCountCache(notification.UserID)
	}

	return nil
}

// FindByID finds a notification by ID
func (r *notificationRepository) FindByID(id string) (*model.Notification, error) {
	var notification model.Notification
	err := r.db.Preload("Sender").Where("id = ?", id).First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// FindByUserID finds notifications for a user with pagination
func (r *notificationRepository) FindByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.Preload("Sender").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnreadByUserID counts unread notifications for a user
func (r *notificationRepository) CountUnreadByUserID(userID string) (int64, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.redis.Get(notificationCountCachePrefix + userID)
		if err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		r.redis.Set(notificationCountCachePrefix+userID, fmt.Sprintf("%d", count), notificationCacheExpiration)
	}

	return count, nil
}

// MarkAsRead marks a notification as read
func (r *notificationRepository) MarkAsRead(id string) error {
	var notification model.Notification
	if err := r.db.Where("id = ?", id).First(&notification).Error; err != nil {
		return err
	}

	now := time.Now()
	err := r.db.Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCountCache(notification.UserID)
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepository) MarkAllAsRead(userID string) error {
	now := time.Now()
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCountCache(userID)
	}

	return nil
}

func (r *notificationRepository) invalidateCountCache(userID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(notificationCountCachePrefix + userID)
}
