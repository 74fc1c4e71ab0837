package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsroom/editorial-portal/editorial-portal-backend/internal/workflow"
)

// relatedTypeArticle tags workflow notifications with the entity they
// point at.
const relatedTypeArticle = "article"

// Service provides notification business logic and acts as the workflow
// core's notification sink.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(db *gorm.DB, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Service{db: db, logger: logger}, nil
}

// Send persists one workflow notification. Implements
// workflow.NotificationSink.
func (s *Service) Send(ctx context.Context, intent workflow.NotificationIntent) error {
	var metadata []byte
	if intent.Metadata != nil {
		var err error
		metadata, err = json.Marshal(intent.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
	}

	notification := &Notification{
		ID:       uuid.New(),
		UserID:   intent.RecipientID,
		Type:     intent.Type,
		Title:    intent.Title,
		Message:  intent.Message,
		Metadata: metadata,
	}
	if intent.ActionURL != "" {
		notification.ActionURL = &intent.ActionURL
	}
	if raw, ok := intent.Metadata["article_id"].(string); ok {
		if articleID, err := uuid.Parse(raw); err == nil {
			notification.RelatedID = &articleID
			relatedType := relatedTypeArticle
			notification.RelatedType = &relatedType
		}
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	notifications := []Notification{}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

// UnreadCount counts a user's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead marks one of the user's notifications as read.
func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("notification not found")
	}

	return nil
}

// MarkAllAsRead marks all of the user's unread notifications as read and
// returns how many were touched.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("mark all notifications as read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupOld deletes notifications older than the retention window.
func (s *Service) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("Purged old notifications",
			zap.Int64("count", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}

	return result.RowsAffected, nil
}
