package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notice is one message queued by a workflow operation, delivered after commit
type Notice struct {
	UserID  int
	Message string
}

// Notifier accepts messages for users
type Notifier interface {
	Notify(ctx context.Context, userID int, message string) error
}

type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationService creates a new instance of NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

// Notify persists a notification for userID
func (s *NotificationService) Notify(ctx context.Context, userID int, message string) error {
	return s.db.WithContext(ctx).Create(&models.NotificationModel{
		Token:     uuid.NewString(),
		UserId:    userID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}).Error
}

// ListForUser retrieves a user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID int) ([]models.NotificationModel, error) {
	var notifications []models.NotificationModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips the read flag. Other users' notifications look missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int) error {
	result := s.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Dispatcher delivers notices best-effort; failures are logged and dropped
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
}

// NewDispatcher creates a new instance of Dispatcher
func NewDispatcher(notifier Notifier, log *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, log: log}
}

// Dispatch delivers every notice, skipping repeats of the same user and message
func (d *Dispatcher) Dispatch(ctx context.Context, notices []Notice) {
	seen := make(map[Notice]struct{}, len(notices))
	for _, notice := range notices {
		if _, dup := seen[notice]; dup {
			continue
		}
		seen[notice] = struct{}{}

		if err := d.notifier.Notify(ctx, notice.UserID, notice.Message); err != nil {
			d.log.Warn("notification dropped", "userId", notice.UserID, "error", err)
		}
	}
}
