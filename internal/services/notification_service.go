package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// NotificationService manages in-app notifications for staff users
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

// Notify creates a notification for a single user
func (s *NotificationService) Notify(ctx context.Context, userID uint, title, message, notificationType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notificationType,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyAdmins fans a notification out to every active admin
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notificationType string) error {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		if err := s.Notify(ctx, admin.ID, title, message, notificationType); err != nil {
			return err
		}
	}
	return nil
}

// ListForUser returns a page of the user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

// MarkAsRead marks one notification as read. Users can only touch their own.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return ErrUnauthorized
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Delete removes a notification. Users can only delete their own.
func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return ErrUnauthorized
	}
	return s.repo.Delete(ctx, id)
}
