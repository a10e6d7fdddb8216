package service

import (
	"context"
	"fmt"
	"log/slog"

	"shelfswap/internal/featureflags"
	"shelfswap/internal/models"
	"shelfswap/internal/notifications"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotificationService derives notification records from trade, follow, like
// and comment events and serves the recipient's inbox.
type NotificationService struct {
	repo     repository.NotificationRepository
	users    repository.UserRepository
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

// NotifyInput describes one event to notify a recipient about.
type NotifyInput struct {
	RecipientID uint
	ActorID     uint
	Type        models.NotificationType
	Source      models.NotificationSource
}

func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	notifier *notifications.Notifier,
	flags *featureflags.Manager,
) *NotificationService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &NotificationService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		flags:    flags,
	}
}

// NotificationContent renders the display text stored with a notification.
func NotificationContent(t models.NotificationType, actorName string) string {
	switch t {
	case models.NotificationTradeRequest:
		return fmt.Sprintf("%s has requested a trade with you.", actorName)
	case models.NotificationTradeAccepted:
		return fmt.Sprintf("%s has accepted your trade request.", actorName)
	case models.NotificationTradeRejected:
		return fmt.Sprintf("%s has rejected your trade request.", actorName)
	case models.NotificationTradeCompleted:
		return fmt.Sprintf("Your trade with %s has been completed.", actorName)
	case models.NotificationFollow:
		return fmt.Sprintf("%s started following you.", actorName)
	case models.NotificationLike:
		return fmt.Sprintf("%s liked your post.", actorName)
	case models.NotificationComment:
		return fmt.Sprintf("%s commented on your post.", actorName)
	}
	return ""
}

// Notify durably creates the notification and then pushes it best-effort.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid notification type")
	}
	if in.Source == nil {
		return nil, models.NewValidationError("Notification source is required")
	}

	actor, err := s.users.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	actorID := actor.ID
	n := &models.Notification{
		UserID:  in.RecipientID,
		Type:    in.Type,
		Content: NotificationContent(in.Type, actor.Name()),
		ActorID: &actorID,
	}
	n.SetSource(in.Source)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	summary := actor.Summary()
	n.Actor = &summary
	observability.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()

	s.publish(ctx, n)
	return n, nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if !s.notifier.Enabled() || !s.flags.Enabled(featureflags.RealtimePush, n.UserID) {
		return
	}
	unread, err := s.repo.CountUnread(ctx, n.UserID)
	if err != nil {
		softFail(ctx, observability.SideEffectPublish, "failed to count unread notifications", err,
			slog.Uint64("notification_id", uint64(n.ID)))
		return
	}
	if err := s.notifier.PublishNotification(ctx, n, unread); err != nil {
		softFail(ctx, observability.SideEffectPublish, "failed to publish notification", err,
			slog.Uint64("notification_id", uint64(n.ID)),
			slog.Uint64("user_id", uint64(n.UserID)))
	}
}

// List returns the user's notifications newest first. limit <= 0 uses the default.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int, includeRead bool) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	return s.repo.ListForUser(ctx, userID, limit, includeRead)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) ownedBy(ctx context.Context, id, userID uint) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return models.NewForbiddenError("You cannot modify this notification")
	}
	return nil
}

// MarkRead marks one of the recipient's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	if err := s.ownedBy(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	if err := s.ownedBy(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
