package service

import (
	"context"
	"encoding/json"

	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"
)

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error
}

// EventPublisher pushes a realtime event to a user's open connections.
type EventPublisher interface {
	Publish(userID uint, event string, payload interface{})
}

// NotificationService is the in-app inbox of a referrer. pusher may be nil.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	pusher   Pusher
	log      logger.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, pusher Pusher, log logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, pusher: pusher, log: log}
}

// Notify stores the notification and, when the user registered a device, pushes it.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		return err
	}
	s.push(ctx, userID, PushMessage{Kind: notifType, Title: title, Body: body, Data: data})
	return nil
}

func (s *NotificationService) push(ctx context.Context, userID uint, msg PushMessage) {
	if s.pusher == nil {
		return
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	if err := s.pusher.Push(ctx, u.FCMToken, msg); err != nil {
		s.log.Warn("push failed", "user_id", userID, "kind", msg.Kind, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// MarkRead reports false when the notification does not exist, belongs to
// someone else, or was already read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	n, err := s.repo.MarkRead(ctx, id, userID)
	return n > 0, err
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uint, token string) error {
	return s.userRepo.UpdateFCMToken(ctx, userID, token)
}

// notify and publish tolerate unconfigured collaborators and never fail the
// caller; delivery problems are logged.
func notify(ctx context.Context, n Notifier, log logger.Logger, userID uint, notifType, title, body string, data map[string]interface{}) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, notifType, title, body, data); err != nil {
		log.Warn("notification failed", "user_id", userID, "type", notifType, "error", err)
	}
}

func publish(p EventPublisher, userID uint, event string, payload interface{}) {
	if p == nil {
		return
	}
	p.Publish(userID, event, payload)
}
