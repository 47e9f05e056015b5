package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationInput is the content of a notification about to be stored.
type NotificationInput struct {
	Title string
	Text  string
	Type  string
	Link  string
}

// MarkAllResult reports what MarkAllAsRead changed.
type MarkAllResult struct {
	Purged int64 `json:"purged"`
	Marked int64 `json:"marked"`
}

type NotificationService struct {
	repo      NotificationStore
	devices   *DeviceService
	publisher Publisher
	now       func() time.Time
}

// NewNotificationService creates a NotificationService. publisher may be nil.
func NewNotificationService(repo NotificationStore, devices *DeviceService, publisher Publisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		devices:   devices,
		publisher: publisher,
		now:       time.Now,
	}
}

// Notify stores one UNREAD notification for userID, publishes it to open
// sockets and pushes it to every device of the user. Only the store write can
// fail the call; push outcomes are returned for inspection.
func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, in NotificationInput) (*models.Notification, []DeliveryOutcome, error) {
	notif := &models.Notification{
		UserID: userID,
		Title:  in.Title,
		Text:   in.Text,
		Type:   in.Type,
		Link:   in.Link,
		Status: models.NotificationUnread,
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		return nil, nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(userID, realtime.Event{Type: "notification", Data: notif})
	}

	outcomes, err := s.devices.sendToAll(ctx, userID, push.Payload{Title: in.Title, Body: in.Text})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Push dispatch skipped")
	}
	return notif, outcomes, nil
}

// GetUserNotifications returns all notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userIDHex string) ([]models.Notification, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserNotifications(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userIDHex string) (int64, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead sets the status of one of the user's notifications to READ
func (s *NotificationService) MarkAsRead(ctx context.Context, userIDHex, notifIDHex string) error {
	notif, err := s.owned(ctx, userIDHex, notifIDHex)
	if err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, notif.ID)
}

// MarkAllAsRead deletes the user's READ notifications older than seven days,
// then flips the remaining UNREAD ones to READ.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userIDHex string) (*MarkAllResult, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}

	purged, err := s.repo.DeleteReadBefore(ctx, &userID, s.now().Add(-models.ReadRetention))
	if err != nil {
		return nil, fmt.Errorf("failed to purge read notifications: %w", err)
	}
	marked, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userIDHex,
		"purged":  purged,
		"marked":  marked,
	}).Info("Marked all notifications as read")
	return &MarkAllResult{Purged: purged, Marked: marked}, nil
}

// DeleteNotification deletes one of the user's notifications
func (s *NotificationService) DeleteNotification(ctx context.Context, userIDHex, notifIDHex string) error {
	notif, err := s.owned(ctx, userIDHex, notifIDHex)
	if err != nil {
		return err
	}
	return s.repo.DeleteNotification(ctx, notif.ID)
}

// PurgeRead removes READ notifications older than seven days for every user.
func (s *NotificationService) PurgeRead(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteReadBefore(ctx, nil, s.now().Add(-models.ReadRetention))
	if err != nil {
		return 0, err
	}
	logrus.Infof("Purged %d read notifications", n)
	return n, nil
}

func (s *NotificationService) owned(ctx context.Context, userIDHex, notifIDHex string) (*models.Notification, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	notifID, err := parseID(notifIDHex)
	if err != nil {
		return nil, err
	}

	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	if notif.UserID != userID {
		return nil, ErrForbidden
	}
	return notif, nil
}
