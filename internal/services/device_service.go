package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// DeliveryOutcome is the result of one push attempt to one device.
type DeliveryOutcome struct {
	DeviceID  primitive.ObjectID `json:"device_id"`
	Title     string             `json:"title"`
	Endpoint  string             `json:"endpoint"`
	Delivered bool               `json:"delivered"`
	Removed   bool               `json:"removed,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// DeviceService is the registry of push endpoints per user.
type DeviceService struct {
	repo        DeviceStore
	sender      PushSender
	concurrency int
	icon        string
}

// NewDeviceService creates a DeviceService pushing to at most concurrency
// devices at a time. icon is used when a payload carries none.
func NewDeviceService(repo DeviceStore, sender PushSender, concurrency int, icon string) *DeviceService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DeviceService{repo: repo, sender: sender, concurrency: concurrency, icon: icon}
}

// Subscribe registers a push endpoint. Re-subscribing the same endpoint
// updates its keys and title instead of adding a second device.
func (s *DeviceService) Subscribe(ctx context.Context, userIDHex string, sub models.PushSubscription, title string) (*models.Device, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sub.Endpoint) == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, validationErr("endpoint, keys.p256dh and keys.auth are required")
	}
	if title == "" {
		title = "Unnamed device"
	}

	device, err := s.repo.UpsertDevice(ctx, &models.Device{
		UserID:   userID,
		Endpoint: sub.Endpoint,
		Keys:     sub.Keys,
		Title:    title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe device: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userIDHex,
		"device_id": device.ID.Hex(),
	}).Info("Device subscribed")
	return device, nil
}

// Unsubscribe removes the endpoint from userID's devices.
func (s *DeviceService) Unsubscribe(ctx context.Context, userIDHex, endpoint string) error {
	userID, err := parseID(userIDHex)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByEndpoint(ctx, userID, endpoint); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to unsubscribe device: %w", err)
	}
	return nil
}

func (s *DeviceService) ListDevices(ctx context.Context, userIDHex string) ([]models.Device, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

// RenameDevice changes a device title. Only the device owner may rename it.
func (s *DeviceService) RenameDevice(ctx context.Context, userIDHex, deviceIDHex, title string) (*models.Device, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	deviceID, err := parseID(deviceIDHex)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("title is required")
	}

	device, err := s.repo.GetDeviceByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device.UserID != userID {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateTitle(ctx, deviceID, title); err != nil {
		return nil, fmt.Errorf("failed to rename device: %w", err)
	}
	device.Title = title
	return device, nil
}

// SendToDevice pushes payload to one endpoint of userID.
func (s *DeviceService) SendToDevice(ctx context.Context, userIDHex, endpoint string, payload push.Payload) error {
	userID, err := parseID(userIDHex)
	if err != nil {
		return err
	}

	device, err := s.repo.GetDevice(ctx, userID, endpoint)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load device: %w", err)
	}

	outcome := s.deliver(ctx, device, payload)
	if !outcome.Delivered {
		return fmt.Errorf("push delivery failed: %s", outcome.Error)
	}
	return nil
}

// SendToAllDevices pushes payload to every device of userID in parallel and
// returns one outcome per device. Individual failures never make it fail.
func (s *DeviceService) SendToAllDevices(ctx context.Context, userIDHex string, payload push.Payload) ([]DeliveryOutcome, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	return s.sendToAll(ctx, userID, payload)
}

func (s *DeviceService) sendToAll(ctx context.Context, userID primitive.ObjectID, payload push.Payload) ([]DeliveryOutcome, error) {
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	outcomes := make([]DeliveryOutcome, len(devices))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range devices {
		i := i
		g.Go(func() error {
			outcomes[i] = s.deliver(ctx, &devices[i], payload)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

func (s *DeviceService) deliver(ctx context.Context, device *models.Device, payload push.Payload) DeliveryOutcome {
	if payload.Icon == "" {
		payload.Icon = s.icon
	}
	outcome := DeliveryOutcome{
		DeviceID: device.ID,
		Title:    device.Title,
		Endpoint: device.Endpoint,
	}

	err := s.sender.Send(ctx, device, payload)
	if err == nil {
		outcome.Delivered = true
		return outcome
	}

	outcome.Error = err.Error()
	entry := logrus.WithFields(logrus.Fields{
		"user_id":   device.UserID.Hex(),
		"device_id": device.ID.Hex(),
	})
	if errors.Is(err, push.ErrExpired) {
		if delErr := s.repo.DeleteByEndpoint(ctx, device.UserID, device.Endpoint); delErr != nil && !errors.Is(delErr, repository.ErrNotFound) {
			entry.WithError(delErr).Warn("Failed to remove expired device")
		} else {
			outcome.Removed = true
			entry.Info("Removed expired push subscription")
		}
		return outcome
	}

	entry.WithError(err).Warn("Push delivery failed")
	return outcome
}
