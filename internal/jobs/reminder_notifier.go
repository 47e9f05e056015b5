package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/sirupsen/logrus"
)

type ReminderNotifier struct {
	ReminderService     *services.ReminderService
	NotificationService *services.NotificationService
	now                 func() time.Time
}

// NewReminderNotifier creates a new instance of ReminderNotifier
func NewReminderNotifier(reminderService *services.ReminderService, notifService *services.NotificationService) *ReminderNotifier {
	return &ReminderNotifier{
		ReminderService:     reminderService,
		NotificationService: notifService,
		now:                 time.Now,
	}
}

// RunMinuteScan fires every reminder whose local time matches the current minute.
func (n *ReminderNotifier) RunMinuteScan(ctx context.Context) error {
	now := n.now().Truncate(time.Minute)
	sent, err := n.ReminderService.DispatchDue(ctx, now)
	if err != nil {
		return fmt.Errorf("reminder scan: %w", err)
	}
	if sent > 0 {
		logrus.WithField("sent", sent).Info("Reminder scan completed")
	}
	return nil
}

// RunDailyPurge drops READ notifications past the retention window for all users.
func (n *ReminderNotifier) RunDailyPurge(ctx context.Context) error {
	purged, err := n.NotificationService.PurgeRead(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge read notifications: %v", err)
	}
	logrus.WithField("purged", purged).Info("Read notification purge completed")
	return nil
}
