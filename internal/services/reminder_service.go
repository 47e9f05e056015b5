package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/sirupsen/logrus"
)

type ReminderService struct {
	repo          ReminderStore
	notifications *NotificationService
}

// NewReminderService creates a new instance of ReminderService
func NewReminderService(repo ReminderStore, notifications *NotificationService) *ReminderService {
	return &ReminderService{repo: repo, notifications: notifications}
}

// CreateReminder validates and stores a reminder owned by userIDHex.
func (s *ReminderService) CreateReminder(ctx context.Context, userIDHex string, r *models.Reminder) (*models.Reminder, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return nil, validationErr("reminder title is required")
	}
	if r.Frequency == "" {
		r.Frequency = models.FrequencyDaily
	}
	switch r.Frequency {
	case models.FrequencyDaily:
		r.DayOfWeek = nil
	case models.FrequencyWeekly:
		if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return nil, validationErr("weekly reminders need day_of_week between 0 and 6")
		}
	default:
		return nil, validationErr("unknown frequency %q", r.Frequency)
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return nil, validationErr("time must be HH:MM")
	}
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return nil, validationErr("unknown timezone %q", r.Timezone)
	}

	r.UserID = userID
	r.LastSentAt = nil
	created, err := s.repo.CreateReminder(ctx, r)
	if err != nil {
		return nil, err
	}
	logrus.WithField("reminder_id", created.ID.Hex()).Info("Reminder created")
	return created, nil
}

func (s *ReminderService) ListReminders(ctx context.Context, userIDHex string) ([]models.Reminder, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

// DeleteReminder removes a reminder; only its owner may do so.
func (s *ReminderService) DeleteReminder(ctx context.Context, userIDHex, reminderIDHex string) error {
	userID, err := parseID(userIDHex)
	if err != nil {
		return err
	}
	reminderID, err := parseID(reminderIDHex)
	if err != nil {
		return err
	}

	r, err := s.repo.GetReminderByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if r.UserID != userID {
		return ErrForbidden
	}
	return s.repo.DeleteReminder(ctx, reminderID)
}

// DispatchDue notifies the owner of every reminder due at now and returns
// how many fired.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	reminders, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for i := range reminders {
		r := &reminders[i]
		if !IsDue(r, now) {
			continue
		}
		_, _, err := s.notifications.Notify(ctx, r.UserID, NotificationInput{
			Title: r.Title,
			Text:  r.Message,
			Type:  models.NotifTypeReminder,
			Link:  "/reminders",
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", r.ID.Hex(), err))
			continue
		}
		if err := s.repo.MarkSent(ctx, r.ID, now); err != nil {
			errs = append(errs, err)
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// IsDue reports whether r fires in the minute containing now, in the
// reminder's own timezone. A reminder fires at most once per minute.
func IsDue(r *models.Reminder, now time.Time) bool {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	if local.Format("15:04") != r.Time {
		return false
	}
	if r.Frequency == models.FrequencyWeekly {
		if r.DayOfWeek == nil || int(local.Weekday()) != *r.DayOfWeek {
			return false
		}
	}
	if r.LastSentAt != nil && now.Sub(*r.LastSentAt) < time.Minute {
		return false
	}
	return true
}
