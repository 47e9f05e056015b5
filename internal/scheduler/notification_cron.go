package cron

import (
	"context"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 50 * time.Second

// StartNotificationCronJobs schedules reminder dispatch and the read
// notification purge. The caller stops the returned scheduler on shutdown.
func StartNotificationCronJobs(notifier *jobs.ReminderNotifier) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	// Reminders
	if _, err := c.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := notifier.RunMinuteScan(ctx); err != nil {
			logrus.WithError(err).Error("RunMinuteScan failed")
		}
	}); err != nil {
		return nil, err
	}

	// Purge READ notifications past retention
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := notifier.RunDailyPurge(context.Background()); err != nil {
			logrus.WithError(err).Error("RunDailyPurge failed")
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logrus.Info("Notification cron jobs started")
	return c, nil
}
