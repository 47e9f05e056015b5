package cron

import (
	"testing"

	"github.com/Dias221467/Prayer_Manager/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartNotificationCronJobs(t *testing.T) {
	c, err := StartNotificationCronJobs(jobs.NewReminderNotifier(nil, nil))
	require.NoError(t, err)
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Next.IsZero())
	}
}
