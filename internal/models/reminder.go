package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReminderFrequency string

const (
	FrequencyDaily  ReminderFrequency = "DAILY"
	FrequencyWeekly ReminderFrequency = "WEEKLY"
)

// Reminder fires at Time ("HH:MM") in Timezone, every day or on DayOfWeek
// (0 = Sunday) when WEEKLY.
type Reminder struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title      string             `bson:"title" json:"title"`
	Message    string             `bson:"message" json:"message"`
	Frequency  ReminderFrequency  `bson:"frequency" json:"frequency"`
	Time       string             `bson:"time" json:"time"`
	DayOfWeek  *int               `bson:"day_of_week,omitempty" json:"day_of_week,omitempty"`
	Timezone   string             `bson:"timezone" json:"timezone"`
	LastSentAt *time.Time         `bson:"last_sent_at,omitempty" json:"last_sent_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
