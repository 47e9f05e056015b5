package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "UNREAD"
	NotificationRead   NotificationStatus = "READ"
)

// Notification types
const (
	NotifTypePrayerRequest = "prayer_request"
	NotifTypeReminder      = "reminder"
)

// ReadRetention is how long READ notifications survive a mark-all-read sweep.
const ReadRetention = 7 * 24 * time.Hour

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title" json:"title"`
	Text      string             `bson:"text" json:"text"`
	Type      string             `bson:"type" json:"type"` // e.g. "prayer_request", "reminder"
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	Status    NotificationStatus `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
