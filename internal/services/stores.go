package services

import (
	"context"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are satisfied by the repository package; services
// depend on them so tests can run against in-memory stores.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.PrayerGroup) (*models.PrayerGroup, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerGroup, error)
}

type MembershipStore interface {
	CreateMembership(ctx context.Context, m *models.UserPrayerGroup) (*models.UserPrayerGroup, error)
	GetMembership(ctx context.Context, userID, groupID primitive.ObjectID) (*models.UserPrayerGroup, error)
	UpdateStatus(ctx context.Context, userID, groupID primitive.ObjectID, status models.MembershipStatus) error
	DeleteMembership(ctx context.Context, userID, groupID primitive.ObjectID) error
	AcceptedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	AcceptedMemberIDs(ctx context.Context, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	ListByGroupAndStatus(ctx context.Context, groupID primitive.ObjectID, status models.MembershipStatus) ([]models.UserPrayerGroup, error)
}

type PrayerRequestStore interface {
	CreateRequest(ctx context.Context, req *models.PrayerRequest) (*models.PrayerRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerRequest, error)
	UpdateRequest(ctx context.Context, req *models.PrayerRequest) error
	DeleteRequest(ctx context.Context, id primitive.ObjectID) error
	FindByUser(ctx context.Context, userID primitive.ObjectID, f repository.RequestFilter) ([]models.PrayerRequest, error)
}

type ShareStore interface {
	CreateShares(ctx context.Context, shares []models.PrayerRequestShare) error
	GetSharesByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.PrayerRequestShare, error)
	DeleteSharesByRequest(ctx context.Context, requestID primitive.ObjectID) error
	DeleteGroupShares(ctx context.Context, requestID primitive.ObjectID, groupIDs []primitive.ObjectID) error
	RequestIDsSharedWithGroups(ctx context.Context, ownerID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteReadBefore(ctx context.Context, userID *primitive.ObjectID, cutoff time.Time) (int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
}

type DeviceStore interface {
	UpsertDevice(ctx context.Context, d *models.Device) (*models.Device, error)
	GetDevice(ctx context.Context, userID primitive.ObjectID, endpoint string) (*models.Device, error)
	GetDeviceByID(ctx context.Context, id primitive.ObjectID) (*models.Device, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Device, error)
	DeleteByEndpoint(ctx context.Context, userID primitive.ObjectID, endpoint string) error
	UpdateTitle(ctx context.Context, id primitive.ObjectID, title string) error
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	GetReminderByID(ctx context.Context, id primitive.ObjectID) (*models.Reminder, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Reminder, error)
	ListAll(ctx context.Context) ([]models.Reminder, error)
	MarkSent(ctx context.Context, id primitive.ObjectID, at time.Time) error
	DeleteReminder(ctx context.Context, id primitive.ObjectID) error
}

// Transactor runs fn atomically; see repository.Transactor.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PushSender delivers one web-push message; push.Service implements it.
type PushSender interface {
	Send(ctx context.Context, device *models.Device, payload push.Payload) error
}

// Publisher fans events out to open sockets; realtime.Hub implements it.
type Publisher interface {
	Publish(userID primitive.ObjectID, event realtime.Event) int
}

var (
	_ UserStore          = (*repository.UserRepository)(nil)
	_ GroupStore         = (*repository.PrayerGroupRepository)(nil)
	_ MembershipStore    = (*repository.MembershipRepository)(nil)
	_ PrayerRequestStore = (*repository.PrayerRequestRepository)(nil)
	_ ShareStore         = (*repository.ShareRepository)(nil)
	_ NotificationStore  = (*repository.NotificationRepository)(nil)
	_ DeviceStore        = (*repository.DeviceRepository)(nil)
	_ ReminderStore      = (*repository.ReminderRepository)(nil)
	_ Transactor         = (*repository.Transactor)(nil)
	_ PushSender         = (*push.Service)(nil)
	_ Publisher          = (*realtime.Hub)(nil)
)
