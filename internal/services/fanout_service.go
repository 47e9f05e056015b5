package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventKind string

const (
	EventNewPublicRequest      EventKind = "new_public_request"
	EventNewPrivateRequest     EventKind = "new_private_request"
	EventNewGroupSharedRequest EventKind = "new_group_shared_request"
)

const previewLength = 120

// AudienceEvent describes a request creation or update to announce.
type AudienceEvent struct {
	Kind    EventKind
	Request *models.PrayerRequest
	// GroupIDs are the target groups of a group-shared event.
	GroupIDs []primitive.ObjectID
	// IncludeAuthor keeps the author in a group-shared audience.
	IncludeAuthor bool
}

// RecipientReport is what happened for one audience member.
type RecipientReport struct {
	UserID         primitive.ObjectID `json:"user_id"`
	NotificationID primitive.ObjectID `json:"notification_id,omitempty"`
	Deliveries     []DeliveryOutcome  `json:"deliveries"`
	Error          string             `json:"error,omitempty"`
}

// FanoutReport aggregates a NotifyAudience run.
type FanoutReport struct {
	Kind          EventKind         `json:"kind"`
	Recipients    []RecipientReport `json:"recipients"`
	Notified      int               `json:"notified"`
	PushDelivered int               `json:"push_delivered"`
	PushFailed    int               `json:"push_failed"`
}

// FanoutService writes one notification per audience member and pushes it to
// the member's devices.
type FanoutService struct {
	memberships   *MembershipService
	users         UserStore
	notifications *NotificationService
	includeAuthor bool
}

func NewFanoutService(memberships *MembershipService, users UserStore, notifications *NotificationService) *FanoutService {
	return &FanoutService{
		memberships:   memberships,
		users:         users,
		notifications: notifications,
	}
}

// SetIncludeAuthor makes every group-shared event also notify its author.
func (s *FanoutService) SetIncludeAuthor(include bool) {
	s.includeAuthor = include
}

// Audience computes the recipients of ev.
func (s *FanoutService) Audience(ctx context.Context, ev AudienceEvent) ([]primitive.ObjectID, error) {
	authorID := ev.Request.UserID

	switch ev.Kind {
	case EventNewPrivateRequest:
		return []primitive.ObjectID{authorID}, nil
	case EventNewPublicRequest:
		return s.memberships.CoMembers(ctx, authorID)
	case EventNewGroupSharedRequest:
		members, err := s.memberships.AcceptedMembersOf(ctx, ev.GroupIDs)
		if err != nil {
			return nil, err
		}
		if ev.IncludeAuthor || s.includeAuthor {
			return members, nil
		}
		return without(members, authorID), nil
	}
	return nil, fmt.Errorf("unknown audience event %q", ev.Kind)
}

// NotifyAudience notifies every recipient of ev. A recipient whose
// notification cannot be stored is reported and skipped; push failures are
// only reported. The returned error joins the store failures.
func (s *FanoutService) NotifyAudience(ctx context.Context, ev AudienceEvent) (*FanoutReport, error) {
	if ev.Request == nil {
		return nil, validationErr("audience event without request")
	}

	audience, err := s.Audience(ctx, ev)
	if err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, ev.Request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request author: %w", err)
	}
	input := notificationFor(ev, author)

	report := &FanoutReport{Kind: ev.Kind, Recipients: make([]RecipientReport, 0, len(audience))}
	var errs []error
	for _, userID := range audience {
		rr := RecipientReport{UserID: userID}

		notif, outcomes, err := s.notifications.Notify(ctx, userID, input)
		if err != nil {
			rr.Error = err.Error()
			errs = append(errs, fmt.Errorf("notify %s: %w", userID.Hex(), err))
			logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to store notification")
		} else {
			rr.NotificationID = notif.ID
			rr.Deliveries = outcomes
			report.Notified++
			for _, o := range outcomes {
				if o.Delivered {
					report.PushDelivered++
				} else {
					report.PushFailed++
				}
			}
		}
		report.Recipients = append(report.Recipients, rr)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":     ev.Request.ID.Hex(),
		"kind":           ev.Kind,
		"audience":       len(audience),
		"notified":       report.Notified,
		"push_delivered": report.PushDelivered,
		"push_failed":    report.PushFailed,
	}).Info("Audience notified")

	return report, errors.Join(errs...)
}

func notificationFor(ev AudienceEvent, author *models.User) NotificationInput {
	in := NotificationInput{
		Type: models.NotifTypePrayerRequest,
		Text: preview(ev.Request.Text),
		Link: "/prayer-requests/" + ev.Request.ID.Hex(),
	}
	name := author.Name
	if name == "" {
		name = "Someone"
	}

	switch ev.Kind {
	case EventNewPrivateRequest:
		in.Title = "Your private prayer request was saved"
	case EventNewGroupSharedRequest:
		in.Title = fmt.Sprintf("%s shared a prayer request with your group", name)
	default:
		in.Title = fmt.Sprintf("%s posted a new prayer request", name)
	}
	return in
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength-1]) + "…"
}
