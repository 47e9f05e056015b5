package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/Dias221467/Prayer_Manager/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fanoutTimeout bounds an announcement once it is detached from the caller.
const fanoutTimeout = 2 * time.Minute

// CreateRequestInput carries a new prayer request.
type CreateRequestInput struct {
	Text   string   `json:"text"`
	Shares []string `json:"shares"`
	Notify bool     `json:"notify"`
}

// UpdateRequestInput carries a partial update. A nil Shares keeps the
// current visibility and share rows.
type UpdateRequestInput struct {
	Text   *string               `json:"text,omitempty"`
	Status *models.RequestStatus `json:"status,omitempty"`
	Shares []string              `json:"shares,omitempty"`
	Notify bool                  `json:"notify"`
}

// PrayerRequestService owns prayer requests, their share ledger and the
// visibility rules applied when other users read them.
type PrayerRequestService struct {
	repo        PrayerRequestStore
	shares      ShareStore
	memberships *MembershipService
	fanout      *FanoutService
	tx          Transactor
}

// NewPrayerRequestService creates a new instance of PrayerRequestService.
func NewPrayerRequestService(repo PrayerRequestStore, shares ShareStore, memberships *MembershipService, fanout *FanoutService, tx Transactor) *PrayerRequestService {
	return &PrayerRequestService{
		repo:        repo,
		shares:      shares,
		memberships: memberships,
		fanout:      fanout,
		tx:          tx,
	}
}

// CreateRequest stores a request with its share rows and, when asked,
// notifies the audience implied by its visibility.
func (s *PrayerRequestService) CreateRequest(ctx context.Context, authorIDHex string, in CreateRequestInput) (*models.PrayerRequest, *FanoutReport, error) {
	authorID, err := parseID(authorIDHex)
	if err != nil {
		return nil, nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, nil, validationErr("prayer request text is required")
	}
	sel, err := models.ParseShareTargets(in.Shares)
	if err != nil {
		return nil, nil, validationErr("%v", err)
	}
	if err := s.requireGroupAccess(ctx, authorID, sel.GroupIDs); err != nil {
		return nil, nil, err
	}

	req := &models.PrayerRequest{
		UserID:     authorID,
		Text:       text,
		Status:     models.StatusInProgress,
		Visibility: sel.Visibility,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		created, err := s.repo.CreateRequest(ctx, req)
		if err != nil {
			return err
		}
		req = created
		return s.shares.CreateShares(ctx, shareRows(req, sel.GroupIDs))
	})
	if err != nil {
		logger.Log.WithError(err).Error("Service failed to create prayer request")
		return nil, nil, fmt.Errorf("failed to create prayer request: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id": req.ID.Hex(),
		"visibility": req.Visibility,
	}).Info("Prayer request created")

	if !in.Notify {
		return req, nil, nil
	}
	return req, s.announce(ctx, req, sel.Visibility, sel.GroupIDs), nil
}

// UpdateRequest applies text/status changes and, when Shares is given,
// replaces the share ledger. Visibility and share rows are written in one
// transaction so readers never see them disagree.
func (s *PrayerRequestService) UpdateRequest(ctx context.Context, requestIDHex, actorIDHex string, in UpdateRequestInput) (*models.PrayerRequest, *FanoutReport, error) {
	requestID, err := parseID(requestIDHex)
	if err != nil {
		return nil, nil, err
	}
	actorID, err := parseID(actorIDHex)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.UserID != actorID {
		return nil, nil, ErrForbidden
	}

	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, nil, validationErr("prayer request text cannot be empty")
		}
		req.Text = text
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, nil, validationErr("unknown status %q", *in.Status)
		}
		req.Status = *in.Status
	}

	var sel *models.ShareSelection
	if in.Shares != nil {
		parsed, err := models.ParseShareTargets(in.Shares)
		if err != nil {
			return nil, nil, validationErr("%v", err)
		}
		if err := s.requireGroupAccess(ctx, actorID, parsed.GroupIDs); err != nil {
			return nil, nil, err
		}
		sel = &parsed
	}

	var added []primitive.ObjectID
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if sel != nil {
			var err error
			added, err = s.syncShares(ctx, req, *sel)
			if err != nil {
				return err
			}
			req.Visibility = sel.Visibility
		}
		return s.repo.UpdateRequest(ctx, req)
	})
	if err != nil {
		logger.Log.WithError(err).WithField("request_id", requestIDHex).Error("Failed to update prayer request")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to update prayer request: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id": requestIDHex,
		"visibility": req.Visibility,
	}).Info("Prayer request updated")

	if !in.Notify || sel == nil {
		return req, nil, nil
	}
	// Only newly added groups hear about a re-shared request.
	if sel.Visibility == models.VisibilityShared && len(added) == 0 {
		return req, nil, nil
	}
	return req, s.announce(ctx, req, sel.Visibility, added), nil
}

// syncShares brings req's share rows in line with sel and returns the group
// ids that were added.
func (s *PrayerRequestService) syncShares(ctx context.Context, req *models.PrayerRequest, sel models.ShareSelection) ([]primitive.ObjectID, error) {
	if sel.Visibility != models.VisibilityShared {
		return nil, s.shares.DeleteSharesByRequest(ctx, req.ID)
	}

	existing, err := s.shares.GetSharesByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	current := make(map[primitive.ObjectID]bool, len(existing))
	var staleUsers bool
	for _, sh := range existing {
		if sh.SharedWithType == models.SharedWithGroup {
			current[sh.SharedWithID] = true
		} else {
			staleUsers = true
		}
	}
	desired := make(map[primitive.ObjectID]bool, len(sel.GroupIDs))
	var added []primitive.ObjectID
	for _, id := range sel.GroupIDs {
		desired[id] = true
		if !current[id] {
			added = append(added, id)
		}
	}
	var removed []primitive.ObjectID
	for id := range current {
		if !desired[id] {
			removed = append(removed, id)
		}
	}

	if staleUsers {
		// Group shares are the only targets an update can express; rebuild.
		if err := s.shares.DeleteSharesByRequest(ctx, req.ID); err != nil {
			return nil, err
		}
		if err := s.shares.CreateShares(ctx, shareRows(req, sel.GroupIDs)); err != nil {
			return nil, err
		}
		return added, nil
	}

	if err := s.shares.DeleteGroupShares(ctx, req.ID, removed); err != nil {
		return nil, err
	}
	if err := s.shares.CreateShares(ctx, shareRows(req, added)); err != nil {
		return nil, err
	}
	return added, nil
}

// GetRequest returns a request if viewerID may see it.
func (s *PrayerRequestService) GetRequest(ctx context.Context, requestIDHex, viewerIDHex string) (*models.PrayerRequest, error) {
	requestID, err := parseID(requestIDHex)
	if err != nil {
		return nil, err
	}
	viewerID, err := parseID(viewerIDHex)
	if err != nil {
		return nil, err
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	ok, err := s.canView(ctx, viewerID, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Hidden requests look absent to the viewer.
		return nil, ErrNotFound
	}
	return req, nil
}

// GetShares lists the share rows of a request for its owner.
func (s *PrayerRequestService) GetShares(ctx context.Context, requestIDHex, actorIDHex string) ([]models.PrayerRequestShare, error) {
	requestID, err := parseID(requestIDHex)
	if err != nil {
		return nil, err
	}
	actorID, err := parseID(actorIDHex)
	if err != nil {
		return nil, err
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID {
		return nil, ErrForbidden
	}
	return s.shares.GetSharesByRequest(ctx, requestID)
}

// DeleteRequest removes a request and its share rows.
func (s *PrayerRequestService) DeleteRequest(ctx context.Context, requestIDHex, actorIDHex string) error {
	requestID, err := parseID(requestIDHex)
	if err != nil {
		return err
	}
	actorID, err := parseID(actorIDHex)
	if err != nil {
		return err
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != actorID {
		return ErrForbidden
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.shares.DeleteSharesByRequest(ctx, requestID); err != nil {
			return err
		}
		return s.repo.DeleteRequest(ctx, requestID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete prayer request: %w", err)
	}
	logger.Log.WithField("request_id", requestIDHex).Info("Prayer request deleted")
	return nil
}

// ResolveVisibleRequests returns the requests of target that viewer may see:
// IN_PROGRESS PUBLIC ones, IN_PROGRESS ones shared with a group both are
// ACCEPTED members of, and every PRIVATE one when viewer is target. Newest
// update first.
func (s *PrayerRequestService) ResolveVisibleRequests(ctx context.Context, viewerIDHex, targetIDHex string) ([]models.PrayerRequest, error) {
	viewerID, err := parseID(viewerIDHex)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID(targetIDHex)
	if err != nil {
		return nil, err
	}

	mutual, err := s.memberships.MutualGroupIDs(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}

	visible, err := s.repo.FindByUser(ctx, targetID, repository.RequestFilter{
		Status:       models.StatusInProgress,
		Visibilities: []models.Visibility{models.VisibilityPublic},
	})
	if err != nil {
		return nil, err
	}

	if len(mutual) > 0 {
		sharedIDs, err := s.shares.RequestIDsSharedWithGroups(ctx, targetID, mutual)
		if err != nil {
			return nil, err
		}
		if len(sharedIDs) > 0 {
			shared, err := s.repo.FindByUser(ctx, targetID, repository.RequestFilter{
				Status:       models.StatusInProgress,
				Visibilities: []models.Visibility{models.VisibilityShared},
				IDs:          sharedIDs,
			})
			if err != nil {
				return nil, err
			}
			visible = append(visible, shared...)
		}
	}

	if viewerID == targetID {
		private, err := s.repo.FindByUser(ctx, targetID, repository.RequestFilter{
			Visibilities: []models.Visibility{models.VisibilityPrivate},
		})
		if err != nil {
			return nil, err
		}
		visible = append(visible, private...)
	}

	return dedupeByUpdated(visible), nil
}

// ListOwnRequests returns every request of userID regardless of status.
func (s *PrayerRequestService) ListOwnRequests(ctx context.Context, userIDHex string, status models.RequestStatus) ([]models.PrayerRequest, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, validationErr("unknown status %q", status)
	}
	return s.repo.FindByUser(ctx, userID, repository.RequestFilter{Status: status})
}

func (s *PrayerRequestService) canView(ctx context.Context, viewerID primitive.ObjectID, req *models.PrayerRequest) (bool, error) {
	if req.UserID == viewerID {
		return true, nil
	}
	// Other viewers only ever see active requests.
	if req.Status != models.StatusInProgress {
		return false, nil
	}
	switch req.Visibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityShared:
		mutual, err := s.memberships.MutualGroupIDs(ctx, viewerID, req.UserID)
		if err != nil || len(mutual) == 0 {
			return false, err
		}
		ids, err := s.shares.RequestIDsSharedWithGroups(ctx, req.UserID, mutual)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if id == req.ID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *PrayerRequestService) load(ctx context.Context, id primitive.ObjectID) (*models.PrayerRequest, error) {
	req, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prayer request: %w", err)
	}
	return req, nil
}

// requireGroupAccess rejects share targets the author is not an ACCEPTED member of.
func (s *PrayerRequestService) requireGroupAccess(ctx context.Context, authorID primitive.ObjectID, groupIDs []primitive.ObjectID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	mine, err := s.memberships.AcceptedGroupIDs(ctx, authorID)
	if err != nil {
		return err
	}
	if len(intersect(groupIDs, mine)) != len(groupIDs) {
		return ErrForbidden
	}
	return nil
}

func (s *PrayerRequestService) announce(ctx context.Context, req *models.PrayerRequest, v models.Visibility, groupIDs []primitive.ObjectID) *FanoutReport {
	ev := AudienceEvent{Request: req}
	switch v {
	case models.VisibilityPublic:
		ev.Kind = EventNewPublicRequest
	case models.VisibilityShared:
		ev.Kind = EventNewGroupSharedRequest
		ev.GroupIDs = groupIDs
	default:
		ev.Kind = EventNewPrivateRequest
	}

	// The request is already committed; a disconnecting client must not cut
	// the remaining recipients short.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fanoutTimeout)
	defer cancel()

	report, err := s.fanout.NotifyAudience(ctx, ev)
	if err != nil {
		logrus.WithError(err).WithField("request_id", req.ID.Hex()).Warn("Audience notification incomplete")
	}
	return report
}

func shareRows(req *models.PrayerRequest, groupIDs []primitive.ObjectID) []models.PrayerRequestShare {
	rows := make([]models.PrayerRequestShare, 0, len(groupIDs))
	for _, id := range groupIDs {
		rows = append(rows, models.PrayerRequestShare{
			PrayerRequestID: req.ID,
			SharedWithID:    id,
			SharedWithType:  models.SharedWithGroup,
			OwnerID:         req.UserID,
		})
	}
	return rows
}

func dedupeByUpdated(reqs []models.PrayerRequest) []models.PrayerRequest {
	seen := make(map[primitive.ObjectID]bool, len(reqs))
	out := make([]models.PrayerRequest, 0, len(reqs))
	for _, r := range reqs {
		if !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
