package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB is an in-memory stand-in for the Mongo collections. Every store call
// increments calls.
type memDB struct {
	mu    sync.Mutex
	calls int
	clock time.Time

	users         map[primitive.ObjectID]models.User
	groups        map[primitive.ObjectID]models.PrayerGroup
	memberships   []models.UserPrayerGroup
	requests      map[primitive.ObjectID]models.PrayerRequest
	shares        []models.PrayerRequestShare
	notifications []models.Notification
	devices       []models.Device
	reminders     map[primitive.ObjectID]models.Reminder

	failShares error
}

func newMemDB() *memDB {
	return &memDB{
		clock:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		users:     map[primitive.ObjectID]models.User{},
		groups:    map[primitive.ObjectID]models.PrayerGroup{},
		requests:  map[primitive.ObjectID]models.PrayerRequest{},
		reminders: map[primitive.ObjectID]models.Reminder{},
	}
}

func (db *memDB) enter() func() {
	db.mu.Lock()
	db.calls++
	return db.mu.Unlock
}

// tick advances the fake clock so updated_at ordering is deterministic.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) callCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls
}

type snapshot struct {
	requests    map[primitive.ObjectID]models.PrayerRequest
	shares      []models.PrayerRequestShare
	groups      map[primitive.ObjectID]models.PrayerGroup
	memberships []models.UserPrayerGroup
}

func (db *memDB) snapshot() snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := snapshot{
		requests:    make(map[primitive.ObjectID]models.PrayerRequest, len(db.requests)),
		shares:      append([]models.PrayerRequestShare(nil), db.shares...),
		groups:      make(map[primitive.ObjectID]models.PrayerGroup, len(db.groups)),
		memberships: append([]models.UserPrayerGroup(nil), db.memberships...),
	}
	for k, v := range db.requests {
		s.requests[k] = v
	}
	for k, v := range db.groups {
		s.groups[k] = v
	}
	return s
}

func (db *memDB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.requests = s.requests
	db.shares = s.shares
	db.groups = s.groups
	db.memberships = s.memberships
}

// memTx rolls back the request, share, group and membership tables when fn fails.
type memTx struct{ db *memDB }

func (t memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.db.snapshot()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type memUsers struct{ *memDB }

func (s memUsers) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	defer s.enter()()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return user, nil
}

func (s memUsers) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer s.enter()()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// --- groups ---

type memGroups struct{ *memDB }

func (s memGroups) CreateGroup(ctx context.Context, group *models.PrayerGroup) (*models.PrayerGroup, error) {
	defer s.enter()()
	group.ID = primitive.NewObjectID()
	group.CreatedAt = s.tick()
	group.UpdatedAt = group.CreatedAt
	s.groups[group.ID] = *group
	return group, nil
}

func (s memGroups) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerGroup, error) {
	defer s.enter()()
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

// --- memberships ---

type memMemberships struct{ *memDB }

func (s memMemberships) CreateMembership(ctx context.Context, m *models.UserPrayerGroup) (*models.UserPrayerGroup, error) {
	defer s.enter()()
	for _, e := range s.memberships {
		if e.UserID == m.UserID && e.PrayerGroupID == m.PrayerGroupID {
			return nil, repository.ErrDuplicate
		}
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = s.tick()
	m.UpdatedAt = m.CreatedAt
	s.memberships = append(s.memberships, *m)
	return m, nil
}

func (s memMemberships) GetMembership(ctx context.Context, userID, groupID primitive.ObjectID) (*models.UserPrayerGroup, error) {
	defer s.enter()()
	for _, e := range s.memberships {
		if e.UserID == userID && e.PrayerGroupID == groupID {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memMemberships) UpdateStatus(ctx context.Context, userID, groupID primitive.ObjectID, status models.MembershipStatus) error {
	defer s.enter()()
	for i, e := range s.memberships {
		if e.UserID == userID && e.PrayerGroupID == groupID {
			s.memberships[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s memMemberships) DeleteMembership(ctx context.Context, userID, groupID primitive.ObjectID) error {
	defer s.enter()()
	for i, e := range s.memberships {
		if e.UserID == userID && e.PrayerGroupID == groupID {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s memMemberships) AcceptedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer s.enter()()
	var out []primitive.ObjectID
	for _, e := range s.memberships {
		if e.UserID == userID && e.Status == models.MembershipAccepted {
			out = append(out, e.PrayerGroupID)
		}
	}
	return out, nil
}

func (s memMemberships) AcceptedMemberIDs(ctx context.Context, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer s.enter()()
	want := idSet(groupIDs)
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, e := range s.memberships {
		if want[e.PrayerGroupID] && e.Status == models.MembershipAccepted && !seen[e.UserID] {
			seen[e.UserID] = true
			out = append(out, e.UserID)
		}
	}
	return out, nil
}

func (s memMemberships) ListByGroupAndStatus(ctx context.Context, groupID primitive.ObjectID, status models.MembershipStatus) ([]models.UserPrayerGroup, error) {
	defer s.enter()()
	var out []models.UserPrayerGroup
	for _, e := range s.memberships {
		if e.PrayerGroupID == groupID && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- prayer requests ---

type memRequests struct{ *memDB }

func (s memRequests) CreateRequest(ctx context.Context, req *models.PrayerRequest) (*models.PrayerRequest, error) {
	defer s.enter()()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = s.tick()
	req.UpdatedAt = req.CreatedAt
	s.requests[req.ID] = *req
	return req, nil
}

func (s memRequests) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerRequest, error) {
	defer s.enter()()
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s memRequests) UpdateRequest(ctx context.Context, req *models.PrayerRequest) error {
	defer s.enter()()
	if _, ok := s.requests[req.ID]; !ok {
		return repository.ErrNotFound
	}
	req.UpdatedAt = s.tick()
	s.requests[req.ID] = *req
	return nil
}

func (s memRequests) DeleteRequest(ctx context.Context, id primitive.ObjectID) error {
	defer s.enter()()
	delete(s.requests, id)
	return nil
}

func (s memRequests) FindByUser(ctx context.Context, userID primitive.ObjectID, f repository.RequestFilter) ([]models.PrayerRequest, error) {
	defer s.enter()()
	ids := idSet(f.IDs)
	var out []models.PrayerRequest
	for _, r := range s.requests {
		if r.UserID != userID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if len(f.Visibilities) > 0 && !containsVisibility(f.Visibilities, r.Visibility) {
			continue
		}
		if f.IDs != nil && !ids[r.ID] {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// --- shares ---

type memShares struct{ *memDB }

func (s memShares) CreateShares(ctx context.Context, shares []models.PrayerRequestShare) error {
	defer s.enter()()
	if len(shares) == 0 {
		return nil
	}
	if s.failShares != nil {
		return s.failShares
	}
	for _, sh := range shares {
		sh.ID = primitive.NewObjectID()
		s.shares = append(s.shares, sh)
	}
	return nil
}

func (s memShares) GetSharesByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.PrayerRequestShare, error) {
	defer s.enter()()
	var out []models.PrayerRequestShare
	for _, sh := range s.shares {
		if sh.PrayerRequestID == requestID {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s memShares) DeleteSharesByRequest(ctx context.Context, requestID primitive.ObjectID) error {
	defer s.enter()()
	kept := s.shares[:0:0]
	for _, sh := range s.shares {
		if sh.PrayerRequestID != requestID {
			kept = append(kept, sh)
		}
	}
	s.shares = kept
	return nil
}

func (s memShares) DeleteGroupShares(ctx context.Context, requestID primitive.ObjectID, groupIDs []primitive.ObjectID) error {
	defer s.enter()()
	drop := idSet(groupIDs)
	kept := s.shares[:0:0]
	for _, sh := range s.shares {
		if sh.PrayerRequestID == requestID && sh.SharedWithType == models.SharedWithGroup && drop[sh.SharedWithID] {
			continue
		}
		kept = append(kept, sh)
	}
	s.shares = kept
	return nil
}

func (s memShares) RequestIDsSharedWithGroups(ctx context.Context, ownerID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer s.enter()()
	want := idSet(groupIDs)
	seen := map[primitive.ObjectID]bool{}
	out := []primitive.ObjectID{}
	for _, sh := range s.shares {
		if sh.OwnerID == ownerID && sh.SharedWithType == models.SharedWithGroup && want[sh.SharedWithID] && !seen[sh.PrayerRequestID] {
			seen[sh.PrayerRequestID] = true
			out = append(out, sh.PrayerRequestID)
		}
	}
	return out, nil
}

// --- notifications ---

type memNotifications struct {
	*memDB
	failFor map[primitive.ObjectID]bool
}

func (s memNotifications) CreateNotification(ctx context.Context, notif *models.Notification) error {
	defer s.enter()()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failFor[notif.UserID] {
		return errors.New("write failed")
	}
	notif.ID = primitive.NewObjectID()
	if notif.Status == "" {
		notif.Status = models.NotificationUnread
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = s.tick()
	}
	notif.UpdatedAt = notif.CreatedAt
	s.notifications = append(s.notifications, *notif)
	return nil
}

func (s memNotifications) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	defer s.enter()()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s memNotifications) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	defer s.enter()()
	for _, n := range s.notifications {
		if n.ID == id {
			n := n
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memNotifications) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	defer s.enter()()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Status = models.NotificationRead
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s memNotifications) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	defer s.enter()()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && s.notifications[i].Status == models.NotificationUnread {
			s.notifications[i].Status = models.NotificationRead
			n++
		}
	}
	return n, nil
}

func (s memNotifications) DeleteReadBefore(ctx context.Context, userID *primitive.ObjectID, cutoff time.Time) (int64, error) {
	defer s.enter()()
	var n int64
	kept := s.notifications[:0:0]
	for _, notif := range s.notifications {
		if (userID == nil || notif.UserID == *userID) && notif.Status == models.NotificationRead && notif.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, notif)
	}
	s.notifications = kept
	return n, nil
}

func (s memNotifications) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	defer s.enter()()
	var n int64
	for _, notif := range s.notifications {
		if notif.UserID == userID && notif.Status == models.NotificationUnread {
			n++
		}
	}
	return n, nil
}

func (s memNotifications) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	defer s.enter()()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- devices ---

type memDevices struct{ *memDB }

func (s memDevices) UpsertDevice(ctx context.Context, d *models.Device) (*models.Device, error) {
	defer s.enter()()
	now := s.tick()
	for i, e := range s.devices {
		if e.UserID == d.UserID && e.Endpoint == d.Endpoint {
			s.devices[i].Keys = d.Keys
			s.devices[i].Title = d.Title
			s.devices[i].UpdatedAt = now
			out := s.devices[i]
			return &out, nil
		}
	}
	d.ID = primitive.NewObjectID()
	d.CreatedAt = now
	d.UpdatedAt = now
	s.devices = append(s.devices, *d)
	return d, nil
}

func (s memDevices) GetDevice(ctx context.Context, userID primitive.ObjectID, endpoint string) (*models.Device, error) {
	defer s.enter()()
	for _, e := range s.devices {
		if e.UserID == userID && e.Endpoint == endpoint {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memDevices) GetDeviceByID(ctx context.Context, id primitive.ObjectID) (*models.Device, error) {
	defer s.enter()()
	for _, e := range s.devices {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memDevices) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Device, error) {
	defer s.enter()()
	var out []models.Device
	for _, e := range s.devices {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s memDevices) DeleteByEndpoint(ctx context.Context, userID primitive.ObjectID, endpoint string) error {
	defer s.enter()()
	for i, e := range s.devices {
		if e.UserID == userID && e.Endpoint == endpoint {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s memDevices) UpdateTitle(ctx context.Context, id primitive.ObjectID, title string) error {
	defer s.enter()()
	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].Title = title
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- reminders ---

type memReminders struct{ *memDB }

func (s memReminders) CreateReminder(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	defer s.enter()()
	r.ID = primitive.NewObjectID()
	s.reminders[r.ID] = *r
	return r, nil
}

func (s memReminders) GetReminderByID(ctx context.Context, id primitive.ObjectID) (*models.Reminder, error) {
	defer s.enter()()
	r, ok := s.reminders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s memReminders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Reminder, error) {
	defer s.enter()()
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s memReminders) ListAll(ctx context.Context) ([]models.Reminder, error) {
	defer s.enter()()
	var out []models.Reminder
	for _, r := range s.reminders {
		out = append(out, r)
	}
	return out, nil
}

func (s memReminders) MarkSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	defer s.enter()()
	r := s.reminders[id]
	r.LastSentAt = &at
	s.reminders[id] = r
	return nil
}

func (s memReminders) DeleteReminder(ctx context.Context, id primitive.ObjectID) error {
	defer s.enter()()
	delete(s.reminders, id)
	return nil
}

// --- push and realtime ---

type fakeSender struct {
	mu     sync.Mutex
	sent   map[string][]push.Payload
	errFor map[string]error
	onSend func()
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string][]push.Payload{}, errFor: map[string]error{}}
}

func (f *fakeSender) Send(ctx context.Context, device *models.Device, payload push.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend()
	}
	if err := f.errFor[device.Endpoint]; err != nil {
		return err
	}
	f.sent[device.Endpoint] = append(f.sent[device.Endpoint], payload)
	return nil
}

func (f *fakeSender) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[endpoint])
}

type fakePublisher struct {
	mu     sync.Mutex
	events map[primitive.ObjectID][]realtime.Event
}

func (f *fakePublisher) Publish(userID primitive.ObjectID, event realtime.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = map[primitive.ObjectID][]realtime.Event{}
	}
	f.events[userID] = append(f.events[userID], event)
	return 1
}

// --- harness ---

type harness struct {
	db            *memDB
	sender        *fakeSender
	publisher     *fakePublisher
	notifStore    memNotifications
	users         *UserService
	groups        *GroupService
	memberships   *MembershipService
	devices       *DeviceService
	notifications *NotificationService
	fanout        *FanoutService
	requests      *PrayerRequestService
	reminders     *ReminderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	h := &harness{
		db:         db,
		sender:     newFakeSender(),
		publisher:  &fakePublisher{},
		notifStore: memNotifications{memDB: db, failFor: map[primitive.ObjectID]bool{}},
	}
	tx := memTx{db: db}

	h.users = NewUserService(memUsers{db})
	h.groups = NewGroupService(memGroups{db}, memMemberships{db}, tx)
	h.memberships = NewMembershipService(memMemberships{db}, memGroups{db})
	h.devices = NewDeviceService(memDevices{db}, h.sender, 4, "/icon.png")
	h.notifications = NewNotificationService(h.notifStore, h.devices, h.publisher)
	h.notifications.now = func() time.Time { return db.clock }
	h.fanout = NewFanoutService(h.memberships, memUsers{db}, h.notifications)
	h.requests = NewPrayerRequestService(memRequests{db}, memShares{db}, h.memberships, h.fanout, tx)
	h.reminders = NewReminderService(memReminders{db}, h.notifications)
	return h
}

func (h *harness) user(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	u, err := h.users.CreateUser(context.Background(), &models.User{Name: name, Email: name + "@example.com"})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u.ID
}

// group creates a PUBLIC group owned by owner with members ACCEPTED.
func (h *harness) group(t *testing.T, owner primitive.ObjectID, members ...primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()
	g, err := h.groups.CreateGroup(ctx, owner.Hex(), &models.PrayerGroup{Name: "group"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, m := range members {
		if _, err := h.memberships.JoinGroup(ctx, m.Hex(), g.ID.Hex()); err != nil {
			t.Fatalf("join group: %v", err)
		}
	}
	return g.ID
}

func (h *harness) notificationsFor(userID primitive.ObjectID) []models.Notification {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	var out []models.Notification
	for _, n := range h.db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (h *harness) sharesOf(requestID primitive.ObjectID) []models.PrayerRequestShare {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	var out []models.PrayerRequestShare
	for _, sh := range h.db.shares {
		if sh.PrayerRequestID == requestID {
			out = append(out, sh)
		}
	}
	return out
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	m := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func containsVisibility(vs []models.Visibility, v models.Visibility) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

func requestIDs(reqs []models.PrayerRequest) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}
