package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"slotly-service/api"
	"slotly-service/internal/models"
	"slotly-service/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps everything in memory and reproduces the store's conflict
// guard so booking scenarios can run without postgres. Transactions come
// from sqlmock purely to satisfy the *sql.Tx plumbing.
type fakeStore struct {
	db *sql.DB

	hosts        map[string]*models.Host
	availability map[string][]models.WeeklyAvailability
	eventTypes   map[string]*models.EventType
	bookings     map[string]*models.Booking
}

func newFakeStore(db *sql.DB) *fakeStore {
	return &fakeStore{
		db:           db,
		hosts:        make(map[string]*models.Host),
		availability: make(map[string][]models.WeeklyAvailability),
		eventTypes:   make(map[string]*models.EventType),
		bookings:     make(map[string]*models.Booking),
	}
}

func (f *fakeStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeStore) CreateHostTx(_ context.Context, _ *sql.Tx, host *models.Host) error {
	for _, h := range f.hosts {
		if h.Username == host.Username || h.Email == host.Email {
			return response.ErrConflict
		}
	}
	f.hosts[host.ID] = host
	return nil
}

func (f *fakeStore) GetHost(_ context.Context, hostID string) (*models.Host, error) {
	h, ok := f.hosts[hostID]
	if !ok {
		return nil, response.ErrNotFound
	}
	return h, nil
}

func (f *fakeStore) GetHostByUsername(_ context.Context, username string) (*models.Host, error) {
	for _, h := range f.hosts {
		if h.Username == username {
			return h, nil
		}
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) UpsertAvailabilityTx(_ context.Context, _ *sql.Tx, day *models.WeeklyAvailability) error {
	week := f.availability[day.HostID]
	for i := range week {
		if week[i].DayOfWeek == day.DayOfWeek {
			week[i] = *day
			return nil
		}
	}
	f.availability[day.HostID] = append(week, *day)
	return nil
}

func (f *fakeStore) GetAvailability(_ context.Context, hostID string) ([]models.WeeklyAvailability, error) {
	return f.availability[hostID], nil
}

func (f *fakeStore) CreateEventType(_ context.Context, et *models.EventType) error {
	f.eventTypes[et.ID] = et
	return nil
}

func (f *fakeStore) GetEventType(_ context.Context, id string) (*models.EventType, error) {
	et, ok := f.eventTypes[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return et, nil
}

func (f *fakeStore) ListEventTypes(_ context.Context, hostID string, activeOnly bool) ([]models.EventType, error) {
	var result []models.EventType
	for _, et := range f.eventTypes {
		if et.HostID != hostID {
			continue
		}
		if activeOnly && !et.IsActive {
			continue
		}
		result = append(result, *et)
	}
	return result, nil
}

func (f *fakeStore) UpdateEventType(_ context.Context, et *models.EventType) error {
	if _, ok := f.eventTypes[et.ID]; !ok {
		return response.ErrNotFound
	}
	f.eventTypes[et.ID] = et
	return nil
}

func (f *fakeStore) DeactivateEventType(_ context.Context, id string) error {
	et, ok := f.eventTypes[id]
	if !ok {
		return response.ErrNotFound
	}
	et.IsActive = false
	return nil
}

// CreateBookingTx mirrors the real store's guard: a half-open overlap with
// any live booking of the same host rejects the insert.
func (f *fakeStore) CreateBookingTx(_ context.Context, _ *sql.Tx, b *models.Booking) error {
	for _, existing := range f.bookings {
		if existing.HostID != b.HostID {
			continue
		}
		if existing.Status != models.BookingPending && existing.Status != models.BookingConfirmed {
			continue
		}
		if existing.StartTime.Before(b.EndTime) && existing.EndTime.After(b.StartTime) {
			return response.ErrConflict
		}
	}
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBookings(_ context.Context, hostID string, statuses []models.BookingStatus, from, to *time.Time) ([]models.Booking, error) {
	var result []models.Booking
	for _, b := range f.bookings {
		if b.HostID != hostID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if b.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if from != nil && b.StartTime.Before(*from) {
			continue
		}
		if to != nil && !b.StartTime.Before(*to) {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

func (f *fakeStore) UpdateBookingStatus(_ context.Context, id string, status models.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return response.ErrNotFound
	}
	b.Status = status
	return nil
}

type fakeLocker struct {
	acquired bool
	locks    int
	unlocks  int
}

func (f *fakeLocker) Lock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	f.locks++
	return f.acquired, nil
}

func (f *fakeLocker) Unlock(_ context.Context, _ string) error {
	f.unlocks++
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeLocker, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newFakeStore(db)
	locker := &fakeLocker{acquired: true}
	svc := NewService(store, locker)

	return svc, store, locker, mock
}

func seedHost(store *fakeStore) *models.Host {
	host := &models.Host{
		ID:       "host-1",
		Email:    "ana@example.com",
		Name:     "Ana",
		Username: "ana",
		Timezone: "UTC",
	}
	store.hosts[host.ID] = host
	store.availability[host.ID] = models.DefaultWeek(host.ID)
	return host
}

func seedEventType(store *fakeStore, hostID string) *models.EventType {
	et := &models.EventType{
		ID:       "et-1",
		HostID:   hostID,
		Name:     "Intro call",
		Duration: 30,
		IsActive: true,
	}
	store.eventTypes[et.ID] = et
	return et
}

// monday is a fixed reference day well in the future of the tests' "now".
const monday = "2025-03-10"

func fixedNow(svc *Service, t time.Time) {
	svc.now = func() time.Time { return t }
}

func TestResolveSlots_OpenDay(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	resp, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	require.Len(t, resp.Slots, 16)
	require.Equal(t, "09:00", resp.Slots[0])
	require.Equal(t, "16:30", resp.Slots[15])
	require.Equal(t, "UTC", resp.Timezone)
}

func TestResolveSlots_DisabledDayIsEmptyNotError(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	// Sunday is disabled in the default week.
	resp, err := svc.ResolveSlots(context.Background(), et.ID, "2025-03-09", "")
	require.NoError(t, err)
	require.Empty(t, resp.Slots)
}

func TestResolveSlots_InactiveEventType(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)
	et.IsActive = false

	_, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestResolveSlots_UnknownEventType(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	seedHost(store)

	_, err := svc.ResolveSlots(context.Background(), "nope", monday, "")
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestResolveSlots_BookedStartRemoved(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	store.bookings["b-1"] = &models.Booking{
		ID:        "b-1",
		HostID:    host.ID,
		StartTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Status:    models.BookingConfirmed,
	}

	resp, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	require.Len(t, resp.Slots, 15)
	require.NotContains(t, resp.Slots, "09:00")
	require.Equal(t, "09:30", resp.Slots[0])
}

// A booking off the slot grid is not removed by the resolver; only the
// commit-time overlap check catches it. This pins the documented behavior.
func TestResolveSlots_MisalignedBookingNotFiltered(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	store.bookings["b-1"] = &models.Booking{
		ID:        "b-1",
		HostID:    host.ID,
		StartTime: time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC),
		Status:    models.BookingConfirmed,
	}

	resp, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	require.Len(t, resp.Slots, 16)
	require.Contains(t, resp.Slots, "09:00")
	require.Contains(t, resp.Slots, "09:30")
}

func TestResolveSlots_CancelledBookingIgnored(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	store.bookings["b-1"] = &models.Booking{
		ID:        "b-1",
		HostID:    host.ID,
		StartTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Status:    models.BookingCancelled,
	}

	resp, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	require.Len(t, resp.Slots, 16)
	require.Contains(t, resp.Slots, "09:00")
}

func TestResolveSlots_TodayLookAhead(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)
	et.Duration = 45

	// 45-minute grid from 09:00 lands on 17:15 with an 18:00 window end.
	store.availability[host.ID] = []models.WeeklyAvailability{
		{HostID: host.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Enabled: true},
	}

	fixedNow(svc, time.Date(2025, 3, 10, 16, 45, 0, 0, time.UTC))

	resp, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)

	// 16:45 + 30m look-ahead: everything before 17:15 is gone, 17:15 stays.
	require.Equal(t, []string{"17:15"}, resp.Slots)
}

func TestResolveSlots_Idempotent(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	fixedNow(svc, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	first, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	second, err := svc.ResolveSlots(context.Background(), et.ID, monday, "")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveSlots_BadGuestTimezone(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)

	_, err := svc.ResolveSlots(context.Background(), et.ID, monday, "Mars/Olympus")
	require.ErrorIs(t, err, response.ErrValidation)
}

func validBookingRequest() *api.BookingRequest {
	return &api.BookingRequest{
		EventTypeID: "et-1",
		GuestName:   "Bob",
		GuestEmail:  "bob@example.com",
		StartTime:   "2025-03-10T10:00:00Z",
		Timezone:    "UTC",
	}
}

func TestCreateBooking_DirectConfirm(t *testing.T) {
	svc, store, locker, mock := newTestService(t)
	host := seedHost(store)
	seedEventType(store, host.ID)

	mock.ExpectBegin()
	mock.ExpectCommit()

	booking, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.NoError(t, err)
	require.Equal(t, string(models.BookingConfirmed), booking.Status)
	require.Equal(t, host.ID, booking.HostID)
	require.Equal(t, booking.StartTime.Add(30*time.Minute), booking.EndTime)
	require.Equal(t, 1, locker.locks)
	require.Equal(t, 1, locker.unlocks)
}

func TestCreateBooking_ApprovalRequiredStartsPending(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)
	et.RequiresApproval = true

	mock.ExpectBegin()
	mock.ExpectCommit()

	booking, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.NoError(t, err)
	require.Equal(t, string(models.BookingPending), booking.Status)
}

func TestCreateBooking_ConflictSurfacedVerbatim(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	host := seedHost(store)
	seedEventType(store, host.ID)

	store.bookings["existing"] = &models.Booking{
		ID:        "existing",
		HostID:    host.ID,
		StartTime: time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC),
		Status:    models.BookingConfirmed,
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.ErrorIs(t, err, response.ErrConflict)
	require.Len(t, store.bookings, 1)
}

// Two guests racing for the same slot: exactly one booking lands, the other
// gets a Conflict.
func TestCreateBooking_SameSlotTwice(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	host := seedHost(store)
	seedEventType(store, host.ID)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	first, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.NoError(t, err)

	req := validBookingRequest()
	req.GuestName = "Carol"
	req.GuestEmail = "carol@example.com"

	_, err = svc.CreateBooking(context.Background(), req)
	require.ErrorIs(t, err, response.ErrConflict)

	require.Len(t, store.bookings, 1)
	require.Equal(t, first.ID, store.bookings[first.ID].ID)
}

func TestCreateBooking_LockedHost(t *testing.T) {
	svc, store, locker, _ := newTestService(t)
	host := seedHost(store)
	seedEventType(store, host.ID)
	locker.acquired = false

	_, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateBooking_Validation(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	seedEventType(store, host.ID)

	cases := []struct {
		name   string
		mutate func(*api.BookingRequest)
	}{
		{"missing guest name", func(r *api.BookingRequest) { r.GuestName = "" }},
		{"bad email", func(r *api.BookingRequest) { r.GuestEmail = "not-an-email" }},
		{"bad start time", func(r *api.BookingRequest) { r.StartTime = "10 o'clock" }},
		{"bad timezone", func(r *api.BookingRequest) { r.Timezone = "Mars/Olympus" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validBookingRequest()
			tc.mutate(req)
			_, err := svc.CreateBooking(context.Background(), req)
			require.ErrorIs(t, err, response.ErrValidation)
		})
	}

	require.Empty(t, store.bookings)
}

func TestCreateBooking_InactiveEventType(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	et := seedEventType(store, host.ID)
	et.IsActive = false

	_, err := svc.CreateBooking(context.Background(), validBookingRequest())
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestUpdateBookingStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    models.BookingStatus
		to      models.BookingStatus
		allowed bool
	}{
		{models.BookingPending, models.BookingConfirmed, true},
		{models.BookingPending, models.BookingCancelled, true},
		{models.BookingPending, models.BookingCompleted, false},
		{models.BookingPending, models.BookingNoShow, false},
		{models.BookingConfirmed, models.BookingCancelled, true},
		{models.BookingConfirmed, models.BookingCompleted, true},
		{models.BookingConfirmed, models.BookingNoShow, true},
		{models.BookingConfirmed, models.BookingPending, false},
		{models.BookingCancelled, models.BookingConfirmed, false},
		{models.BookingCompleted, models.BookingCancelled, false},
		{models.BookingNoShow, models.BookingConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			svc, store, _, _ := newTestService(t)
			host := seedHost(store)
			store.bookings["b-1"] = &models.Booking{ID: "b-1", HostID: host.ID, Status: tc.from}

			booking, err := svc.UpdateBookingStatus(context.Background(), host.ID, "b-1", string(tc.to))
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, string(tc.to), booking.Status)
			} else {
				require.ErrorIs(t, err, response.ErrInvalidTransition)
			}
		})
	}
}

func TestUpdateBookingStatus_WrongHost(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	store.bookings["b-1"] = &models.Booking{ID: "b-1", HostID: host.ID, Status: models.BookingPending}

	_, err := svc.UpdateBookingStatus(context.Background(), "someone-else", "b-1", string(models.BookingConfirmed))
	require.ErrorIs(t, err, response.ErrUnauthorized)
}

func TestUpdateBookingStatus_UnknownStatus(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)
	store.bookings["b-1"] = &models.Booking{ID: "b-1", HostID: host.ID, Status: models.BookingPending}

	_, err := svc.UpdateBookingStatus(context.Background(), host.ID, "b-1", "SNOOZED")
	require.ErrorIs(t, err, response.ErrValidation)
}

func TestRegisterHost_SeedsDefaultWeek(t *testing.T) {
	svc, store, _, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	host, err := svc.RegisterHost(context.Background(), &api.HostCreateRequest{
		Email:    "ana@example.com",
		Name:     "Ana",
		Username: "ana",
		Timezone: "UTC",
	})
	require.NoError(t, err)

	week := store.availability[host.ID]
	require.Len(t, week, 7)
	for _, day := range week {
		require.Equal(t, "09:00", day.StartTime)
		require.Equal(t, "17:00", day.EndTime)
		if day.DayOfWeek == 0 || day.DayOfWeek == 6 {
			require.False(t, day.Enabled)
		} else {
			require.True(t, day.Enabled)
		}
	}
}

func TestRegisterHost_BadTimezone(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.RegisterHost(context.Background(), &api.HostCreateRequest{
		Email:    "ana@example.com",
		Name:     "Ana",
		Username: "ana",
		Timezone: "Mars/Olympus",
	})
	require.ErrorIs(t, err, response.ErrValidation)
}

func TestReplaceAvailability_Validation(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	host := seedHost(store)

	cases := []struct {
		name string
		days []api.AvailabilityDay
	}{
		{"duplicate weekday", []api.AvailabilityDay{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", Enabled: true},
			{DayOfWeek: 1, StartTime: "10:00", EndTime: "18:00", Enabled: true},
		}},
		{"inverted window", []api.AvailabilityDay{
			{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00", Enabled: true},
		}},
		{"malformed clock", []api.AvailabilityDay{
			{DayOfWeek: 1, StartTime: "9am", EndTime: "17:00", Enabled: true},
		}},
		{"weekday out of range", []api.AvailabilityDay{
			{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00", Enabled: true},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReplaceAvailability(context.Background(), host.ID, &api.AvailabilityUpdateRequest{Days: tc.days})
			require.ErrorIs(t, err, response.ErrValidation)
		})
	}
}

func TestReplaceAvailability_DisabledDayMayBeInverted(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	host := seedHost(store)

	mock.ExpectBegin()
	mock.ExpectCommit()

	// Window ordering is only enforced for enabled days.
	days, err := svc.ReplaceAvailability(context.Background(), host.ID, &api.AvailabilityUpdateRequest{
		Days: []api.AvailabilityDay{
			{DayOfWeek: 0, StartTime: "00:00", EndTime: "00:00", Enabled: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, days, 7)
}

func TestReplaceAvailability_UpsertsByWeekday(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	host := seedHost(store)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.ReplaceAvailability(context.Background(), host.ID, &api.AvailabilityUpdateRequest{
		Days: []api.AvailabilityDay{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", Enabled: true},
		},
	})
	require.NoError(t, err)

	week := store.availability[host.ID]
	require.Len(t, week, 7)
	for _, day := range week {
		if day.DayOfWeek == 1 {
			require.Equal(t, "08:00", day.StartTime)
			require.Equal(t, "12:00", day.EndTime)
		}
	}
}
