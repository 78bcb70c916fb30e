package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slotly-service/api"
	"slotly-service/internal/lock"
	"slotly-service/internal/models"
	"slotly-service/internal/schedule"
	"slotly-service/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// lookAhead is the minimum distance between "now" and the earliest
// bookable slot when resolving today's schedule.
const lookAhead = 30 * time.Minute

const bookingLockTTL = 10 * time.Second

type Service struct {
	store    Store
	locker   lock.Locker
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store Store, locker lock.Locker) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		validate: validator.New(),
		now:      time.Now,
	}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Hosts
	CreateHostTx(ctx context.Context, tx *sql.Tx, host *models.Host) error
	GetHost(ctx context.Context, hostID string) (*models.Host, error)
	GetHostByUsername(ctx context.Context, username string) (*models.Host, error)

	// Availability
	UpsertAvailabilityTx(ctx context.Context, tx *sql.Tx, day *models.WeeklyAvailability) error
	GetAvailability(ctx context.Context, hostID string) ([]models.WeeklyAvailability, error)

	// Event types
	CreateEventType(ctx context.Context, et *models.EventType) error
	GetEventType(ctx context.Context, id string) (*models.EventType, error)
	ListEventTypes(ctx context.Context, hostID string, activeOnly bool) ([]models.EventType, error)
	UpdateEventType(ctx context.Context, et *models.EventType) error
	DeactivateEventType(ctx context.Context, id string) error

	// Bookings
	CreateBookingTx(ctx context.Context, tx *sql.Tx, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, hostID string, statuses []models.BookingStatus, from, to *time.Time) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
}

// Hosts

func (s *Service) RegisterHost(ctx context.Context, req *api.HostCreateRequest) (*api.HostResponse, error) {
	const op = "service.RegisterHost"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, response.ErrValidation)
	}

	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("%s: invalid timezone %q: %w", op, req.Timezone, response.ErrValidation)
	}

	host := &models.Host{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Name:     req.Name,
		Username: req.Username,
		Timezone: req.Timezone,
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.store.CreateHostTx(ctx, tx, host); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, day := range models.DefaultWeek(host.ID) {
		if err := s.store.UpsertAvailabilityTx(ctx, tx, &day); err != nil {
			return nil, fmt.Errorf("%s: seed availability: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return &api.HostResponse{
		ID:       host.ID,
		Email:    host.Email,
		Name:     host.Name,
		Username: host.Username,
		Timezone: host.Timezone,
	}, nil
}

func (s *Service) GetHostProfile(ctx context.Context, username string) (*api.HostProfileResponse, error) {
	const op = "service.GetHostProfile"

	host, err := s.store.GetHostByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	eventTypes, err := s.store.ListEventTypes(ctx, host.ID, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.EventTypeResponse, 0, len(eventTypes))
	for _, et := range eventTypes {
		result = append(result, toEventTypeResponse(&et))
	}

	return &api.HostProfileResponse{
		Username:   host.Username,
		Name:       host.Name,
		Timezone:   host.Timezone,
		EventTypes: result,
	}, nil
}

// Availability

func (s *Service) GetAvailability(ctx context.Context, hostID string) ([]api.AvailabilityDay, error) {
	const op = "service.GetAvailability"

	week, err := s.store.GetAvailability(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.AvailabilityDay, 0, len(week))
	for _, day := range week {
		result = append(result, api.AvailabilityDay{
			DayOfWeek: day.DayOfWeek,
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
			Enabled:   day.Enabled,
		})
	}

	return result, nil
}

// ReplaceAvailability is the full-week replace: every submitted day is
// upserted by (host, weekday) in one transaction, keeping at most one row
// per weekday.
func (s *Service) ReplaceAvailability(ctx context.Context, hostID string, req *api.AvailabilityUpdateRequest) ([]api.AvailabilityDay, error) {
	const op = "service.ReplaceAvailability"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, response.ErrValidation)
	}

	seen := make(map[int]bool, len(req.Days))
	for _, day := range req.Days {
		if seen[day.DayOfWeek] {
			return nil, fmt.Errorf("%s: duplicate day_of_week %d: %w", op, day.DayOfWeek, response.ErrValidation)
		}
		seen[day.DayOfWeek] = true

		start, err := schedule.ParseClock(day.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		end, err := schedule.ParseClock(day.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if day.Enabled && start >= end {
			return nil, fmt.Errorf("%s: day %d start is not before end: %w", op, day.DayOfWeek, response.ErrValidation)
		}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for _, day := range req.Days {
		row := &models.WeeklyAvailability{
			HostID:    hostID,
			DayOfWeek: day.DayOfWeek,
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
			Enabled:   day.Enabled,
		}
		if err := s.store.UpsertAvailabilityTx(ctx, tx, row); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetAvailability(ctx, hostID)
}

// Event types

func (s *Service) CreateEventType(ctx context.Context, hostID string, req *api.EventTypeRequest) (*api.EventTypeResponse, error) {
	const op = "service.CreateEventType"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, response.ErrValidation)
	}

	et := &models.EventType{
		ID:               uuid.NewString(),
		HostID:           hostID,
		Name:             req.Name,
		Description:      req.Description,
		Duration:         req.Duration,
		BeforeBuffer:     req.BeforeBuffer,
		AfterBuffer:      req.AfterBuffer,
		Color:            req.Color,
		Location:         req.Location,
		RequiresApproval: req.RequiresApproval,
		IsActive:         true,
	}

	if err := s.store.CreateEventType(ctx, et); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toEventTypeResponse(et)
	return &resp, nil
}

func (s *Service) GetEventType(ctx context.Context, hostID, id string) (*api.EventTypeResponse, error) {
	const op = "service.GetEventType"

	et, err := s.store.GetEventType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if et.HostID != hostID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	resp := toEventTypeResponse(et)
	return &resp, nil
}

func (s *Service) ListEventTypes(ctx context.Context, hostID string) ([]api.EventTypeResponse, error) {
	const op = "service.ListEventTypes"

	eventTypes, err := s.store.ListEventTypes(ctx, hostID, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.EventTypeResponse, 0, len(eventTypes))
	for _, et := range eventTypes {
		result = append(result, toEventTypeResponse(&et))
	}

	return result, nil
}

func (s *Service) UpdateEventType(ctx context.Context, hostID, id string, req *api.EventTypeRequest) (*api.EventTypeResponse, error) {
	const op = "service.UpdateEventType"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, response.ErrValidation)
	}

	et, err := s.store.GetEventType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if et.HostID != hostID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	et.Name = req.Name
	et.Description = req.Description
	et.Duration = req.Duration
	et.BeforeBuffer = req.BeforeBuffer
	et.AfterBuffer = req.AfterBuffer
	et.Color = req.Color
	et.Location = req.Location
	et.RequiresApproval = req.RequiresApproval

	if err := s.store.UpdateEventType(ctx, et); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toEventTypeResponse(et)
	return &resp, nil
}

func (s *Service) DeactivateEventType(ctx context.Context, hostID, id string) error {
	const op = "service.DeactivateEventType"

	et, err := s.store.GetEventType(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if et.HostID != hostID {
		return fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	if err := s.store.DeactivateEventType(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toEventTypeResponse(et *models.EventType) api.EventTypeResponse {
	return api.EventTypeResponse{
		ID:               et.ID,
		HostID:           et.HostID,
		Name:             et.Name,
		Description:      et.Description,
		Duration:         et.Duration,
		BeforeBuffer:     et.BeforeBuffer,
		AfterBuffer:      et.AfterBuffer,
		Color:            et.Color,
		Location:         et.Location,
		RequiresApproval: et.RequiresApproval,
		IsActive:         et.IsActive,
	}
}
