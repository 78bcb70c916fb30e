package service

import (
	"context"
	"fmt"
	"time"

	"slotly-service/api"
	"slotly-service/internal/models"
	"slotly-service/pkg/response"

	"github.com/google/uuid"
)

// CreateBooking commits a guest's chosen slot. The overlap check and the
// insert run in one store transaction; the per-host redis lock in front of it
// only thins out contention. A Conflict is returned verbatim so the guest can
// re-fetch slots and pick another time.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, response.ErrValidation)
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrValidation)
	}

	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("%s: invalid timezone %q: %w", op, req.Timezone, response.ErrValidation)
	}

	et, err := s.store.GetEventType(ctx, req.EventTypeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !et.IsActive {
		return nil, fmt.Errorf("%s: event type inactive: %w", op, response.ErrNotFound)
	}

	// Stored length is the event duration alone; buffers only spread slot
	// starts apart and are never persisted.
	booking := &models.Booking{
		ID:          uuid.NewString(),
		HostID:      et.HostID,
		EventTypeID: et.ID,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestNotes:  req.GuestNotes,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(et.Duration) * time.Minute),
		Timezone:    req.Timezone,
		Status:      models.BookingConfirmed,
	}
	if et.RequiresApproval {
		booking.Status = models.BookingPending
	}

	lockKey := fmt.Sprintf("host:%s", et.HostID)

	locked, err := s.locker.Lock(ctx, lockKey, bookingLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.CreateBookingTx(ctx, tx, booking); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return toBookingResponse(booking), nil
}

func (s *Service) GetBooking(ctx context.Context, hostID, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.HostID != hostID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	return toBookingResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, hostID string, status *string, from, to *time.Time) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	var statuses []models.BookingStatus
	if status != nil {
		st := models.BookingStatus(*status)
		if !st.Valid() {
			return nil, fmt.Errorf("%s: unknown status %q: %w", op, *status, response.ErrValidation)
		}
		statuses = []models.BookingStatus{st}
	}

	bookings, err := s.store.ListBookings(ctx, hostID, statuses, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, toBookingResponse(&bookings[i]))
	}

	return result, nil
}

// UpdateBookingStatus applies a host-initiated transition. Guests never
// transition a booking after creation; the handlers only route authenticated
// hosts here.
func (s *Service) UpdateBookingStatus(ctx context.Context, hostID, bookingID string, newStatus string) (*api.BookingResponse, error) {
	const op = "service.UpdateBookingStatus"

	status := models.BookingStatus(newStatus)
	if !status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, newStatus, response.ErrValidation)
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.HostID != hostID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	if !booking.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, booking.Status, status, response.ErrInvalidTransition)
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = status
	return toBookingResponse(booking), nil
}

func (s *Service) ConfirmBooking(ctx context.Context, hostID, bookingID string) (*api.BookingResponse, error) {
	return s.UpdateBookingStatus(ctx, hostID, bookingID, string(models.BookingConfirmed))
}

func (s *Service) CancelBooking(ctx context.Context, hostID, bookingID string) (*api.BookingResponse, error) {
	return s.UpdateBookingStatus(ctx, hostID, bookingID, string(models.BookingCancelled))
}

func toBookingResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:          b.ID,
		HostID:      b.HostID,
		EventTypeID: b.EventTypeID,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		GuestNotes:  b.GuestNotes,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Timezone:    b.Timezone,
		Status:      string(b.Status),
	}
}
