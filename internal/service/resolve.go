package service

import (
	"context"
	"fmt"
	"time"

	"slotly-service/api"
	"slotly-service/internal/models"
	"slotly-service/internal/schedule"
	"slotly-service/pkg/response"
)

// ResolveSlots computes the offerable start times for one event type on one
// calendar day. Slots are returned as host-local "HH:MM"; the guest timezone
// is validated and echoed for display but never changes which slots exist.
//
// An absent or disabled weekday row is a normal empty result, not an error;
// only a missing or deactivated event type fails.
func (s *Service) ResolveSlots(ctx context.Context, eventTypeID, date, guestTimezone string) (*api.SlotsResponse, error) {
	const op = "service.ResolveSlots"

	et, err := s.store.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !et.IsActive {
		return nil, fmt.Errorf("%s: event type inactive: %w", op, response.ErrNotFound)
	}

	host, err := s.store.GetHost(ctx, et.HostID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	loc, err := time.LoadLocation(host.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: host timezone %q: %w", op, host.Timezone, response.ErrValidation)
	}

	if guestTimezone == "" {
		guestTimezone = host.Timezone
	} else if _, err := time.LoadLocation(guestTimezone); err != nil {
		return nil, fmt.Errorf("%s: guest timezone %q: %w", op, guestTimezone, response.ErrValidation)
	}

	// Weekday is taken in the host's calendar, not the guest's.
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date %q: %w", op, date, response.ErrValidation)
	}

	resp := &api.SlotsResponse{
		Date:     date,
		Timezone: guestTimezone,
		Slots:    []string{},
	}

	week, err := s.store.GetAvailability(ctx, et.HostID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var window *models.WeeklyAvailability
	for i := range week {
		if week[i].DayOfWeek == int(day.Weekday()) {
			window = &week[i]
			break
		}
	}
	if window == nil || !window.Enabled {
		return resp, nil
	}

	candidates, err := schedule.GenerateSlots(window.StartTime, window.EndTime, et.Duration, et.BeforeBuffer+et.AfterBuffer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)
	bookings, err := s.store.ListBookings(ctx, et.HostID,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		&dayStart, &dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Candidates are removed only when a booking starts on the exact same
	// minute. A booking off the slot grid is NOT filtered here; the overlap
	// check at commit time is the sole correctness boundary.
	booked := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		booked[b.StartTime.In(loc).Format("15:04")] = true
	}

	now := s.now().In(loc)
	today := day.Year() == now.Year() && day.YearDay() == now.YearDay()
	cutoff := now.Hour()*60 + now.Minute() + int(lookAhead.Minutes())

	for _, slot := range candidates {
		if booked[slot] {
			continue
		}
		if today {
			m, err := schedule.ParseClock(slot)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if m < cutoff {
				continue
			}
		}
		resp.Slots = append(resp.Slots, slot)
	}

	return resp, nil
}
