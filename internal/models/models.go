package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// allowedTransitions is host-initiated only; guests never transition a
// booking after creation. CANCELLED, COMPLETED and NO_SHOW are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted, BookingNoShow},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Host struct {
	ID       string `db:"host_id"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	Username string `db:"username"`
	Timezone string `db:"timezone"`
}

// WeeklyAvailability is one recurring open interval per weekday.
// StartTime/EndTime are host-local wall clock, "HH:MM".
type WeeklyAvailability struct {
	HostID    string `db:"host_id"`
	DayOfWeek int    `db:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
	Enabled   bool   `db:"enabled"`
}

type EventType struct {
	ID               string `db:"event_type_id"`
	HostID           string `db:"host_id"`
	Name             string `db:"name"`
	Description      string `db:"description"`
	Duration         int    `db:"duration_minutes"`
	BeforeBuffer     int    `db:"before_buffer_minutes"`
	AfterBuffer      int    `db:"after_buffer_minutes"`
	Color            string `db:"color"`
	Location         string `db:"location"`
	RequiresApproval bool   `db:"requires_approval"`
	IsActive         bool   `db:"is_active"`
}

// Booking start/end are absolute instants; Timezone is the guest-supplied
// IANA label, kept for display only.
type Booking struct {
	ID          string        `db:"booking_id"`
	HostID      string        `db:"host_id"`
	EventTypeID string        `db:"event_type_id"`
	GuestName   string        `db:"guest_name"`
	GuestEmail  string        `db:"guest_email"`
	GuestNotes  string        `db:"guest_notes"`
	StartTime   time.Time     `db:"start_time"`
	EndTime     time.Time     `db:"end_time"`
	Timezone    string        `db:"timezone"`
	Status      BookingStatus `db:"status"`
}

// DefaultWeek is the availability seeded at host registration:
// Monday through Friday 09:00-17:00 enabled, weekend disabled.
func DefaultWeek(hostID string) []WeeklyAvailability {
	week := make([]WeeklyAvailability, 0, 7)
	for day := 0; day <= 6; day++ {
		week = append(week, WeeklyAvailability{
			HostID:    hostID,
			DayOfWeek: day,
			StartTime: "09:00",
			EndTime:   "17:00",
			Enabled:   day >= 1 && day <= 5,
		})
	}
	return week
}
