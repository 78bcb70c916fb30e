package api

import "time"

// Hosts

type HostCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Timezone string `json:"timezone" validate:"required"`
}

type HostResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Timezone string `json:"timezone"`
	Token    string `json:"token,omitempty"`
}

type HostProfileResponse struct {
	Username   string              `json:"username"`
	Name       string              `json:"name"`
	Timezone   string              `json:"timezone"`
	EventTypes []EventTypeResponse `json:"event_types"`
}

// Availability

type AvailabilityDay struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Enabled   bool   `json:"enabled"`
}

type AvailabilityUpdateRequest struct {
	Days []AvailabilityDay `json:"days" validate:"required,min=1,max=7,dive"`
}

// Event types

type EventTypeRequest struct {
	Name             string `json:"name" validate:"required"`
	Description      string `json:"description"`
	Duration         int    `json:"duration" validate:"required,gt=0"`
	BeforeBuffer     int    `json:"before_buffer" validate:"gte=0"`
	AfterBuffer      int    `json:"after_buffer" validate:"gte=0"`
	Color            string `json:"color"`
	Location         string `json:"location"`
	RequiresApproval bool   `json:"requires_approval"`
}

type EventTypeResponse struct {
	ID               string `json:"id"`
	HostID           string `json:"host_id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Duration         int    `json:"duration"`
	BeforeBuffer     int    `json:"before_buffer"`
	AfterBuffer      int    `json:"after_buffer"`
	Color            string `json:"color,omitempty"`
	Location         string `json:"location,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
	IsActive         bool   `json:"is_active"`
}

// Slots

type SlotsResponse struct {
	Date     string   `json:"date"`
	Timezone string   `json:"timezone"`
	Slots    []string `json:"slots"`
}

// Bookings

type BookingRequest struct {
	EventTypeID string `json:"event_type_id" validate:"required"`
	GuestName   string `json:"guest_name" validate:"required"`
	GuestEmail  string `json:"guest_email" validate:"required,email"`
	GuestNotes  string `json:"guest_notes"`
	StartTime   string `json:"start_time" validate:"required"`
	Timezone    string `json:"timezone" validate:"required"`
}

type BookingResponse struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	EventTypeID string    `json:"event_type_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	GuestNotes  string    `json:"guest_notes,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Timezone    string    `json:"timezone"`
	Status      string    `json:"status"`
}

type BookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
