package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slotly-service/internal/models"
	"slotly-service/pkg/response"

	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### hosts ####

func (s *Storage) CreateHostTx(ctx context.Context, tx *sql.Tx, host *models.Host) error {
	const op = "storage.postgres.CreateHostTx"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO hosts (host_id, email, name, username, timezone)
		VALUES ($1, $2, $3, $4, $5)`,
		host.ID,
		host.Email,
		host.Name,
		host.Username,
		host.Timezone,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetHost(ctx context.Context, hostID string) (*models.Host, error) {
	const op = "storage.postgres.GetHost"

	var host models.Host

	err := s.db.QueryRowContext(ctx,
		`SELECT host_id, email, name, username, timezone FROM hosts WHERE host_id=$1`, hostID).
		Scan(&host.ID, &host.Email, &host.Name, &host.Username, &host.Timezone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &host, nil
}

func (s *Storage) GetHostByUsername(ctx context.Context, username string) (*models.Host, error) {
	const op = "storage.postgres.GetHostByUsername"

	var host models.Host

	err := s.db.QueryRowContext(ctx,
		`SELECT host_id, email, name, username, timezone FROM hosts WHERE username=$1`, username).
		Scan(&host.ID, &host.Email, &host.Name, &host.Username, &host.Timezone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &host, nil
}

// #### availability ####

func (s *Storage) UpsertAvailabilityTx(ctx context.Context, tx *sql.Tx, day *models.WeeklyAvailability) error {
	const op = "storage.postgres.UpsertAvailabilityTx"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO weekly_availability (host_id, day_of_week, start_time, end_time, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (host_id, day_of_week)
		DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			enabled = EXCLUDED.enabled`,
		day.HostID,
		day.DayOfWeek,
		day.StartTime,
		day.EndTime,
		day.Enabled,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetAvailability(ctx context.Context, hostID string) ([]models.WeeklyAvailability, error) {
	const op = "storage.postgres.GetAvailability"

	rows, err := s.db.QueryContext(ctx,
		`SELECT host_id, day_of_week, start_time, end_time, enabled
		FROM weekly_availability
		WHERE host_id=$1
		ORDER BY day_of_week`, hostID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var week []models.WeeklyAvailability
	for rows.Next() {
		var day models.WeeklyAvailability
		err := rows.Scan(&day.HostID, &day.DayOfWeek, &day.StartTime, &day.EndTime, &day.Enabled)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		week = append(week, day)
	}

	return week, nil
}

// #### event types ####

func (s *Storage) CreateEventType(ctx context.Context, et *models.EventType) error {
	const op = "storage.postgres.CreateEventType"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_types
		(event_type_id, host_id, name, description, duration_minutes,
		 before_buffer_minutes, after_buffer_minutes, color, location,
		 requires_approval, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		et.ID,
		et.HostID,
		et.Name,
		et.Description,
		et.Duration,
		et.BeforeBuffer,
		et.AfterBuffer,
		et.Color,
		et.Location,
		et.RequiresApproval,
		et.IsActive,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetEventType(ctx context.Context, id string) (*models.EventType, error) {
	const op = "storage.postgres.GetEventType"

	var et models.EventType

	err := s.db.QueryRowContext(ctx,
		`SELECT event_type_id, host_id, name, description, duration_minutes,
			before_buffer_minutes, after_buffer_minutes, color, location,
			requires_approval, is_active
		FROM event_types WHERE event_type_id=$1`, id).
		Scan(
			&et.ID,
			&et.HostID,
			&et.Name,
			&et.Description,
			&et.Duration,
			&et.BeforeBuffer,
			&et.AfterBuffer,
			&et.Color,
			&et.Location,
			&et.RequiresApproval,
			&et.IsActive,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &et, nil
}

func (s *Storage) ListEventTypes(ctx context.Context, hostID string, activeOnly bool) ([]models.EventType, error) {
	const op = "storage.postgres.ListEventTypes"

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type_id, host_id, name, description, duration_minutes,
			before_buffer_minutes, after_buffer_minutes, color, location,
			requires_approval, is_active
		FROM event_types
		WHERE host_id=$1 AND (NOT $2 OR is_active)
		ORDER BY name`, hostID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []models.EventType
	for rows.Next() {
		var et models.EventType
		err := rows.Scan(
			&et.ID,
			&et.HostID,
			&et.Name,
			&et.Description,
			&et.Duration,
			&et.BeforeBuffer,
			&et.AfterBuffer,
			&et.Color,
			&et.Location,
			&et.RequiresApproval,
			&et.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, et)
	}

	return result, nil
}

func (s *Storage) UpdateEventType(ctx context.Context, et *models.EventType) error {
	const op = "storage.postgres.UpdateEventType"

	res, err := s.db.ExecContext(ctx,
		`UPDATE event_types
		SET name=$1, description=$2, duration_minutes=$3,
			before_buffer_minutes=$4, after_buffer_minutes=$5,
			color=$6, location=$7, requires_approval=$8
		WHERE event_type_id=$9`,
		et.Name,
		et.Description,
		et.Duration,
		et.BeforeBuffer,
		et.AfterBuffer,
		et.Color,
		et.Location,
		et.RequiresApproval,
		et.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// DeactivateEventType soft-deletes: bookings keep referencing the row.
func (s *Storage) DeactivateEventType(ctx context.Context, id string) error {
	const op = "storage.postgres.DeactivateEventType"

	res, err := s.db.ExecContext(ctx,
		`UPDATE event_types SET is_active=FALSE WHERE event_type_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### bookings ####

// ListBookings returns the host's bookings matching the status set, ordered
// by start time. Nil from/to leave the range open on that side.
func (s *Storage) ListBookings(ctx context.Context, hostID string, statuses []models.BookingStatus, from, to *time.Time) ([]models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	// Empty status set means no filter; NULL makes the predicate vacuous.
	var statusArg interface{}
	if len(statuses) > 0 {
		statusStrs := make([]string, 0, len(statuses))
		for _, st := range statuses {
			statusStrs = append(statusStrs, string(st))
		}
		statusArg = pq.Array(statusStrs)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT booking_id, host_id, event_type_id, guest_name, guest_email,
			guest_notes, start_time, end_time, timezone, status
		FROM bookings
		WHERE host_id=$1
		AND ($2::text[] IS NULL OR status = ANY($2))
		AND ($3::timestamptz IS NULL OR start_time >= $3)
		AND ($4::timestamptz IS NULL OR start_time < $4)
		ORDER BY start_time`,
		hostID, statusArg, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID,
			&b.HostID,
			&b.EventTypeID,
			&b.GuestName,
			&b.GuestEmail,
			&b.GuestNotes,
			&b.StartTime,
			&b.EndTime,
			&b.Timezone,
			&b.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, b)
	}

	return result, nil
}

// CreateBookingTx is the conflict guard. The overlap check and the insert run
// on the caller's transaction so no second writer can slip between them; the
// exclusion constraint on (host_id, [start,end)) backstops the check, and its
// violation is reported as the same ErrConflict.
func (s *Storage) CreateBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	const op = "storage.postgres.CreateBookingTx"

	var clashID string
	err := tx.QueryRowContext(ctx,
		`SELECT booking_id FROM bookings
		WHERE host_id=$1
		AND status IN ('PENDING', 'CONFIRMED')
		AND start_time < $3 AND end_time > $2
		LIMIT 1
		FOR UPDATE`,
		b.HostID, b.StartTime, b.EndTime).Scan(&clashID)
	if err == nil {
		return fmt.Errorf("%s: %w", op, response.ErrConflict)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings
		(booking_id, host_id, event_type_id, guest_name, guest_email,
		 guest_notes, start_time, end_time, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID,
		b.HostID,
		b.EventTypeID,
		b.GuestName,
		b.GuestEmail,
		b.GuestNotes,
		b.StartTime,
		b.EndTime,
		b.Timezone,
		string(b.Status),
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && (sqlErr.Code == "23P01" || sqlErr.Code == "23505") {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var b models.Booking

	err := s.db.QueryRowContext(ctx,
		`SELECT booking_id, host_id, event_type_id, guest_name, guest_email,
			guest_notes, start_time, end_time, timezone, status
		FROM bookings WHERE booking_id=$1`, id).
		Scan(
			&b.ID,
			&b.HostID,
			&b.EventTypeID,
			&b.GuestName,
			&b.GuestEmail,
			&b.GuestNotes,
			&b.StartTime,
			&b.EndTime,
			&b.Timezone,
			&b.Status,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (s *Storage) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE booking_id=$2`, string(status), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
