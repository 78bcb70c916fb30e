package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"slotly-service/api"
	"slotly-service/internal/http-server/middleware/hostauth"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BookingGetter interface {
	GetBooking(ctx context.Context, hostID, id string) (*api.BookingResponse, error)
	ListBookings(ctx context.Context, hostID string, status *string, from, to *time.Time) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings,omitempty"`
	Booking  *api.BookingResponse  `json:"booking,omitempty"`
}

func New(log *slog.Logger, getter BookingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		hostID := hostauth.HostID(r)

		id := chi.URLParam(r, "id")
		if id != "" {
			booking, err := getter.GetBooking(r.Context(), hostID, id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if errors.Is(err, response.ErrUnauthorized) {
				log.Error("host does not own booking")
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "not your booking"))
				return
			}

			if err != nil {
				log.Error("Failed to get booking", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get booking"))
				return
			}

			log.Info("Booking retrieved", slog.String("booking_id", id))
			render.JSON(w, r, Response{
				Booking: booking,
			})
			return
		}

		var status *string
		if s := r.URL.Query().Get("status"); s != "" {
			status = &s
		}

		var from, to *time.Time
		if fromStr := r.URL.Query().Get("from"); fromStr != "" {
			if t, err := time.Parse("2006-01-02", fromStr); err == nil {
				from = &t
			} else if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
				from = &t
			}
		}
		if toStr := r.URL.Query().Get("to"); toStr != "" {
			if t, err := time.Parse("2006-01-02", toStr); err == nil {
				to = &t
			} else if t, err := time.Parse(time.RFC3339, toStr); err == nil {
				to = &t
			}
		}

		bookings, err := getter.ListBookings(r.Context(), hostID, status, from, to)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "unknown status filter"))
			return
		}

		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		log.Info("Bookings retrieved", slog.Int("count", len(bookings)))
		bookingsResponse := make([]api.BookingResponse, len(bookings))
		for i, b := range bookings {
			bookingsResponse[i] = *b
		}
		render.JSON(w, r, Response{
			Bookings: bookingsResponse,
		})
	}
}
