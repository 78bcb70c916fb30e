package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotly-service/internal/http-server/middleware/hostauth"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EventTypeDeactivator interface {
	DeactivateEventType(ctx context.Context, hostID, id string) error
}

type Response struct {
	response.Response
	Deactivated bool `json:"deactivated"`
}

// New soft-deactivates an event type. Rows are never hard-deleted because
// bookings keep referencing them.
func New(log *slog.Logger, deactivator EventTypeDeactivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event_types.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		err := deactivator.DeactivateEventType(r.Context(), hostauth.HostID(r), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrUnauthorized) {
			log.Error("host does not own event type")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "not your event type"))
			return
		}

		if err != nil {
			log.Error("Failed to deactivate event type", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to deactivate event type"))
			return
		}

		log.Info("Event type deactivated", slog.String("event_type_id", id))
		render.JSON(w, r, Response{
			Deactivated: true,
		})
	}
}
