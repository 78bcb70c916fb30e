package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotly-service/api"
	"slotly-service/internal/http-server/middleware/hostauth"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EventTypeGetter interface {
	GetEventType(ctx context.Context, hostID, id string) (*api.EventTypeResponse, error)
	ListEventTypes(ctx context.Context, hostID string) ([]api.EventTypeResponse, error)
}

type Response struct {
	response.Response
	EventTypes []api.EventTypeResponse `json:"event_types,omitempty"`
	EventType  *api.EventTypeResponse  `json:"event_type,omitempty"`
}

func New(log *slog.Logger, getter EventTypeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event_types.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		hostID := hostauth.HostID(r)

		id := chi.URLParam(r, "id")
		if id != "" {
			eventType, err := getter.GetEventType(r.Context(), hostID, id)

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
				log.Error("Failed to get event type", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get event type"))
				return
			}

			log.Info("Event type retrieved", slog.String("event_type_id", id))
			render.JSON(w, r, Response{
				EventType: eventType,
			})
			return
		}

		eventTypes, err := getter.ListEventTypes(r.Context(), hostID)
		if err != nil {
			log.Error("Failed to list event types", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list event types"))
			return
		}

		log.Info("Event types retrieved", slog.Int("count", len(eventTypes)))
		render.JSON(w, r, Response{
			EventTypes: eventTypes,
		})
	}
}
