package set

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
	"github.com/go-chi/render"
)

type AvailabilityReplacer interface {
	ReplaceAvailability(ctx context.Context, hostID string, req *api.AvailabilityUpdateRequest) ([]api.AvailabilityDay, error)
}

type Request struct {
	api.AvailabilityUpdateRequest
}

type Response struct {
	response.Response
	Days []api.AvailabilityDay `json:"days"`
}

// New handles the full-week replace of the host's recurring availability.
func New(log *slog.Logger, replacer AvailabilityReplacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.set.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		hostID := hostauth.HostID(r)

		days, err := replacer.ReplaceAvailability(r.Context(), hostID, &req.AvailabilityUpdateRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "validation failed"))
			return
		}

		if err != nil {
			log.Error("Failed to update availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update availability"))
			return
		}

		log.Info("Availability updated", slog.Int("days", len(days)))
		render.JSON(w, r, Response{
			Days: days,
		})
	}
}
