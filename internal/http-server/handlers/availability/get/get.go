package get

import (
	"context"
	"log/slog"
	"net/http"

	"slotly-service/api"
	"slotly-service/internal/http-server/middleware/hostauth"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, hostID string) ([]api.AvailabilityDay, error)
}

type Response struct {
	response.Response
	Days []api.AvailabilityDay `json:"days"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		hostID := hostauth.HostID(r)

		days, err := getter.GetAvailability(r.Context(), hostID)
		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved", slog.Int("days", len(days)))
		render.JSON(w, r, Response{
			Days: days,
		})
	}
}
