package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotly-service/api"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ProfileGetter interface {
	GetHostProfile(ctx context.Context, username string) (*api.HostProfileResponse, error)
}

type Response struct {
	response.Response
	Profile api.HostProfileResponse `json:"profile,omitempty"`
}

// New serves the public booking page data: the host plus active event types.
func New(log *slog.Logger, getter ProfileGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.hosts.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		username := chi.URLParam(r, "username")
		if username == "" {
			log.Error("username is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "username is required"))
			return
		}

		profile, err := getter.GetHostProfile(r.Context(), username)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get host profile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get host profile"))
			return
		}

		log.Info("Host profile retrieved", slog.String("username", username))
		render.JSON(w, r, Response{
			Profile: *profile,
		})
	}
}
