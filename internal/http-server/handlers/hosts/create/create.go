package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotly-service/api"
	"slotly-service/pkg/response"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type HostRegistrar interface {
	RegisterHost(ctx context.Context, req *api.HostCreateRequest) (*api.HostResponse, error)
}

type TokenIssuer interface {
	Issue(hostID string) (string, error)
}

type Request struct {
	api.HostCreateRequest
}

type Response struct {
	response.Response
	Host api.HostResponse `json:"host,omitempty"`
}

func New(log *slog.Logger, registrar HostRegistrar, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.hosts.create.New"

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

		host, err := registrar.RegisterHost(r.Context(), &req.HostCreateRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "validation failed"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("host already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "email or username already taken"))
			return
		}

		if err != nil {
			log.Error("Failed to register host", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to register host"))
			return
		}

		token, err := issuer.Issue(host.ID)
		if err != nil {
			log.Error("Failed to issue token", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to register host"))
			return
		}
		host.Token = token

		log.Info("Host registered", slog.String("host_id", host.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Host: *host,
		})
	}
}
