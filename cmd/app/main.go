package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"slotly-service/internal/config"
	availGet "slotly-service/internal/http-server/handlers/availability/get"
	availSet "slotly-service/internal/http-server/handlers/availability/set"
	bookingCancel "slotly-service/internal/http-server/handlers/bookings/cancel"
	bookingConfirm "slotly-service/internal/http-server/handlers/bookings/confirm"
	bookingCreate "slotly-service/internal/http-server/handlers/bookings/create"
	bookingGet "slotly-service/internal/http-server/handlers/bookings/get"
	bookingStatus "slotly-service/internal/http-server/handlers/bookings/status"
	etCreate "slotly-service/internal/http-server/handlers/event_types/create"
	etDelete "slotly-service/internal/http-server/handlers/event_types/delete"
	etGet "slotly-service/internal/http-server/handlers/event_types/get"
	etUpdate "slotly-service/internal/http-server/handlers/event_types/update"
	hostCreate "slotly-service/internal/http-server/handlers/hosts/create"
	hostGet "slotly-service/internal/http-server/handlers/hosts/get"
	slotGet "slotly-service/internal/http-server/handlers/slots/get"
	"slotly-service/internal/http-server/middleware/hostauth"
	"slotly-service/internal/lock"
	svc "slotly-service/internal/service"
	"slotly-service/internal/storage/postgres"
	"slotly-service/pkg/handlers/slogpretty"
	"slotly-service/pkg/middleware/mwlogger"
	"slotly-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker)
	auth := hostauth.New(cfg.JWTSecret)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Public: registration, booking pages, slot resolution, guest submission
	router.Post("/hosts", hostCreate.New(log, service, auth))
	router.Get("/hosts/{username}", hostGet.New(log, service))
	router.Get("/hosts/{username}/event-types/{id}/slots", slotGet.New(log, service))
	router.Post("/bookings", bookingCreate.New(log, service))

	// Host-owned, behind bearer auth
	router.Group(func(r chi.Router) {
		r.Use(auth.Require)

		r.Get("/availability", availGet.New(log, service))
		r.Put("/availability", availSet.New(log, service))

		r.Post("/event-types", etCreate.New(log, service))
		r.Get("/event-types", etGet.New(log, service))
		r.Get("/event-types/{id}", etGet.New(log, service))
		r.Put("/event-types/{id}", etUpdate.New(log, service))
		r.Delete("/event-types/{id}", etDelete.New(log, service))

		r.Get("/bookings", bookingGet.New(log, service))
		r.Get("/bookings/{id}", bookingGet.New(log, service))
		r.Post("/bookings/{id}/confirm", bookingConfirm.New(log, service))
		r.Post("/bookings/{id}/cancel", bookingCancel.New(log, service))
		r.Put("/bookings/{id}/status", bookingStatus.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
