package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusBooker/internal/config"
	"campusBooker/internal/http-server/router"
	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/logger/handlers/slogpretty"
	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/services/account"
	"campusBooker/internal/services/booking"
	"campusBooker/internal/session"
	"campusBooker/internal/storage/postgres"

	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting campus booker", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")
	if envErr != nil {
		log.Debug("no .env file loaded", sl.Err(envErr))
	}

	storage, err := postgres.InitDB(&cfg.Database)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	version, err := storage.Migrate()
	if err != nil {
		log.Error("failed to migrate storage", sl.Err(err))
		os.Exit(1)
	}
	log.Info("schema is up to date", slog.Uint64("version", uint64(version)))

	pages, err := views.New()
	if err != nil {
		log.Error("failed to parse templates", sl.Err(err))
		os.Exit(1)
	}

	handler, err := router.New(log, cfg.Auth, router.Deps{
		Accounts:  account.New(log, storage, storage, cfg.Auth.PasswordCost),
		Bookings:  booking.New(log, storage, storage),
		DB:        storage,
		Sessions:  session.NewManager(cfg.Auth),
		Pages:     pages,
		StartedAt: time.Now(),
	})
	if err != nil {
		log.Error("failed to build router", sl.Err(err))
		os.Exit(1)
	}

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop

	log.Info("application stopping", slog.String("signal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("application stopped")

	if err = storage.Close(); err != nil {
		log.Error("failed to close postgres connection", sl.Err(err))
	}

	log.Info("postgres connection closed")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}
