package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"campusBooker/internal/lib/api/response"
	"campusBooker/internal/lib/logger/sl"

	"github.com/go-chi/render"
)

const pingTimeout = 2 * time.Second

type Response struct {
	response.Response
	Uptime string `json:"uptime"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Pinger
type Pinger interface {
	Ping(ctx context.Context) error
}

func New(log *slog.Logger, db Pinger, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.New"

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Error("database ping failed", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database unavailable"))
			return
		}

		render.JSON(w, r, Response{
			Response: response.OK(),
			Uptime:   time.Since(startedAt).Truncate(time.Second).String(),
		})
	}
}
