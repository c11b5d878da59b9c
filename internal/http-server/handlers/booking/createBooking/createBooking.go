package createBooking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"campusBooker/internal/http-server/middleware/mwauth"
	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/api/response"
	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/services/booking"
	"campusBooker/internal/session"

	"github.com/go-playground/validator/v10"
)

const (
	MessageSuccess   = "Booking successful!"
	MessageMalformed = "Invalid date or time. Use YYYY-MM-DD and 24-hour HH:MM."
)

type BookingRequest struct {
	Facility string `validate:"required,max=150"`
	Date     string `validate:"required"`
	Time     string `validate:"required"`
	Message  string `validate:"required"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingCreator
type BookingCreator interface {
	Create(ctx context.Context, username string, in booking.Input) (int64, error)
}

func New(log *slog.Logger, bookings BookingCreator, sessions *session.Manager, pages *views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking.createBooking.New"

		log := log.With(slog.String("op", op))

		username, _ := session.UserFromContext(r.Context())

		fail := func(status int, msg string, form map[string]string) {
			err := pages.Render(w, r, status, views.PageBooking, views.Page{
				Title: "Book a facility",
				Flash: &session.Flash{Kind: session.KindDanger, Message: msg},
				Form:  form,
			})
			if err != nil {
				log.Error("failed to render booking page", sl.Err(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}

		if err := r.ParseForm(); err != nil {
			log.Error("failed to parse form", sl.Err(err))
			fail(http.StatusBadRequest, "failed to decode request", nil)
			return
		}

		req := BookingRequest{
			Facility: r.PostForm.Get("facility"),
			Date:     r.PostForm.Get("date"),
			Time:     r.PostForm.Get("time"),
			Message:  r.PostForm.Get("message"),
		}
		form := map[string]string{
			"facility": req.Facility,
			"date":     req.Date,
			"time":     req.Time,
			"message":  req.Message,
		}

		log.Info("request form decoded", slog.Any("request", req), slog.String("username", username))

		if err := validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				log.Info("invalid request", sl.Err(err))
				fail(http.StatusBadRequest, response.ValidationError(validateErr).Error, form)
				return
			}
		}

		id, err := bookings.Create(r.Context(), username, booking.Input{
			Facility: req.Facility,
			Date:     req.Date,
			Time:     req.Time,
			Message:  req.Message,
		})
		if err != nil {
			switch {
			case errors.Is(err, booking.ErrUnauthenticated):
				if err := sessions.SetFlash(w, session.Flash{Kind: session.KindWarning, Message: mwauth.MessageLogInTo}); err != nil {
					log.Error("failed to set flash", sl.Err(err))
				}
				http.Redirect(w, r, mwauth.LoginPath, http.StatusSeeOther)
			case errors.Is(err, booking.ErrMalformedInput):
				log.Info("malformed booking input", sl.Err(err))
				fail(http.StatusBadRequest, MessageMalformed, form)
			default:
				log.Error("failed to create booking", sl.Err(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		if err := sessions.SetFlash(w, session.Flash{Kind: session.KindSuccess, Message: MessageSuccess}); err != nil {
			log.Error("failed to set flash", sl.Err(err))
		}

		log.Info("booking created", slog.Int64("id", id))

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
