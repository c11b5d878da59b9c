package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/api/response"
	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/services/account"
	"campusBooker/internal/session"

	"github.com/go-playground/validator/v10"
)

const (
	MessageSuccess          = "Registration successful! You can now login."
	MessageUsernameTaken    = "Username already exists. Please choose another one."
	MessageEmailTaken       = "Email already registered. Please choose another one."
	MessagePasswordMismatch = "Passwords do not match. Please try again."
	MessagePasswordTooLong  = "Password is too long. Use at most 72 bytes."
)

type Request struct {
	Username        string `validate:"required,max=150"`
	SchoolID        string `validate:"required,max=50"`
	Email           string `validate:"required,max=150"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Registrar
type Registrar interface {
	Register(ctx context.Context, in account.RegisterInput) (int64, error)
}

func New(log *slog.Logger, registrar Registrar, sessions *session.Manager, pages *views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.register.New"

		log := log.With(slog.String("op", op))

		fail := func(status int, msg string, form map[string]string) {
			err := pages.Render(w, r, status, views.PageRegister, views.Page{
				Title: "Register",
				Flash: &session.Flash{Kind: session.KindDanger, Message: msg},
				Form:  form,
			})
			if err != nil {
				log.Error("failed to render register page", sl.Err(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}

		if err := r.ParseForm(); err != nil {
			log.Error("failed to parse form", sl.Err(err))
			fail(http.StatusBadRequest, "failed to decode request", nil)
			return
		}

		req := Request{
			Username:        r.PostForm.Get("username"),
			SchoolID:        r.PostForm.Get("school_id"),
			Email:           r.PostForm.Get("email"),
			Password:        r.PostForm.Get("password"),
			ConfirmPassword: r.PostForm.Get("confirm_password"),
		}
		form := map[string]string{
			"username":  req.Username,
			"school_id": req.SchoolID,
			"email":     req.Email,
		}

		log = log.With(slog.String("username", req.Username))

		if err := validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				log.Info("invalid request", sl.Err(err))
				fail(http.StatusBadRequest, response.ValidationError(validateErr).Error, form)
				return
			}
		}

		id, err := registrar.Register(r.Context(), account.RegisterInput{
			Username:        req.Username,
			SchoolID:        req.SchoolID,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
		})
		if err != nil {
			switch {
			case errors.Is(err, account.ErrUsernameTaken):
				fail(http.StatusConflict, MessageUsernameTaken, form)
			case errors.Is(err, account.ErrEmailTaken):
				fail(http.StatusConflict, MessageEmailTaken, form)
			case errors.Is(err, account.ErrPasswordMismatch):
				fail(http.StatusBadRequest, MessagePasswordMismatch, form)
			case errors.Is(err, account.ErrPasswordTooLong):
				fail(http.StatusBadRequest, MessagePasswordTooLong, form)
			default:
				log.Error("failed to register user", sl.Err(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		if err := sessions.SetFlash(w, session.Flash{Kind: session.KindSuccess, Message: MessageSuccess}); err != nil {
			log.Error("failed to set flash", sl.Err(err))
		}

		log.Info("user registered", slog.Int64("user_id", id))

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
