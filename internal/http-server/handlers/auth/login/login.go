package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/models"
	"campusBooker/internal/services/account"
	"campusBooker/internal/session"

	"github.com/go-playground/validator/v10"
)

const (
	MessageSuccess            = "Login successful!"
	MessageInvalidCredentials = "Invalid username or password"
)

type Request struct {
	Username string `validate:"required,max=150"`
	Password string `validate:"required"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Authenticator
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.User, error)
}

func New(log *slog.Logger, auth Authenticator, sessions *session.Manager, pages *views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"

		log := log.With(slog.String("op", op))

		fail := func(status int, msg string, form map[string]string) {
			err := pages.Render(w, r, status, views.PageLogin, views.Page{
				Title: "Log in",
				Flash: &session.Flash{Kind: session.KindDanger, Message: msg},
				Form:  form,
			})
			if err != nil {
				log.Error("failed to render login page", sl.Err(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}

		if err := r.ParseForm(); err != nil {
			log.Error("failed to parse form", sl.Err(err))
			fail(http.StatusBadRequest, "failed to decode request", nil)
			return
		}

		req := Request{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
		form := map[string]string{"username": req.Username}

		log = log.With(slog.String("username", req.Username))

		if err := validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				// Blank fields get the same answer as a wrong password.
				log.Info("invalid request", sl.Err(err))
				fail(http.StatusUnauthorized, MessageInvalidCredentials, form)
				return
			}
		}

		user, err := auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				fail(http.StatusUnauthorized, MessageInvalidCredentials, form)
				return
			}

			log.Error("failed to log in", sl.Err(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if err := sessions.Start(w, user.Username); err != nil {
			log.Error("failed to start session", sl.Err(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if err := sessions.SetFlash(w, session.Flash{Kind: session.KindSuccess, Message: MessageSuccess}); err != nil {
			log.Error("failed to set flash", sl.Err(err))
		}

		log.Info("user logged in", slog.Int64("user_id", user.ID))

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
