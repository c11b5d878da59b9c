// Package mwauth gates routes behind a logged-in session.
package mwauth

import (
	"log/slog"
	"net/http"

	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/session"
)

const (
	LoginPath      = "/login"
	MessageLogInTo = "You need to log in to make a booking."
)

// FlashSetter is satisfied by *session.Manager.
type FlashSetter interface {
	SetFlash(w http.ResponseWriter, f session.Flash) error
}

// New redirects requests without a session user to the login page with a
// warning. It expects session.Manager.Middleware to run first.
func New(log *slog.Logger, flashes FlashSetter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(slog.String("component", "middleware/auth"))

		fn := func(w http.ResponseWriter, r *http.Request) {
			if _, ok := session.UserFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			log.Info("anonymous request redirected to login", slog.String("path", r.URL.Path))

			if err := flashes.SetFlash(w, session.Flash{Kind: session.KindWarning, Message: MessageLogInTo}); err != nil {
				log.Error("failed to set flash", sl.Err(err))
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		}

		return http.HandlerFunc(fn)
	}
}
