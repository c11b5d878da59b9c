package logout

import (
	"log/slog"
	"net/http"

	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/session"
)

const MessageLoggedOut = "You have been logged out."

func New(log *slog.Logger, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.logout.New"

		log := log.With(slog.String("op", op))

		sessions.End(w)

		if err := sessions.SetFlash(w, session.Flash{Kind: session.KindInfo, Message: MessageLoggedOut}); err != nil {
			log.Error("failed to set flash", sl.Err(err))
		}

		if username, ok := session.UserFromContext(r.Context()); ok {
			log.Info("user logged out", slog.String("username", username))
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
