// Package page serves the GET side of every form: it renders a template with
// the pending flash message, if any.
package page

import (
	"log/slog"
	"net/http"

	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/session"
)

func New(log *slog.Logger, sessions *session.Manager, pages *views.Renderer, name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.page.New"

		p := views.Page{Title: title}
		if f, ok := sessions.PopFlash(w, r); ok {
			p.Flash = &f
		}

		if err := pages.Render(w, r, http.StatusOK, name, p); err != nil {
			log.Error("failed to render page",
				slog.String("op", op),
				slog.String("page", name),
				sl.Err(err),
			)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}
