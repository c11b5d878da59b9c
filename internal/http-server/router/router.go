package router

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"campusBooker/internal/config"
	"campusBooker/internal/http-server/handlers/auth/login"
	"campusBooker/internal/http-server/handlers/auth/logout"
	"campusBooker/internal/http-server/handlers/auth/register"
	"campusBooker/internal/http-server/handlers/booking/createBooking"
	"campusBooker/internal/http-server/handlers/health"
	"campusBooker/internal/http-server/handlers/page"
	"campusBooker/internal/http-server/middleware/mwauth"
	"campusBooker/internal/http-server/middleware/mwlogger"
	"campusBooker/internal/http-server/views"
	"campusBooker/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"golang.org/x/crypto/hkdf"
)

type Accounts interface {
	login.Authenticator
	register.Registrar
}

type Deps struct {
	Accounts  Accounts
	Bookings  createBooking.BookingCreator
	DB        health.Pinger
	Sessions  *session.Manager
	Pages     *views.Renderer
	StartedAt time.Time
}

func New(log *slog.Logger, cfg config.Auth, deps Deps) (http.Handler, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Handle("/static/*", views.Static())
	router.Get("/health", health.New(log, deps.DB, deps.StartedAt))

	protect, err := csrfMiddleware(log, cfg)
	if err != nil {
		return nil, err
	}

	router.Group(func(r chi.Router) {
		r.Use(protect...)
		r.Use(deps.Sessions.Middleware)

		r.Get("/", page.New(log, deps.Sessions, deps.Pages, views.PageHome, "Home"))

		r.Get("/login", page.New(log, deps.Sessions, deps.Pages, views.PageLogin, "Log in"))
		r.Post("/login", login.New(log, deps.Accounts, deps.Sessions, deps.Pages))

		r.Get("/register", page.New(log, deps.Sessions, deps.Pages, views.PageRegister, "Register"))
		r.Post("/register", register.New(log, deps.Accounts, deps.Sessions, deps.Pages))

		r.Get("/logout", logout.New(log, deps.Sessions))

		r.Group(func(r chi.Router) {
			r.Use(mwauth.New(log, deps.Sessions))

			r.Get("/booking", page.New(log, deps.Sessions, deps.Pages, views.PageBooking, "Book a facility"))
			r.Post("/booking", createBooking.New(log, deps.Bookings, deps.Sessions, deps.Pages))
		})
	})

	return router, nil
}

func csrfMiddleware(log *slog.Logger, cfg config.Auth) ([]func(http.Handler) http.Handler, error) {
	if cfg.CSRFDisabled {
		log.Warn("csrf protection is disabled")
		return nil, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("csrf")), key); err != nil {
		return nil, fmt.Errorf("derive csrf key: %w", err)
	}

	protect := csrf.Protect(key,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("csrf check failed",
				slog.String("path", r.URL.Path),
				slog.String("reason", fmt.Sprint(csrf.FailureReason(r))),
			)
			http.Error(w, "forbidden: invalid csrf token", http.StatusForbidden)
		})),
	)

	if cfg.CookieSecure {
		return []func(http.Handler) http.Handler{protect}, nil
	}

	// Without TLS the Referer check has to be relaxed or every local form
	// post is rejected.
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}

	return []func(http.Handler) http.Handler{plaintext, protect}, nil
}
