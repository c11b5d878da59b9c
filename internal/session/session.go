// Package session keeps the logged-in username and one-shot flash messages in
// signed cookies. Nothing is stored server side: every request re-verifies the
// HS256 token carried by the client.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campusBooker/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName      = "session"
	FlashCookieName = "flash"

	audienceSession = "session"
	audienceFlash   = "flash"
)

var ErrNoSession = errors.New("no session")

type Manager struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	flashTTL   time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(cfg config.Auth) *Manager {
	return &Manager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		flashTTL:   cfg.FlashTTL,
		secure:     cfg.CookieSecure,
		now:        time.Now,
	}
}

// Start binds the client to username by setting a fresh session cookie.
func (m *Manager) Start(w http.ResponseWriter, username string) error {
	const op = "session.Start"

	if username == "" {
		return fmt.Errorf("%s: empty username", op)
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    m.issuer,
		Subject:   username,
		Audience:  jwt.ClaimStrings{audienceSession},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
	}

	token, err := m.sign(claims)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, m.cookie(CookieName, token, m.sessionTTL))

	return nil
}

// End clears the session cookie.
func (m *Manager) End(w http.ResponseWriter) {
	http.SetCookie(w, m.expired(CookieName))
}

// Current returns the username named by a valid session cookie.
func (m *Manager) Current(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	var claims jwt.RegisteredClaims
	if err := m.parse(c.Value, audienceSession, &claims); err != nil {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}

// Middleware stores the current username, if any, in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username, ok := m.Current(r); ok {
			r = r.WithContext(WithUser(r.Context(), username))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(token, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	return err
}

func (m *Manager) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  m.now().Add(ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type userKey struct{}

func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

func UserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(userKey{}).(string)
	return username, ok && username != ""
}
