package session

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindDanger  Kind = "danger"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Flash is a status message shown once on the next rendered page.
type Flash struct {
	Kind    Kind
	Message string
}

type flashClaims struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"msg"`
	jwt.RegisteredClaims
}

func (m *Manager) SetFlash(w http.ResponseWriter, f Flash) error {
	const op = "session.SetFlash"

	now := m.now()
	claims := flashClaims{
		Kind:    f.Kind,
		Message: f.Message,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audienceFlash},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.flashTTL)),
		},
	}

	token, err := m.sign(claims)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, m.cookie(FlashCookieName, token, m.flashTTL))

	return nil
}

// PopFlash returns the pending flash, if any, and clears the cookie so the
// message is never shown twice.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(FlashCookieName)
	if err != nil {
		return Flash{}, false
	}

	http.SetCookie(w, m.expired(FlashCookieName))

	var claims flashClaims
	if err := m.parse(c.Value, audienceFlash, &claims); err != nil {
		return Flash{}, false
	}

	return Flash{Kind: claims.Kind, Message: claims.Message}, true
}
