package request

import (
	"net/http"
	"time"

	"secret-santa-service/domain"
)

const (
	DefaultSessionCookieName = "secret-santa-session"
	DefaultSessionLifetime   = 7 * 24 * time.Hour
)

type SessionCookie struct {
	Name     string
	Secure   bool
	Lifetime time.Duration
}

func (c SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c SessionCookie) Write(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    session.Id,
		Path:     "/",
		MaxAge:   int(c.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
