package middlewarectx

import (
	"net/http"
	"time"
)

// CookieName имя cookie с токеном сессии.
const CookieName = "token"

// SessionCookies выставляет и сбрасывает cookie сессии. Cookie HttpOnly и
// SameSite=None, чтобы фронтенд на другом домене мог её отправлять.
type SessionCookies struct {
	Secure bool
	TTL    time.Duration
}

// Set выставляет cookie с токеном и сроком жизни TTL.
func (s SessionCookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.TTL),
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

// Clear сбрасывает cookie.
func (s SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}
