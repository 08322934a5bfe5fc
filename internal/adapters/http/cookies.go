package http

import (
	"net/http"
	"time"

	"github.com/viralforge/tshirtstore/internal/application"
)

// SessionCookieName is read by other components to detect a signed-in client.
// Only this file writes it.
const SessionCookieName = "token"

func (h *Handler) setSessionCookie(w http.ResponseWriter, session application.SessionArtifact) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// revokeSessionCookie tells the client to drop its cookie. Copies held elsewhere stay valid until they expire.
func (h *Handler) revokeSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
