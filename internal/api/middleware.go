package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultClientCookie = "portal_client"
	clientCookieMaxAge  = 30 * 24 * time.Hour
)

// clientMiddleware identifies the browser by a random id kept in a cookie.
// The id only scopes the session marker and the intake form; it proves nothing.
func (s *Server) clientMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if c, err := r.Cookie(s.cookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				clientID = id.String()
			}
		}

		if clientID == "" {
			clientID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := ContextWithClientID(r.Context(), clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
