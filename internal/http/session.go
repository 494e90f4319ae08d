package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/log"
)

const sessionCookie = "bb_session"

type sessionKey struct{}

// sessionMiddleware makes sure every request carries a session ID, issuing a
// new one when the cookie is missing or malformed.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = s.issueSession(w)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		ctx = log.WithContext(ctx, log.FromContext(ctx).WithSession(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) issueSession(w http.ResponseWriter) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		// refreshed on reset; the store drops idle sessions on its own
		Expires: time.Now().Add(30 * 24 * time.Hour),
	})
	return id
}

// sessionID returns the session ID stored by sessionMiddleware.
func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
