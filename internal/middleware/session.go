package middleware

import (
	"net/http"

	"github.com/medguardian/backend/internal/services"
)

// SessionExpiry forces the inactivity check before any request is serviced,
// so a stale session is cleared even on endpoints that never look at it.
func SessionExpiry(sm *services.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sm.CheckExpiry()
			next.ServeHTTP(w, r)
		})
	}
}
