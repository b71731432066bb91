package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdmin gates administrative routes behind a shared secret header.
// An empty configured secret disables the routes entirely.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin access disabled", http.StatusForbidden)
				return
			}
			supplied := r.Header.Get("X-Admin-Secret")
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
				http.Error(w, "admin access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
