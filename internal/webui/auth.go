package webui

import (
	"crypto/subtle"
	"net/http"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/config"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
)

// basicAuth guards next with HTTP basic auth against a bcrypt password hash.
// Paths in open are served without credentials.
func basicAuth(auth config.AuthConfig, next http.Handler, open ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(open, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok || !checkCredentials(auth, username, password) {
			if ok {
				logger.Warn("Auth", "Rejected credentials for %q from %s", username, r.RemoteAddr)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="IVSS Dashboard", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkCredentials(auth config.AuthConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(auth.Username)) == 1
	err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(password))
	return userOK && err == nil
}
