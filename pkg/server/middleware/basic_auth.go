package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Peripli/feature-browser/pkg/httputils"
	"golang.org/x/crypto/bcrypt"
)

const notAuthorized = "Not Authorized"

// BasicAuth rejects requests whose basic credentials do not match username and the bcrypt passwordHash
func BasicAuth(username, passwordHash string) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authorized(r, username, passwordHash) {
				w.Header().Set("WWW-Authenticate", `Basic realm="feature-browser"`)
				httputils.WriteResponse(w, http.StatusUnauthorized, httputils.HTTPErrorResponse{
					ErrorKey:     notAuthorized,
					ErrorMessage: "You are not authorized to access this resource",
				})
				return
			}
			handler.ServeHTTP(w, r)
		})
	}
}

func authorized(r *http.Request, username, passwordHash string) bool {
	u, p, isOk := r.BasicAuth()
	if !isOk || subtle.ConstantTimeCompare([]byte(username), []byte(u)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
}
