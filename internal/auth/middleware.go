// Package auth guards operator endpoints with a shared bearer secret.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sakif/gh-rankings/internal/apperror"
)

const bearerPrefix = "Bearer "

// ErrorWriter renders an error response; handler.WriteError satisfies it.
type ErrorWriter func(w http.ResponseWriter, err error)

// RequireBearer rejects any request whose Authorization header is not
// exactly "Bearer <secret>". The rejection is rendered by writeErr before
// next runs, so a rejected request never reaches the handler.
//
// An empty secret rejects everything; the endpoint is effectively disabled
// until a secret is configured.
func RequireBearer(secret string, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Check(r, secret); err != nil {
				writeErr(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Check returns an apperror.ErrUnauthorized error unless r carries the
// expected bearer secret.
func Check(r *http.Request, secret string) error {
	if !authorized(r.Header.Get("Authorization"), secret) {
		return apperror.Unauthorized("Unauthorized")
	}
	return nil
}

func authorized(header, secret string) bool {
	if secret == "" || !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	// Constant time so the comparison does not leak how much of the secret matched.
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
