package httputil

import (
	"errors"
	"net/http"
	"strings"
)

var ErrNoToken = errors.New("no auth token found in header")

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. A bare header value without the scheme is accepted as well.
func BearerToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", ErrNoToken
	}

	if scheme, rest, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(scheme, "Bearer") {
		authHeader = strings.TrimSpace(rest)
	}
	if authHeader == "" || strings.EqualFold(authHeader, "Bearer") {
		return "", ErrNoToken
	}
	return authHeader, nil
}
