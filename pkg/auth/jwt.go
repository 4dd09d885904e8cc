package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the access-token claims issued by the game server.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

var ErrNoToken = errors.New("no access token")

// InspectToken decodes the claims of an access token without verifying its
// signature. The client never holds the signing secret; verification stays
// on the server, which sees the token on the WebSocket handshake.
func InspectToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry that is already past.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// HandshakeHeader builds the headers sent when dialing the game server.
func HandshakeHeader(tokenString string) http.Header {
	header := http.Header{}
	if tokenString != "" {
		header.Set("Authorization", "Bearer "+tokenString)
	}
	return header
}
