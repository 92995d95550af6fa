package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT without verifying its signature;
// the remote service signs and checks its tokens. ok is false for tokens
// that are not JWTs or carry no expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	at, err := claims.GetExpirationTime()
	if err != nil || at == nil {
		return time.Time{}, false
	}
	return at.Time, true
}
