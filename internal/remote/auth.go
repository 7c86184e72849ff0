package remote

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("remote: token has no subject")

// Identity is the authenticated user as seen by the remote store.
type Identity struct {
	UserID string
	Token  string
}

// IdentityFromToken extracts the user id from the access token's sub claim.
// The signature is not verified here; the remote store rejects forged tokens
// on its own.
func IdentityFromToken(token string) (Identity, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("remote: parse token: %w", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return Identity{}, fmt.Errorf("remote: read subject: %w", err)
	}
	if sub == "" {
		return Identity{}, ErrNoSubject
	}
	return Identity{UserID: sub, Token: token}, nil
}
