package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the subset of identity-token claims the application consumes.
type Identity struct {
	UserID string // sub claim; opaque to everything downstream
	Email  string // email claim, used when seeding the profile row
}

// ErrInvalidToken is returned for tokens that fail signature or claim
// validation.
var ErrInvalidToken = errors.New("invalid identity token")

// VerifyToken parses and validates an HS256 identity token and extracts the
// subject and email claims.  Tokens signed with any other method are
// rejected outright.
func VerifyToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: sub, Email: email}, nil
}
