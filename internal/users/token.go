package users

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

var ErrBadToken = fmt.Errorf("%w: identity token rejected", errs.ErrInvalid)

// IdentityClaims is the token the identity provider issues after sign-in.
// The subject is the provider's user id.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 identity tokens signed with a shared secret.
type TokenVerifier struct {
	Secret []byte
}

func (v TokenVerifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" || len(v.Secret) == 0 {
		return Identity{}, ErrBadToken
	}
	var claims IdentityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	id := Identity{ExternalID: claims.Subject, Email: claims.Email, Name: claims.Name}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}
