// Package auth implements the credential primitives of the service: bcrypt
// password hashing, HS256 access tokens and opaque refresh token material.
// Nothing in this package performs storage I/O; access token verification is
// a pure signature-and-claims check so the request middleware can run it on
// every request without a database round-trip.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/superc/price-alert/internal/model"
)

// Typed verification failures. Verify returns exactly one of these so the
// middleware and handlers can react without string matching.
var (
	ErrTokenMalformed        = errors.New("access token malformed")
	ErrTokenExpired          = errors.New("access token expired")
	ErrTokenSignatureInvalid = errors.New("access token signature invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, carry the user's email as subject plus the
// role list, and are sent in the Authorization header on protected calls.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Issuer mints and verifies access tokens with a symmetric key loaded once
// at startup. The zero value is not usable; construct with NewIssuer.
type Issuer struct {
	key []byte
	ttl time.Duration
}

// NewIssuer returns an Issuer signing with key and stamping exp = iat + ttl.
func NewIssuer(key []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: key, ttl: ttl}
}

// Issue builds and signs an HS256 JWT for a user. The claims are the subject
// (user email), the role list, issued-at and expiry.
func (i *Issuer) Issue(email string, roles []string) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(i.ttl)
	claims := jwt.MapClaims{
		"sub":   email,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.key)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify decodes a token string and checks signature, expiry and subject
// presence. On success it returns the embedded claims as a Principal whose
// UserID is still zero; the middleware resolves the full user afterwards.
func (i *Issuer) Verify(raw string) (model.Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC before touching the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignatureInvalid
		}
		return i.key, nil
	}, jwt.WithExpirationRequired()) // a token without exp must never verify
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return model.Principal{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignatureInvalid):
			return model.Principal{}, ErrTokenSignatureInvalid
		default:
			return model.Principal{}, ErrTokenMalformed
		}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return model.Principal{}, ErrTokenMalformed
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return model.Principal{}, ErrTokenMalformed
	}
	return model.Principal{Email: sub, Roles: claimRoles(claims)}, nil
}

// claimRoles pulls the "roles" claim out of decoded JSON, where arrays come
// back as []interface{}.
func claimRoles(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
