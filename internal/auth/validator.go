package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any access token that fails validation:
// bad signature, wrong algorithm, wrong issuer/audience, expired, malformed.
// Callers must not expose which check failed.
var ErrInvalidToken = errors.New("invalid access token")

// Validator verifies access tokens at request time.  ValidateAccess is the
// inbound gate for protected endpoints; ClaimsIgnoringExpiry exists solely
// to support the refresh flow and performs a signature-only check.
type Validator struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewValidator builds a Validator for tokens produced by the matching
// Issuer configuration.
func NewValidator(secret, issuer, audience string) *Validator {
	return &Validator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// ValidateAccess performs full validation: signature, HMAC algorithm,
// issuer, audience and expiry with zero clock skew.  On success the token's
// identity claims are returned.
func (v *Validator) ValidateAccess(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return claimsFromMap(mc), nil
}

// ClaimsIgnoringExpiry validates only the signature and algorithm of a
// token, explicitly skipping expiry, issuer and audience checks.  It is used
// when a client proves possession of a still-valid refresh token alongside
// an expired access token.  Returns nil on any failure; never an error.
func (v *Validator) ClaimsIgnoringExpiry(raw string) *Claims {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, err := parser.Parse(raw, v.keyfunc)
	if err != nil || tok == nil {
		return nil
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	c := claimsFromMap(mc)
	return &c
}

// keyfunc supplies the signing key and pins the algorithm family to HMAC.
func (v *Validator) keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return v.secret, nil
}

// claimsFromMap extracts identity claims.  JWT numbers decode as float64;
// some encoders stringify the subject, so both forms are accepted.
func claimsFromMap(mc jwt.MapClaims) Claims {
	var c Claims
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	case string:
		if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
			c.UserID = n
		}
	}
	if s, ok := mc["email"].(string); ok {
		c.Email = s
	}
	if s, ok := mc["given_name"].(string); ok {
		c.FirstName = s
	}
	if s, ok := mc["family_name"].(string); ok {
		c.LastName = s
	}
	return c
}
