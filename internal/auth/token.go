package auth // package auth provides token issuance, validation and password hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/base64"
	"encoding/hex" // hex encoding for refresh token digests
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 64

// Claims carries the identity facts embedded in an access token.
type Claims struct {
	UserID    uint64
	Email     string
	FirstName string
	LastName  string
}

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the compact JWT string.  Access tokens are
// short-lived and sent in the Authorization header when calling protected
// endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived opaque token used to obtain new
// access tokens.  The Raw field is returned to the client exactly once; in
// the database only a SHA-256 hash of the raw string is stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// Issuer creates access/refresh token pairs.  The zero value is not usable;
// construct with NewIssuer.  The clock is a field so tests can freeze time.
type Issuer struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer builds an Issuer signing HS256 tokens with the given symmetric
// secret.  accessTTLMin is the access token lifetime in minutes and
// refreshTTLDays the refresh token lifetime in days.
func NewIssuer(secret, issuer, audience string, accessTTLMin, refreshTTLDays int) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// AccessToken builds and signs an HS256 JWT embedding the supplied identity
// claims.  The JWT carries sub, email, given_name and family_name alongside
// the registered iss, aud, exp and iat claims.
func (i *Issuer) AccessToken(c Claims) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.accessTTL)
	claims := jwt.MapClaims{
		"sub":         c.UserID,
		"email":       c.Email,
		"given_name":  c.FirstName,
		"family_name": c.LastName,
		"iss":         i.issuer,
		"aud":         i.audience,
		"exp":         exp.Unix(),
		"iat":         now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// RefreshToken returns a cryptographically random opaque token and its
// expiration time.  Validity is determined solely by server-side lookup, so
// the token carries no embedded claims.
func (i *Issuer) RefreshToken() (RefreshToken, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: base64.RawURLEncoding.EncodeToString(buf),
		Exp: i.now().UTC().Add(i.refreshTTL),
	}, nil
}

// HashRefreshToken returns the SHA-256 hash of the raw refresh token as a
// hex string.  Storing only the hash prevents attackers from using stolen
// database rows to refresh sessions.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
