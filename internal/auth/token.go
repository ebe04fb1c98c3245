package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNotJWT       = goerr.New("token is not a JWT")
	ErrInvalidToken = goerr.New("invalid token")
)

// Claims are the JWT claims a Jul access token carries.
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Mint signs an HS256 access token for subject.
func Mint(secret, subject string, scopes []string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", goerr.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Scopes: scopes,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token", goerr.V("subject", subject))
	}
	return signed, nil
}

// Verify checks an HS256 token against secret and requires a subject.
func Verify(token, secret string) (*Claims, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, goerr.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "subject claim required")
	}
	return claims, nil
}

// Status describes a configured token without verifying its signature.
type Status struct {
	Subject   string
	Issuer    string
	Scopes    []string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Expired   bool
}

// Inspect decodes token claims without verifying the signature. Opaque
// tokens return ErrNotJWT.
func Inspect(token string, now time.Time) (Status, error) {
	if strings.Count(token, ".") != 2 {
		return Status{}, ErrNotJWT
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Status{}, goerr.Wrap(ErrNotJWT, err.Error())
	}
	st := Status{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
		Scopes:  claims.Scopes,
	}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		st.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		st.ExpiresAt = &t
		st.Expired = !now.Before(t)
	}
	return st, nil
}
