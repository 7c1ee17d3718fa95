package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims represents the verified JWT claims. Cognito access tokens carry
// scope, client_id and token_use on top of the registered claims.
type Claims struct {
	Scope    string `json:"scope,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the space separated scope claim contains scope
func (c *Claims) HasScope(scope string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier turns a bearer token into verified claims
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// KeyProvider resolves a signing key by key id
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// JWTVerifier verifies RS256 tokens against keys from a KeyProvider
type JWTVerifier struct {
	keys   KeyProvider
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// VerifierOption configures a JWTVerifier
type VerifierOption func(*JWTVerifier)

// WithIssuer requires the iss claim to equal issuer
func WithIssuer(issuer string) VerifierOption {
	return func(v *JWTVerifier) { v.issuer = issuer }
}

// WithLeeway tolerates clock skew on exp/nbf/iat
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *JWTVerifier) { v.leeway = leeway }
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) VerifierOption {
	return func(v *JWTVerifier) { v.now = now }
}

// NewJWTVerifier creates a new JWTVerifier
func NewJWTVerifier(keys KeyProvider, opts ...VerifierOption) *JWTVerifier {
	v := &JWTVerifier{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates signature, algorithm, expiry and issuer of token
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return v.keys.Key(ctx, kid)
	}, parserOpts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
