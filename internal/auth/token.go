package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL applies when Issue is called without an explicit ttl.
	DefaultTokenTTL = 30 * time.Minute
	// TokenType is the OAuth2 token_type reported to clients.
	TokenType = "bearer"

	minSecretLength = 32
)

var signingMethod = jwt.SigningMethodHS256

// IssuedToken is a signed access token together with its validity window.
type IssuedToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn is the token lifetime measured from issuance.
func (t IssuedToken) ExpiresIn() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// TokenIssuer signs and verifies HS256 JWTs with a single process-wide secret.
// It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIssuer sets the iss claim and requires it on verification.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		t.issuer = issuer
	}
}

func WithDefaultTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.defaultTTL = ttl
		}
	}
}

func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	t := &TokenIssuer{
		secret:     []byte(secret),
		defaultTTL: DefaultTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// DefaultTTL returns the lifetime used when Issue receives a non-positive ttl.
func (t *TokenIssuer) DefaultTTL() time.Duration {
	return t.defaultTTL
}

// Issue signs a token for subject that expires ttl from now.
func (t *TokenIssuer) Issue(subject string, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = t.defaultTTL
	}

	// NumericDate has second precision; truncate so ExpiresAt matches the claim.
	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return IssuedToken{
		Token:     signed,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify returns the subject of a valid token. Every failure is reported as
// ErrInvalidToken, wrapped with the underlying reason.
func (t *TokenIssuer) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
