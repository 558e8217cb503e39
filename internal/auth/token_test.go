package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestIssuer(t *testing.T, clock *fakeClock) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, WithClock(clock.Now), WithIssuer("postboard-test"))
	require.NoError(t, err)
	return issuer
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)

	for _, subject := range []string{"1", "42", "0007", "user-abc"} {
		token, err := issuer.Issue(subject, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultTokenTTL, token.ExpiresIn())
		assert.Len(t, strings.Split(token.Token, "."), 3)

		got, err := issuer.Verify(token.Token)
		require.NoError(t, err)
		assert.Equal(t, subject, got)
	}
}

func TestTokenIssuer_TokenIsURLSafe(t *testing.T) {
	issuer := newTestIssuer(t, &fakeClock{now: time.Now()})

	token, err := issuer.Issue("1", time.Minute)
	require.NoError(t, err)
	assert.NotContainsf(t, token.Token, "+", "token %s", token.Token)
	assert.NotContains(t, token.Token, "/")
	assert.NotContains(t, token.Token, "=")
}

func TestTokenIssuer_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)

	token, err := issuer.Issue("1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(10*time.Minute), token.ExpiresAt)

	clock.Advance(10*time.Minute - time.Second)
	_, err = issuer.Verify(token.Token)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = issuer.Verify(token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_TamperedTokenRejected(t *testing.T) {
	issuer := newTestIssuer(t, &fakeClock{now: time.Now()})

	token, err := issuer.Issue("1", time.Hour)
	require.NoError(t, err)

	raw := []byte(token.Token)
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		_, err := issuer.Verify(string(mutated))
		require.ErrorIs(t, err, ErrInvalidToken, "byte %d of %q", i, token.Token)
	}
}

func TestTokenIssuer_RejectsInvalidTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(t, clock)

	other, err := NewTokenIssuer(strings.Repeat("x", 40), WithClock(clock.Now), WithIssuer("postboard-test"))
	require.NoError(t, err)
	foreign, err := other.Issue("1", time.Hour)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, claims jwt.Claims, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(clock.now.Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "abc.def"},
		{name: "signed with another secret", token: foreign.Token},
		{name: "alg none", token: sign(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", Issuer: "postboard-test", ExpiresAt: exp}, jwt.UnsafeAllowNoneSignatureType)},
		{name: "other hmac algorithm", token: sign(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "1", Issuer: "postboard-test", ExpiresAt: exp}, []byte(testSecret))},
		{name: "missing subject", token: sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "postboard-test", ExpiresAt: exp}, []byte(testSecret))},
		{name: "missing expiry", token: sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1", Issuer: "postboard-test"}, []byte(testSecret))},
		{name: "wrong issuer", token: sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1", Issuer: "elsewhere", ExpiresAt: exp}, []byte(testSecret))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, subject)
		})
	}
}

func TestTokenIssuer_TokensAreUnique(t *testing.T) {
	issuer := newTestIssuer(t, &fakeClock{now: time.Now()})

	a, err := issuer.Issue("1", time.Minute)
	require.NoError(t, err)
	b, err := issuer.Issue("1", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("")
	assert.Error(t, err)
	_, err = NewTokenIssuer("too-short")
	assert.Error(t, err)

	issuer, err := NewTokenIssuer(testSecret, WithDefaultTTL(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, issuer.DefaultTTL())

	_, err = issuer.Issue("", time.Minute)
	assert.Error(t, err)
}
