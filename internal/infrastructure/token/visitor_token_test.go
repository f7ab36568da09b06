package token

import (
	"testing"
	"time"

	"wework-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVisitorSecret = "this-is-a-valid-visitor-token-secret-32-chars"

func newTestIssuer(ttl time.Duration) *VisitorTokenIssuer {
	return NewVisitorTokenIssuer(VisitorTokenConfig{
		Secret: testVisitorSecret,
		Issuer: "wework-hub",
		TTL:    ttl,
	})
}

func TestVisitorTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	tokenStr, err := issuer.Issue("visitor-123")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(tokenStr, &visitorClaims{}, func(*jwt.Token) (any, error) {
		return []byte(testVisitorSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(*visitorClaims)
	assert.Equal(t, "visitor-123", claims.Subject)
	assert.Equal(t, "wework-hub", claims.Issuer)

	tok, err := issuer.Parse(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "visitor-123", tok.VisitorID)
	assert.WithinDuration(t, claims.ExpiresAt.Time, tok.ExpiresAt, 0)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)
}

func TestVisitorTokenIssuer_ExpiredToken(t *testing.T) {
	issuer := newTestIssuer(-time.Minute)

	tokenStr, err := issuer.Issue("visitor-123")
	require.NoError(t, err)

	_, err = issuer.Parse(tokenStr)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVisitorTokenIssuer_InvalidSignature(t *testing.T) {
	tokenStr, err := newTestIssuer(time.Hour).Issue("visitor-123")
	require.NoError(t, err)

	other := NewVisitorTokenIssuer(VisitorTokenConfig{Secret: "another-secret-that-is-long-enough-32", Issuer: "wework-hub", TTL: time.Hour})
	_, err = other.Parse(tokenStr)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVisitorTokenIssuer_WrongIssuer(t *testing.T) {
	tokenStr, err := NewVisitorTokenIssuer(VisitorTokenConfig{Secret: testVisitorSecret, Issuer: "someone-else", TTL: time.Hour}).Issue("v")
	require.NoError(t, err)

	_, err = newTestIssuer(time.Hour).Parse(tokenStr)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVisitorTokenIssuer_Garbage(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	for _, in := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := issuer.Parse(in)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid, in)
	}
}

func TestVisitorTokenIssuer_MissingSecret(t *testing.T) {
	_, err := NewVisitorTokenIssuer(VisitorTokenConfig{TTL: time.Hour}).Issue("v")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
