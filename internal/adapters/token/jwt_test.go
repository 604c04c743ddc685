package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syberry/bakery-api/internal/ports"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, ttl time.Duration) *JWTIssuer {
	t.Helper()
	issuer, err := NewJWTIssuer([]byte(testSecret), ttl)
	require.NoError(t, err)
	return issuer
}

func TestNewJWTIssuer_RequiresSecretAndTTL(t *testing.T) {
	_, err := NewJWTIssuer(nil, time.Minute)
	assert.Error(t, err)

	_, err = NewJWTIssuer([]byte(testSecret), 0)
	assert.Error(t, err)
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t, 15*time.Minute)

	signed, expiresAt, err := issuer.Issue("jane@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	subject, err := issuer.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", subject)
}

func TestJWTIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	base := time.Now()
	issuer.now = func() time.Time { return base }
	signed, _, err := issuer.Issue("jane@x.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ports.ErrInvalidToken)
}

func TestJWTIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)
	other, err := NewJWTIssuer([]byte("another-secret-another-secret-ab"), time.Minute)
	require.NoError(t, err)

	signed, _, err := other.Issue("jane@x.com")
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ports.ErrInvalidToken)
}

func TestJWTIssuer_RejectsWrongAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	claims := jwt.RegisteredClaims{
		Subject:   "jane@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ports.ErrInvalidToken)
}

func TestJWTIssuer_RejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Validate(input)
		assert.ErrorIs(t, err, ports.ErrInvalidToken, "input %q", input)
	}
}

func TestJWTIssuer_RejectsMissingSubject(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ports.ErrInvalidToken)
}
