package token_test

import (
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndVerify(t *testing.T) {
	issuer, err := token.NewIssuer(secret)
	require.NoError(t, err)

	tok, err := issuer.Issue("people")
	require.NoError(t, err)
	assert.NoError(t, issuer.Verify(tok, "people"))

	err = issuer.Verify(tok, "orders")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	assert.Contains(t, err.Error(), "another grid")
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer, err := token.NewIssuer(secret, token.WithClock(clock), token.WithTTL(time.Minute))
	require.NoError(t, err)

	tok, err := issuer.Issue("people")
	require.NoError(t, err)

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, issuer.Verify("  ", "people"), token.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.ErrorIs(t, issuer.Verify("not.a.jwt", "people"), token.ErrInvalidToken)
	})

	t.Run("Other Secret", func(t *testing.T) {
		other, err := token.NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), token.WithClock(clock))
		require.NoError(t, err)
		assert.ErrorIs(t, other.Verify(tok, "people"), token.ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		later, err := token.NewIssuer(secret, token.WithClock(func() time.Time { return now.Add(2 * time.Minute) }))
		require.NoError(t, err)
		err = later.Verify(tok, "people")
		assert.ErrorIs(t, err, token.ErrInvalidToken)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("Unsigned", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"iss":  "lattice",
			"grid": "people",
			"exp":  now.Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.ErrorIs(t, issuer.Verify(raw, "people"), token.ErrInvalidToken)
	})
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := token.NewIssuer([]byte("short"))
	assert.Error(t, err)
}
