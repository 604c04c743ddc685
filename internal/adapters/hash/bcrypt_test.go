package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/syberry/bakery-api/internal/ports"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)

	assert.NoError(t, hasher.Verify(hashed, "s3cret"))
	assert.ErrorIs(t, hasher.Verify(hashed, "wrong"), ports.ErrPasswordMismatch)
}

func TestBcryptHasher_HashesAreSalted(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	a, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	b, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	assert.ErrorIs(t, hasher.Verify("not-a-bcrypt-hash", "s3cret"), ports.ErrPasswordMismatch)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	hasher := NewBcryptHasher(-1)
	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)
}
