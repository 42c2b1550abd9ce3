package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretRoundTrip(t *testing.T) {
	secret, keyHash, err := NewSecret()
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	assert.True(t, VerifySecret(secret, keyHash))
	assert.False(t, VerifySecret(secret+"x", keyHash))
	assert.False(t, VerifySecret("", keyHash))
}

func TestVerifySecretRejectsTruncatedHash(t *testing.T) {
	secret, keyHash, err := NewSecret()
	require.NoError(t, err)
	assert.False(t, VerifySecret(secret, keyHash[:10]))
	assert.False(t, VerifySecret(secret, nil))
}

func TestHashSecretSaltsDiffer(t *testing.T) {
	a, err := HashSecret("same-secret")
	require.NoError(t, err)
	b, err := HashSecret("same-secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, VerifySecret("same-secret", a))
	assert.True(t, VerifySecret("same-secret", b))
}

func TestParsePresentedKey(t *testing.T) {
	id := uuid.New()

	keyID, secret, err := ParsePresentedKey(id.String() + ".s3cr3t")
	require.NoError(t, err)
	assert.Equal(t, id, keyID)
	assert.Equal(t, "s3cr3t", secret)

	_, _, err = ParsePresentedKey("")
	assert.ErrorIs(t, err, ErrMalformedKey)
	_, _, err = ParsePresentedKey("no-dot")
	assert.ErrorIs(t, err, ErrMalformedKey)
	_, _, err = ParsePresentedKey("not-a-uuid.secret")
	assert.ErrorIs(t, err, ErrMalformedKey)
	_, _, err = ParsePresentedKey(id.String() + ".")
	assert.ErrorIs(t, err, ErrMalformedKey)
}
