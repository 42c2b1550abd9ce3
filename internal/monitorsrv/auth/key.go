// Package auth authenticates presented API keys and enforces role
// requirements before any pipeline logic runs.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing them invalidates stored hashes, since the
// parameters are not encoded alongside the digest.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
	secretLen    = 32
)

var ErrMalformedKey = errors.New("malformed api key")

// NewSecret generates a fresh key secret and its stored hash. The returned
// secret is shown to the caller exactly once.
func NewSecret() (secret string, keyHash []byte, err error) {
	raw := make([]byte, secretLen)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, err
	}
	secret = base64.RawURLEncoding.EncodeToString(raw)
	keyHash, err = HashSecret(secret)
	return secret, keyHash, err
}

// HashSecret derives the stored form of a secret: salt || argon2id(secret).
func HashSecret(secret string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	digest := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return append(salt, digest...), nil
}

// VerifySecret checks a presented secret against a stored salt||digest.
func VerifySecret(secret string, keyHash []byte) bool {
	if len(keyHash) != saltLen+argonKeyLen {
		return false
	}
	salt, want := keyHash[:saltLen], keyHash[saltLen:]
	got := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// ParsePresentedKey splits the X-API-Key header form "<keyID>.<secret>".
func ParsePresentedKey(presented string) (uuid.UUID, string, error) {
	id, secret, found := strings.Cut(strings.TrimSpace(presented), ".")
	if !found || secret == "" {
		return uuid.Nil, "", ErrMalformedKey
	}
	keyID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, "", ErrMalformedKey
	}
	return keyID, secret, nil
}
