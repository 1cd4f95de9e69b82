package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

// DeriveKey expands the configured secret into a KeySize key bound to
// purpose. Distinct purposes yield unrelated keys from the same secret.
func DeriveKey(secret, purpose string) []byte {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255 hash lengths of output.
		panic(err)
	}
	return key
}

// GenerateSecret returns KeySize random bytes, hex encoded.
func GenerateSecret() (string, error) {
	b := make([]byte, KeySize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
