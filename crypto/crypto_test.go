package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	secret := "correct horse battery staple"

	key1 := DeriveKey(secret, "session-auth")
	key2 := DeriveKey(secret, "session-auth")
	if !bytes.Equal(key1, key2) {
		t.Error("DeriveKey with same inputs produced different results")
	}

	if bytes.Equal(key1, DeriveKey("different secret", "session-auth")) {
		t.Error("DeriveKey with different secrets produced same results")
	}
	if bytes.Equal(key1, DeriveKey(secret, "csrf")) {
		t.Error("DeriveKey with different purposes produced same results")
	}

	if len(key1) != KeySize {
		t.Errorf("Expected %d-byte key, got %d bytes", KeySize, len(key1))
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	b, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	if len(a) != 2*KeySize {
		t.Errorf("Expected %d hex characters, got %d", 2*KeySize, len(a))
	}
	if a == b {
		t.Error("GenerateSecret returned the same value twice")
	}
}
