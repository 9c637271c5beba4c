package secretbox

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
)

func setTestKey(t *testing.T, seed byte) {
	t.Helper()
	UnsafeResetForTests()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	os.Setenv("SECRETBOX_MASTER_KEY", base64.StdEncoding.EncodeToString(raw))
	t.Cleanup(func() {
		os.Unsetenv("SECRETBOX_MASTER_KEY")
		UnsafeResetForTests()
	})
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	// Sin t.Parallel() por el reset global de la clave
	setTestKey(t, 1)

	msg := "refresh-token ✓ — secreto"
	ct, err := Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	pt, err := Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt err: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	setTestKey(t, 7)

	ct, err := Encrypt("top secret")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("unexpected ct format")
	}
	// corromper un byte del ciphertext (base64 -> bytes -> flip -> base64)
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0x01
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	_, err = Decrypt(corrupted)
	if !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
}

func TestDecrypt_BadFormatIsCorrupted(t *testing.T) {
	setTestKey(t, 13)

	for _, ct := range []string{"", "no-sep", "a|b|c", "!!!|???"} {
		if _, err := Decrypt(ct); !errors.Is(err, ErrCorrupted) {
			t.Fatalf("Decrypt(%q): expected ErrCorrupted, got %v", ct, err)
		}
	}
}

func TestDecrypt_KeyChangeIsCorrupted(t *testing.T) {
	setTestKey(t, 21)
	ct, err := Encrypt("connected tokens")
	if err != nil {
		t.Fatal(err)
	}

	// Rotar la clave maestra: el ciphertext anterior deja de ser recuperable.
	setTestKey(t, 99)
	if _, err := Decrypt(ct); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted after key rotation, got %v", err)
	}
}

func TestEncrypt_ErrorWhenNoKey(t *testing.T) {
	UnsafeResetForTests()
	os.Unsetenv("SECRETBOX_MASTER_KEY")
	t.Cleanup(UnsafeResetForTests)

	if _, err := Encrypt("x"); err == nil {
		t.Fatalf("expected error when key missing")
	}
}
