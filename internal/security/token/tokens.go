// Package token genera tokens opacos de alta entropía y sus digests.
//
// Se usa para los secretos de API keys y para el state CSRF del handshake
// OAuth. Los inputs son aleatorios de ≥256 bits, por lo que el digest es un
// SHA-256 directo sin salt (no hay nada que un diccionario pueda atacar).
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// GenerateOpaque genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
