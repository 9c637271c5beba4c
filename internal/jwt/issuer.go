// Package jwt emite y valida los tokens de sesión de IssueHub.
//
// Los tokens son JWT firmados con Ed25519 (EdDSA): la firma hace detectable
// cualquier manipulación sin depender de que el payload sea secreto. La clave
// de firma es una sola seed provista por entorno; este servicio no rota
// claves ni publica JWKS.
package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const signingKeyEnvVar = "SESSION_SIGNING_KEY"

// DefaultSessionTTL es la vigencia de un token de sesión.
const DefaultSessionTTL = 24 * time.Hour

// Issuer firma tokens de sesión con una clave Ed25519 fija.
type Issuer struct {
	Iss        string // "iss"
	SessionTTL time.Duration

	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// SessionUser es la identidad mínima que viaja dentro del token.
type SessionUser struct {
	ID    string
	Name  string
	Email string
}

// NewIssuerFromEnv construye el Issuer con la seed de SESSION_SIGNING_KEY
// (base64 de 32 bytes).
func NewIssuerFromEnv(iss string) (*Issuer, error) {
	b64 := strings.TrimSpace(os.Getenv(signingKeyEnvVar))
	if b64 == "" {
		return nil, fmt.Errorf("%s no seteada; genere una con: issuehub keygen", signingKeyEnvVar)
	}
	seed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", signingKeyEnvVar, err)
	}
	return NewIssuer(iss, seed)
}

// NewIssuer construye el Issuer a partir de una seed Ed25519 de 32 bytes.
func NewIssuer(iss string, seed []byte) (*Issuer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed de firma debe ser de %d bytes, obtuvo %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Issuer{
		Iss:        iss,
		SessionTTL: DefaultSessionTTL,
		priv:       priv,
		pub:        priv.Public().(ed25519.PublicKey),
	}, nil
}

// IssueSession emite un token de sesión de 24h con la identidad del usuario.
func (i *Issuer) IssueSession(u SessionUser) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.SessionTTL)

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
