package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Errores de validación. Expirado y malformado/firma inválida se distinguen
// para que la capa HTTP pueda loguearlos distinto, aunque ambos terminen en 401.
var (
	ErrExpired       = errors.New("jwt: token expirado")
	ErrInvalid       = errors.New("jwt: token inválido o malformado")
	ErrInvalidIssuer = errors.New("jwt: issuer inesperado")
)

const leeway = 30 * time.Second

// ParseSession valida firma (EdDSA), iss, exp y nbf, y devuelve la identidad.
func (i *Issuer) ParseSession(token string) (SessionUser, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return i.pub, nil
	}

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithLeeway(leeway),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return SessionUser{}, ErrExpired
		}
		return SessionUser{}, ErrInvalid
	}
	if !tok.Valid {
		return SessionUser{}, ErrInvalid
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return SessionUser{}, ErrInvalid
	}
	if i.Iss != "" {
		if iss, _ := claims["iss"].(string); iss != i.Iss {
			return SessionUser{}, ErrInvalidIssuer
		}
	}

	u := SessionUser{}
	u.ID, _ = claims["sub"].(string)
	u.Name, _ = claims["name"].(string)
	u.Email, _ = claims["email"].(string)
	if u.ID == "" {
		return SessionUser{}, ErrInvalid
	}
	return u, nil
}
