// Package auth contiene el service de registro, login y perfil.
package auth

import (
	"context"
	"errors"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/auth"
)

// Service define las operaciones de cuentas.
type Service interface {
	// Register crea la cuenta y emite la sesión inicial.
	// Email ya tomado: ErrEmailInUse.
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.SessionResponse, error)

	// Login autentica con email/password y emite una sesión.
	// Usuario inexistente y password incorrecta responden igual.
	Login(ctx context.Context, in dto.LoginRequest) (*dto.SessionResponse, error)

	// Me devuelve el perfil del usuario autenticado.
	Me(ctx context.Context, userID string) (*dto.UserInfo, error)
}

// Errores del service.
var (
	ErrEmailInUse         = errors.New("auth: email already in use")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
)
