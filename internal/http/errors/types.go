// Package errors define la estructura estándar de errores HTTP de la API y el
// catálogo de errores predefinidos. Los services devuelven *AppError (o errores
// de dominio que las capas superiores mapean a uno); los controllers sólo los
// escriben.
package errors

import (
	"fmt"
	"net/http"

	"github.com/dropDatabas3/issuehub/internal/validation"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Detail     string                 `json:"detail,omitempty"`
	Fields     []validation.Violation `json:"fields,omitempty"`
	HTTPStatus int                    `json:"-"` // No se serializa, usado para el header
	Err        error                  `json:"-"` // Causa original, sólo para logs
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail agrega detalle. Devuelve una COPIA para no mutar el catálogo base.
func (e *AppError) WithDetail(format string, args ...any) *AppError {
	newErr := *e
	newErr.Detail = fmt.Sprintf(format, args...)
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// WithFields agrega las violaciones de validación. Devuelve una COPIA.
func (e *AppError) WithFields(fields []validation.Violation) *AppError {
	newErr := *e
	newErr.Fields = fields
	return &newErr
}

// FromError normaliza cualquier error a *AppError. Un *validation.Error se
// convierte en VALIDATION_FAILED con sus violaciones; todo lo no reconocido
// es un 500 genérico que conserva la causa para logs.
func FromError(err error) *AppError {
	switch e := err.(type) {
	case *AppError:
		return e
	case *validation.Error:
		return ErrValidationFailed.WithFields(e.Violations)
	default:
		return ErrInternal.WithCause(err)
	}
}

// =============================================================================
// Catálogo
// =============================================================================

var (
	// --- 400 ---

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Uno o más campos de la solicitud son inválidos.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidState = &AppError{
		Code:       "INVALID_STATE",
		Message:    "El state del callback es inválido, ya fue usado o expiró.",
		HTTPStatus: http.StatusBadRequest,
	}

	// --- 401 ---

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Se requiere un token de sesión válido.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSessionExpired = &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "La sesión expiró; inicie sesión de nuevo.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "El token de sesión es inválido.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "El token de sesión expiró.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Email o contraseña incorrectos.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidAPIKey = &AppError{
		Code:       "INVALID_API_KEY",
		Message:    "La API key no existe o fue revocada.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTrackerReauthRequired = &AppError{
		Code:       "TRACKER_REAUTH_REQUIRED",
		Message:    "La conexión al tracker ya no es válida; reconéctela.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// --- 404 ---

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	// --- 409 ---

	ErrEmailInUse = &AppError{
		Code:       "EMAIL_ALREADY_IN_USE",
		Message:    "Ya existe una cuenta con ese email.",
		HTTPStatus: http.StatusConflict,
	}

	ErrTrackerNotConnected = &AppError{
		Code:       "TRACKER_NOT_CONNECTED",
		Message:    "El usuario no tiene una conexión activa al tracker.",
		HTTPStatus: http.StatusConflict,
	}

	// --- 429 ---

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Demasiadas solicitudes. Intentá de nuevo en unos segundos.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	// --- 502 ---

	ErrUpstreamTracker = &AppError{
		Code:       "UPSTREAM_TRACKER_ERROR",
		Message:    "El tracker remoto rechazó la operación.",
		HTTPStatus: http.StatusBadGateway,
	}

	// --- 500 ---

	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Error interno del servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
