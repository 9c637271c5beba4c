package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoAccessibleWorkspace: el token no da acceso a ningún site.
	// Condición esperada y recuperable (el usuario autorizó sin sites),
	// no un bug.
	ErrNoAccessibleWorkspace = errors.New("tracker: no accessible workspace")

	// ErrNotConnected: el usuario no tiene conexión al tracker.
	ErrNotConnected = errors.New("tracker: not connected")

	// ErrReauthRequired: el refresh falló (token revocado/vencido upstream).
	// No se reintenta: el usuario debe reconectar.
	ErrReauthRequired = errors.New("tracker: reauthorization required")
)

// UpstreamError es un rechazo del tracker remoto. Conserva el payload crudo
// para que el caller pueda auto-corregirse (proyecto inválido, campo faltante).
type UpstreamError struct {
	StatusCode int
	// ErrorMessages y FieldErrors vienen del cuerpo estructurado del
	// tracker cuando existe; Body guarda el crudo siempre.
	ErrorMessages []string
	FieldErrors   map[string]string
	Body          string
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tracker: upstream status %d", e.StatusCode)
	if len(e.ErrorMessages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.ErrorMessages, "; "))
	}
	for field, msg := range e.FieldErrors {
		fmt.Fprintf(&b, "; %s: %s", field, msg)
	}
	if len(e.ErrorMessages) == 0 && len(e.FieldErrors) == 0 && e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

// Detail arma un texto humano con el detalle remoto (para respuestas HTTP).
func (e *UpstreamError) Detail() string {
	parts := make([]string, 0, len(e.ErrorMessages)+len(e.FieldErrors))
	parts = append(parts, e.ErrorMessages...)
	for field, msg := range e.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	if len(parts) == 0 {
		return e.Body
	}
	return strings.Join(parts, "; ")
}
