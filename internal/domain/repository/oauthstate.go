package repository

import (
	"context"
	"time"
)

// StateTTL es la ventana de validez de un state CSRF del handshake OAuth.
const StateTTL = 5 * time.Minute

// OAuthStateLedger es el libro de states CSRF de un solo uso.
//
// Invariantes:
//   - A lo sumo un state vivo por usuario: Create reemplaza, no acumula.
//   - Un state se consume exactamente una vez: ValidateAndConsume es una
//     única operación atómica de storage (find-and-delete), nunca
//     read-then-write.
//   - Los states abandonados se reclaman pasivamente (TTL nativo del
//     backend o sweep periódico).
type OAuthStateLedger interface {
	// Create genera un state aleatorio para el usuario, invalida cualquier
	// state previo y lo registra con expiry = now + StateTTL.
	Create(ctx context.Context, userID string) (string, error)

	// ValidateAndConsume verifica y elimina atómicamente el state.
	// Retorna true sólo si (userID, state) existía y no estaba vencido;
	// false en cualquier otro caso, sin revelar cuál condición falló.
	ValidateAndConsume(ctx context.Context, userID, state string) (bool, error)

	// Delete quema incondicionalmente el state vivo del usuario, exista o
	// no: un intento de callback fallido invalida el handshake entero.
	// Idempotente.
	Delete(ctx context.Context, userID string) error
}
