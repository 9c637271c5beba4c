// Package tracker contiene el service del handshake OAuth con el issue
// tracker y las consultas sobre la conexión.
package tracker

import (
	"context"
	"errors"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/tracker"
)

// Service define las operaciones de conexión al tracker.
type Service interface {
	// Connect emite un state CSRF fresco (invalidando el anterior) y arma la
	// URL de autorización.
	Connect(ctx context.Context, userID string) (*dto.ConnectResponse, error)

	// Callback completa el handshake: consume el state (exactamente una
	// vez), canjea el code, resuelve el workspace y persiste la conexión con
	// tokens cifrados. State inválido/vencido/reusado: ErrInvalidState sin
	// tocar nada.
	Callback(ctx context.Context, userID, state, code string) (*dto.StatusResponse, error)

	// Disconnect elimina la conexión. Idempotente.
	Disconnect(ctx context.Context, userID string) error

	// Status informa el estado de la conexión sin exponer tokens.
	Status(ctx context.Context, userID string) (*dto.StatusResponse, error)

	// Projects lista los proyectos visibles, cacheado unos minutos.
	Projects(ctx context.Context, userID string) (*dto.ProjectsResponse, error)
}

// Errores del service.
var (
	ErrInvalidState = errors.New("tracker: invalid, expired or already-used state")
	ErrUserNotFound = errors.New("tracker: user not found")
)
