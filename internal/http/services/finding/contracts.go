// Package finding contiene el service que traduce findings de clientes
// máquina a issues en el tracker.
package finding

import (
	"context"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/finding"
)

// Service define las operaciones sobre findings.
type Service interface {
	// Create valida el finding (TODAS las violaciones juntas, no la primera)
	// y crea el issue en el tracker del usuario dueño de la API key.
	// Sin conexión: trk.ErrNotConnected, jamás un 500.
	Create(ctx context.Context, userID string, in dto.CreateRequest) (*dto.CreateResponse, error)

	// Search ejecuta una búsqueda JQL (o por project key) sobre el tracker.
	Search(ctx context.Context, userID string, in dto.SearchRequest) (*dto.SearchResponse, error)
}
