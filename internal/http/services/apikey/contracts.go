// Package apikey contiene el service de credenciales de máquina.
package apikey

import (
	"context"
	"errors"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/apikey"
)

// Service define las operaciones sobre API keys.
type Service interface {
	// Create emite una key nueva. La respuesta es la ÚNICA vez que el
	// secreto viaja en claro; después sólo existe su hash.
	Create(ctx context.Context, userID string, in dto.CreateRequest) (*dto.CreatedResponse, error)

	// List lista las keys del usuario, sin hashes ni secretos.
	List(ctx context.Context, userID string) (*dto.ListResponse, error)

	// Revoke elimina una key del usuario. Ajena o inexistente: ErrKeyNotFound.
	Revoke(ctx context.Context, userID, keyID string) error

	// Validate resuelve una key cruda a su registro activo y toca
	// last_used_at en background. Desconocida o revocada:
	// repository.ErrNotFound, indistinguibles entre sí.
	Validate(ctx context.Context, rawKey string) (*repository.APIKey, error)
}

var ErrKeyNotFound = errors.New("apikey: key not found")
